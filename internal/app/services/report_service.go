package services

import (
	"context"
	"math"
	"time"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// Days covered by the dashboard series and the weekly movement totals
const dashboardDays = 7

var weekdayNames = [...]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// ReportService builds the dashboard and the stock alert lists
type ReportService struct {
	store      ReportStore
	expiryDays int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewReportService creates a new ReportService. expiryDays is the default
// look-ahead for expiring products.
func NewReportService(store ReportStore, expiryDays int, logger zerolog.Logger) *ReportService {
	return &ReportService{store: store, expiryDays: expiryDays, now: time.Now, logger: logger}
}

// Dashboard returns today's figures and the releases per school day of the
// last week. Sundays are left out, as are Saturdays without releases.
func (s *ReportService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	today := helpers.StartOfDay(s.now())
	weekStart := today.AddDate(0, 0, -(dashboardDays - 1))

	counts, err := s.store.Counts(ctx, today, weekStart)
	if err != nil {
		return nil, err
	}
	times, err := s.store.ReleaseTimes(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	perDay := make(map[string]int, dashboardDays)
	for _, t := range times {
		perDay[t.In(today.Location()).Format(helpers.DateLayout)]++
	}

	series := []models.DailyCount{}
	for i := 0; i < dashboardDays; i++ {
		day := weekStart.AddDate(0, 0, i)
		key := day.Format(helpers.DateLayout)
		n := perDay[key]
		if day.Weekday() == time.Sunday || (day.Weekday() == time.Saturday && n == 0) {
			continue
		}
		series = append(series, models.DailyCount{
			Data:       key,
			DiaSemana:  weekdayNames[day.Weekday()],
			Liberacoes: n,
		})
	}

	return &models.DashboardStats{
		LiberacoesHoje:   counts.ReleasesToday,
		AlunosAtivos:     counts.ActiveStudents,
		TotalProdutos:    counts.Products,
		CardapiosAtivos:  counts.ActiveMenus,
		EntradasSemana:   counts.EntriesWeek,
		SaidasSemana:     counts.ExitsWeek,
		LiberacoesPorDia: series,
	}, nil
}

// Alerts lists products at or below their minimum stock and products
// expiring within the requested number of days, expired ones included
func (s *ReportService) Alerts(ctx context.Context, req dto.StockAlertsRequest) (*models.StockAlerts, error) {
	days := s.expiryDays
	if req.Dias != nil {
		days = *req.Dias
	}
	today := helpers.StartOfDay(s.now())
	until := today.AddDate(0, 0, days).Format(helpers.DateLayout)

	low, err := s.store.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	expiring, err := s.store.ExpiringBefore(ctx, until)
	if err != nil {
		return nil, err
	}

	for i := range expiring {
		if expiring[i].DataValidade == nil {
			continue
		}
		d, err := time.ParseInLocation(helpers.DateLayout, *expiring[i].DataValidade, today.Location())
		if err != nil {
			continue
		}
		left := int(math.Round(d.Sub(today).Hours() / 24))
		expiring[i].DiasParaVencer = &left
	}

	if low == nil {
		low = []models.ProductAlert{}
	}
	if expiring == nil {
		expiring = []models.ProductAlert{}
	}
	return &models.StockAlerts{EstoqueBaixo: low, Vencendo: expiring}, nil
}
