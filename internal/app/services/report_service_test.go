package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/app/repositories"
	"github.com/rs/zerolog"
)

type fakeReportStore struct {
	counts    repositories.DashboardCounts
	times     []time.Time
	dayStart  time.Time
	weekStart time.Time
	until     string
	low       []models.ProductAlert
	expiring  []models.ProductAlert
}

func (f *fakeReportStore) Counts(_ context.Context, dayStart, weekStart time.Time) (repositories.DashboardCounts, error) {
	f.dayStart, f.weekStart = dayStart, weekStart
	return f.counts, nil
}

func (f *fakeReportStore) ReleaseTimes(context.Context, time.Time) ([]time.Time, error) {
	return f.times, nil
}

func (f *fakeReportStore) LowStock(context.Context) ([]models.ProductAlert, error) {
	return f.low, nil
}

func (f *fakeReportStore) ExpiringBefore(_ context.Context, until string) ([]models.ProductAlert, error) {
	f.until = until
	return f.expiring, nil
}

func TestReportService_Dashboard(t *testing.T) {
	// Tuesday 2024-03-12; the window starts on Wednesday 2024-03-06
	now := time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)
	at := func(day, hour int) time.Time { return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC) }

	store := &fakeReportStore{
		counts: repositories.DashboardCounts{ReleasesToday: 2, ActiveStudents: 40, Products: 12, ActiveMenus: 1, EntriesWeek: 3, ExitsWeek: 5},
		times:  []time.Time{at(6, 10), at(6, 11), at(8, 9), at(10, 12), at(12, 9), at(12, 10)},
	}
	s := NewReportService(store, 7, zerolog.Nop())
	s.now = func() time.Time { return now }

	stats, err := s.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if !store.dayStart.Equal(at(12, 0)) || !store.weekStart.Equal(at(6, 0)) {
		t.Errorf("window = %v..%v", store.weekStart, store.dayStart)
	}
	if stats.LiberacoesHoje != 2 || stats.AlunosAtivos != 40 || stats.SaidasSemana != 5 {
		t.Errorf("stats = %+v", stats)
	}

	want := []models.DailyCount{
		{Data: "2024-03-06", DiaSemana: "Qua", Liberacoes: 2},
		{Data: "2024-03-07", DiaSemana: "Qui", Liberacoes: 0},
		{Data: "2024-03-08", DiaSemana: "Sex", Liberacoes: 1},
		// Saturday 9 without releases and Sunday 10 are omitted
		{Data: "2024-03-11", DiaSemana: "Seg", Liberacoes: 0},
		{Data: "2024-03-12", DiaSemana: "Ter", Liberacoes: 2},
	}
	if !reflect.DeepEqual(stats.LiberacoesPorDia, want) {
		t.Errorf("series = %+v\nwant %+v", stats.LiberacoesPorDia, want)
	}
}

func TestReportService_DashboardKeepsBusySaturday(t *testing.T) {
	now := time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)
	store := &fakeReportStore{times: []time.Time{time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)}}
	s := NewReportService(store, 7, zerolog.Nop())
	s.now = func() time.Time { return now }

	stats, err := s.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	found := false
	for _, d := range stats.LiberacoesPorDia {
		if d.Data == "2024-03-09" {
			found = d.DiaSemana == "Sáb" && d.Liberacoes == 1
		}
	}
	if !found {
		t.Errorf("Saturday with releases missing from %+v", stats.LiberacoesPorDia)
	}
}

func TestReportService_Alerts(t *testing.T) {
	now := time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)
	expired := "2024-03-10"
	soon := "2024-03-15"
	store := &fakeReportStore{
		expiring: []models.ProductAlert{{ID: "p1", DataValidade: &expired}, {ID: "p2", DataValidade: &soon}},
	}
	s := NewReportService(store, 7, zerolog.Nop())
	s.now = func() time.Time { return now }

	alerts, err := s.Alerts(context.Background(), dto.StockAlertsRequest{})
	if err != nil {
		t.Fatalf("Alerts() error = %v", err)
	}
	if store.until != "2024-03-19" {
		t.Errorf("until = %s, want 2024-03-19", store.until)
	}
	if alerts.EstoqueBaixo == nil {
		t.Error("EstoqueBaixo must be an empty list, not nil")
	}
	if got := *alerts.Vencendo[0].DiasParaVencer; got != -2 {
		t.Errorf("expired DiasParaVencer = %d, want -2", got)
	}
	if got := *alerts.Vencendo[1].DiasParaVencer; got != 3 {
		t.Errorf("DiasParaVencer = %d, want 3", got)
	}

	days := 30
	if _, err := s.Alerts(context.Background(), dto.StockAlertsRequest{Dias: &days}); err != nil {
		t.Fatalf("Alerts() error = %v", err)
	}
	if store.until != "2024-04-11" {
		t.Errorf("until = %s, want 2024-04-11", store.until)
	}
}
