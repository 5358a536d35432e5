package services

import (
	"context"
	"strings"
	"time"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/cantinaverde/cantina/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// ReleaseService serves the release history feed and the pre-release check
type ReleaseService struct {
	releases     ReleaseStore
	students     StudentStore
	recentWindow time.Duration
	now          func() time.Time
	logger       zerolog.Logger
}

// NewReleaseService creates a new ReleaseService. recentWindow is how far back
// a previous release makes a new one a suspected duplicate.
func NewReleaseService(releases ReleaseStore, students StudentStore, recentWindow time.Duration, logger zerolog.Logger) *ReleaseService {
	return &ReleaseService{
		releases:     releases,
		students:     students,
		recentWindow: recentWindow,
		now:          time.Now,
		logger:       logger,
	}
}

// History returns the latest releases, newest first
func (s *ReleaseService) History(ctx context.Context, req dto.HistoryRequest) ([]models.ReleaseHistoryEntry, error) {
	limit, err := historyLimit(req.Limit)
	if err != nil {
		return nil, err
	}
	entries, err := s.releases.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.ReleaseHistoryEntry{}
	}
	return entries, nil
}

func historyLimit(v interface{}) (int, error) {
	requested := 0
	switch l := v.(type) {
	case nil:
	case float64:
		requested = int(l)
	case string:
		if strings.TrimSpace(l) != "" {
			n, err := helpers.ParseLimitParam(strings.TrimSpace(l))
			if err != nil {
				return 0, apperrors.NewCustomError(apperrors.ErrValidationFailed, "limit must be a number").WithField("limit")
			}
			requested = n
		}
	default:
		return 0, apperrors.NewCustomError(apperrors.ErrValidationFailed, "limit must be a number").WithField("limit")
	}
	return helpers.ClampLimit(requested, helpers.DefaultHistoryLimit, helpers.MaxHistoryLimit), nil
}

// Check reports the warnings the operator sees before releasing a meal to
// studentID. Neither warning blocks the release.
func (s *ReleaseService) Check(ctx context.Context, req dto.ReleaseCheckRequest) (*models.ReleaseCheck, error) {
	last, err := s.releases.LastReleaseAt(ctx, req.AlunoID)
	if err != nil {
		return nil, err
	}
	menu, err := s.releases.ActiveMenu(ctx)
	if err != nil {
		return nil, err
	}

	check := &models.ReleaseCheck{UltimaLiberacao: last, CardapioAtivo: menu}
	if last != nil && s.now().Sub(*last) < s.recentWindow {
		check.Recent = true
	}

	if menu != nil && menu.TipoRefeicao == models.MealLunch {
		bolsista, err := s.students.IsScholarship(ctx, req.AlunoID)
		if err != nil {
			return nil, err
		}
		check.RequerConfirmacaoBolsista = !bolsista
	}
	return check, nil
}
