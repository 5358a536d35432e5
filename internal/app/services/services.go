package services

import (
	"context"
	"time"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/app/repositories"
)

// Services defined in this package:
// - AuthService: login and session lookup
// - TableService: generic CRUD over the allow-listed tables
// - StockService: transactional stock adjustment
// - StudentService: resolving scanned codes to students
// - ReleaseService: release history and pre-release checks
// - ReportService: dashboard figures and stock alerts

// TableStore is the storage behind TableService
type TableStore interface {
	List(ctx context.Context, t *repositories.Table, opts repositories.ListOptions) ([]models.Record, error)
	GetByID(ctx context.Context, t *repositories.Table, id string) (models.Record, error)
	Insert(ctx context.Context, t *repositories.Table, data models.Record, opts repositories.WriteOptions) (models.Record, error)
	Update(ctx context.Context, t *repositories.Table, id string, data models.Record, opts repositories.WriteOptions) (models.Record, error)
	Delete(ctx context.Context, t *repositories.Table, id string) error
}

// UserStore is the storage behind AuthService and user deletion
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// StockStore applies stock movements atomically
type StockStore interface {
	ApplyMovement(ctx context.Context, m models.StockMovement) (*models.StockAdjustment, error)
}

// StudentStore resolves students by code
type StudentStore interface {
	FindByCode(ctx context.Context, column, code string) (*models.StudentLookup, error)
	IsScholarship(ctx context.Context, studentID string) (bool, error)
}

// ReleaseStore reads releases and the active menu
type ReleaseStore interface {
	History(ctx context.Context, limit int) ([]models.ReleaseHistoryEntry, error)
	LastReleaseAt(ctx context.Context, studentID string) (*time.Time, error)
	ActiveMenu(ctx context.Context) (*models.ActiveMenu, error)
}

// ReportStore runs the dashboard and alert aggregates
type ReportStore interface {
	Counts(ctx context.Context, dayStart, weekStart time.Time) (repositories.DashboardCounts, error)
	ReleaseTimes(ctx context.Context, from time.Time) ([]time.Time, error)
	LowStock(ctx context.Context) ([]models.ProductAlert, error)
	ExpiringBefore(ctx context.Context, until string) ([]models.ProductAlert, error)
}

// Publisher pushes change notifications to realtime clients
type Publisher interface {
	Publish(eventType, table string, record interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

func publisherOrNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
