package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	CrudRepository    *CrudRepository
	UserRepository    *UserRepository
	StockRepository   *StockRepository
	StudentRepository *StudentRepository
	ReleaseRepository *ReleaseRepository
	ReportRepository  *ReportRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		CrudRepository:    NewCrudRepository(db),
		UserRepository:    NewUserRepository(db),
		StockRepository:   NewStockRepository(db),
		StudentRepository: NewStudentRepository(db),
		ReleaseRepository: NewReleaseRepository(db),
		ReportRepository:  NewReportRepository(db),
	}
}
