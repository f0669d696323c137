package persistence

import (
	"context"

	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/appointment"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to the callback shares the same *gorm.DB transaction,
// so row locks taken through one of them are held for the whole callback.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error rolls the
// transaction back; otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos promotionapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{
			tx:        tx,
			directory: NewGormDirectoryRepository(tx),
		})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx        *gorm.DB
	directory *GormDirectoryRepository
}

// PlanRepo returns the plan repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PlanRepo() promotion.PlanRepository {
	return NewGormPlanRepository(r.tx)
}

// CandidateRepo returns the candidate repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CandidateRepo() promotion.CandidateRepository {
	return NewGormCandidateRepository(r.tx)
}

// Directory returns the master data reader scoped to the current transaction.
func (r *gormTransactionalRepositories) Directory() organization.Directory {
	return r.directory
}

// EmployeeWriter returns the employee writer scoped to the current transaction.
func (r *gormTransactionalRepositories) EmployeeWriter() organization.EmployeeWriter {
	return r.directory
}

// AppointmentRepo returns the appointment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AppointmentRepo() appointment.AppointmentRepository {
	return NewGormAppointmentRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ promotionapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ promotionapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
