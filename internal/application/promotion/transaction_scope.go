package promotion

import (
	"context"

	"github.com/hrcore/promotion/internal/domain/appointment"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/domain/promotion"
)

// TransactionScope provides transactional access to the promotion repositories.
// All repository operations performed inside fn are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
//
// Aggregate boundary notes:
//   - PlanRepo: Plan aggregate with its details. LockDetail serializes quota decisions.
//   - CandidateRepo: Candidate aggregate, written with version checks.
//   - Directory / EmployeeWriter: ports onto the employee master data. Only grade,
//     department and job title are ever written.
//   - AppointmentRepo: scheduled personnel appointments replayed by the daily sweep.
type TransactionalRepositories interface {
	PlanRepo() promotion.PlanRepository
	CandidateRepo() promotion.CandidateRepository
	Directory() organization.Directory
	EmployeeWriter() organization.EmployeeWriter
	AppointmentRepo() appointment.AppointmentRepository
}

// NoOpTransactionScope runs functions against plain repositories without a transaction.
// Useful for tests and for read paths.
type NoOpTransactionScope struct {
	planRepo        promotion.PlanRepository
	candidateRepo   promotion.CandidateRepository
	directory       organization.Directory
	employeeWriter  organization.EmployeeWriter
	appointmentRepo appointment.AppointmentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	planRepo promotion.PlanRepository,
	candidateRepo promotion.CandidateRepository,
	directory organization.Directory,
	employeeWriter organization.EmployeeWriter,
	appointmentRepo appointment.AppointmentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		planRepo:        planRepo,
		candidateRepo:   candidateRepo,
		directory:       directory,
		employeeWriter:  employeeWriter,
		appointmentRepo: appointmentRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// PlanRepo returns the plan repository.
func (s *NoOpTransactionScope) PlanRepo() promotion.PlanRepository {
	return s.planRepo
}

// CandidateRepo returns the candidate repository.
func (s *NoOpTransactionScope) CandidateRepo() promotion.CandidateRepository {
	return s.candidateRepo
}

// Directory returns the employee directory.
func (s *NoOpTransactionScope) Directory() organization.Directory {
	return s.directory
}

// EmployeeWriter returns the employee writer.
func (s *NoOpTransactionScope) EmployeeWriter() organization.EmployeeWriter {
	return s.employeeWriter
}

// AppointmentRepo returns the appointment repository.
func (s *NoOpTransactionScope) AppointmentRepo() appointment.AppointmentRepository {
	return s.appointmentRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
