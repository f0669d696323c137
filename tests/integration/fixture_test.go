package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/infrastructure/persistence"
	"github.com/hrcore/promotion/internal/infrastructure/persistence/models"
	"github.com/hrcore/promotion/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// stack wires the promotion services over a migrated PostgreSQL database
type stack struct {
	db        *TestDB
	logger    *zap.Logger
	scope     *persistence.GormTransactionScope
	directory *persistence.GormDirectoryRepository
	executor  *promotionapp.GradeChangeExecutor
	plans     *promotionapp.PlanService
	review    *promotionapp.ReviewService
	queries   *promotionapp.CandidateQueryService

	grades map[string]organization.Grade
	dev    organization.Department
}

func newStack(t *testing.T) *stack {
	t.Helper()
	tdb := NewTestDB(t)
	logger := zaptest.NewLogger(t)

	planRepo := persistence.NewGormPlanRepository(tdb.DB)
	candRepo := persistence.NewGormCandidateRepository(tdb.DB)
	scope := persistence.NewGormTransactionScope(tdb.DB)
	executor := promotionapp.NewGradeChangeExecutor(logger)
	discovery := promotionapp.NewCandidateDiscoveryEngine(scope, logger)

	s := &stack{
		db:        tdb,
		logger:    logger,
		scope:     scope,
		directory: persistence.NewGormDirectoryRepository(tdb.DB),
		executor:  executor,
		plans:     promotionapp.NewPlanService(planRepo, scope, discovery, logger),
		review:    promotionapp.NewReviewService(scope, planRepo, candRepo, executor, logger),
		queries:   promotionapp.NewCandidateQueryService(planRepo, candRepo),
		grades:    make(map[string]organization.Grade),
	}

	for i, name := range []string{"사원", "주임", "대리", "과장", "차장"} {
		g := organization.Grade{ID: uuid.New(), Name: name, Rank: i + 1, MinEvaluationPoint: 60 + 5*i}
		require.NoError(t, tdb.DB.Create(models.GradeModelFromDomain(g)).Error)
		s.grades[name] = g
	}
	s.dev = organization.Department{ID: uuid.New(), Name: "Dev"}
	require.NoError(t, tdb.DB.Create(models.DepartmentModelFromDomain(s.dev)).Error)
	return s
}

// addEmployees creates n 대리 employees in Dev with descending points from 99
func (s *stack) addEmployees(t *testing.T, n int) []organization.Employee {
	t.Helper()
	employees := make([]organization.Employee, 0, n)
	for i := range n {
		e := organization.Employee{
			ID:              uuid.New(),
			EmployeeNumber:  fmt.Sprintf("E%03d", i+1),
			Name:            fmt.Sprintf("Employee %d", i+1),
			DepartmentID:    s.dev.ID,
			GradeID:         s.grades["대리"].ID,
			EvaluationPoint: 99 - i,
		}
		require.NoError(t, s.db.DB.Create(models.EmployeeModelFromDomain(e)).Error)
		employees = append(employees, e)
	}
	return employees
}

// registerPlan registers a Dev→과장 plan with quota and returns its detail ID
func (s *stack) registerPlan(t *testing.T, quota int) uuid.UUID {
	t.Helper()
	result, err := s.plans.RegisterPlan(context.Background(), promotionapp.RegisterPlanRequest{
		Name:               "2099 regular",
		NominationDeadline: testutil.Date(2099, 11, 30),
		AppointmentDate:    testutil.Date(2099, 12, 31),
		Details: []promotionapp.RegisterDetailInput{
			{DepartmentID: s.dev.ID, TargetGradeID: s.grades["과장"].ID, QuotaCount: quota},
		},
	})
	require.NoError(t, err)
	require.Zero(t, result.FailedDetails())
	return result.Plan.Details[0].ID
}

func (s *stack) candidates(t *testing.T, detailID uuid.UUID) []promotionapp.CandidateResponse {
	t.Helper()
	page, err := s.queries.ListByDetail(context.Background(), detailID, 1, 100)
	require.NoError(t, err)
	return page.Items
}
