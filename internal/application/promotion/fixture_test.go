package promotion_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fixture is a small company:
//
//	HQ ── Dev ── Backend
//	Sales
type fixture struct {
	store     *testutil.MemoryStore
	publisher *testutil.RecordingPublisher

	grades  map[string]organization.Grade
	hq      organization.Department
	dev     organization.Department
	backend organization.Department
	sales   organization.Department

	discovery  *promotionapp.CandidateDiscoveryEngine
	plans      *promotionapp.PlanService
	nomination *promotionapp.NominationService
	review     *promotionapp.ReviewService
	gradeSvc   *promotionapp.GradeChangeService
	queries    *promotionapp.CandidateQueryService
}

var (
	planDeadline    = testutil.Date(2026, 11, 30)
	planAppointment = testutil.Date(2027, 1, 1)
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := testutil.NewMemoryStore()

	f := &fixture{
		store:     store,
		publisher: testutil.NewRecordingPublisher(),
		grades:    make(map[string]organization.Grade),
	}
	for i, g := range []struct {
		name  string
		point int
	}{{"관리자", 0}, {"사원", 0}, {"주임", 70}, {"대리", 80}, {"과장", 85}} {
		f.grades[g.name] = store.AddGrade(g.name, i, g.point)
	}
	f.hq = store.AddDepartment("HQ", nil)
	f.dev = store.AddDepartment("Dev", &f.hq.ID)
	f.backend = store.AddDepartment("Backend", &f.dev.ID)
	f.sales = store.AddDepartment("Sales", nil)

	executor := promotionapp.NewGradeChangeExecutor(logger)
	f.discovery = promotionapp.NewCandidateDiscoveryEngine(store, logger)
	f.plans = promotionapp.NewPlanService(store.PlanRepo(), store, f.discovery, logger)
	f.nomination = promotionapp.NewNominationService(store, time.UTC, logger)
	f.nomination.SetClock(testutil.FixedClock(testutil.Date(2026, 11, 1)))
	f.review = promotionapp.NewReviewService(store, store.PlanRepo(), store.CandidateRepo(), executor, logger)
	f.review.SetEventPublisher(f.publisher)
	f.gradeSvc = promotionapp.NewGradeChangeService(store, executor, logger)
	f.gradeSvc.SetEventPublisher(f.publisher)
	f.queries = promotionapp.NewCandidateQueryService(store.PlanRepo(), store.CandidateRepo())
	return f
}

func (f *fixture) employee(number string, dept organization.Department, grade string, point int) organization.Employee {
	return f.store.AddEmployee(number, dept.ID, f.grades[grade].ID, point)
}

// registerPlan registers a single-detail plan and returns the detail's discovery result
func (f *fixture) registerPlan(t *testing.T, dept organization.Department, target string, quota int) promotionapp.DiscoveryResult {
	t.Helper()
	result, err := f.plans.RegisterPlan(context.Background(), promotionapp.RegisterPlanRequest{
		Name:               "2026 regular promotion",
		NominationDeadline: planDeadline,
		AppointmentDate:    planAppointment,
		Details: []promotionapp.RegisterDetailInput{
			{DepartmentID: dept.ID, TargetGradeID: f.grades[target].ID, QuotaCount: quota},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Discovery, 1)
	require.Empty(t, result.Discovery[0].Error)
	return result.Discovery[0]
}

// candidateOf returns the candidate ID registered for an employee in a detail
func (f *fixture) candidateOf(t *testing.T, detailID, employeeID uuid.UUID) uuid.UUID {
	t.Helper()
	for _, c := range f.store.CandidatesOf(detailID) {
		if c.EmployeeID == employeeID {
			return c.ID
		}
	}
	t.Fatalf("no candidate for employee %s", employeeID)
	return uuid.Nil
}

func (f *fixture) pass(t *testing.T, candidateID uuid.UUID) {
	t.Helper()
	_, err := f.review.ReviewCandidate(context.Background(), promotionapp.ReviewRequest{
		CandidateID: candidateID, Passed: true, Comment: "ok",
	})
	require.NoError(t, err)
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}
