package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrent passing reviews of one detail serialize on the detail row lock,
// so the quota is never exceeded.
func TestReviewCandidate_ConcurrentPassesRespectQuota(t *testing.T) {
	s := newStack(t)
	s.addEmployees(t, 8)
	detailID := s.registerPlan(t, 3)

	candidates := s.candidates(t, detailID)
	require.Len(t, candidates, 8)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		passed   int
		exceeded int
		others   []error
	)
	start := make(chan struct{})
	for _, c := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.review.ReviewCandidate(context.Background(), promotionapp.ReviewRequest{
				CandidateID: c.ID,
				Passed:      true,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				passed++
			case errors.Is(err, promotion.ErrQuotaExceeded):
				exceeded++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 3, passed)
	assert.Equal(t, 5, exceeded)

	quota, err := s.review.PassedCount(context.Background(), detailID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), quota.Passed)
	assert.Equal(t, int64(0), quota.Remaining)

	waiting := 0
	for _, c := range s.candidates(t, detailID) {
		if c.Status == string(promotion.CandidateStatusWaiting) {
			waiting++
		}
	}
	assert.Equal(t, 5, waiting, "rejected-by-quota candidates stay waiting")
}

// Two reviewers racing on the same candidate: one wins, the other fails on
// the state precondition or the version check and writes nothing.
func TestReviewCandidate_SameCandidateRace(t *testing.T) {
	s := newStack(t)
	s.addEmployees(t, 1)
	detailID := s.registerPlan(t, 1)
	candidate := s.candidates(t, detailID)[0]

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, passed := range []bool{true, false} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.review.ReviewCandidate(context.Background(), promotionapp.ReviewRequest{
				CandidateID: candidate.ID,
				Passed:      passed,
				Comment:     "race",
			})
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		code := shared.ErrorCode(err)
		assert.Contains(t, []string{"INVALID_STATE", "CONCURRENCY_CONFLICT"}, code, "unexpected error %v", err)
	}
	assert.Equal(t, 1, succeeded)

	stored := s.candidates(t, detailID)[0]
	assert.Equal(t, 2, stored.Version)
	assert.NotEqual(t, string(promotion.CandidateStatusWaiting), stored.Status)
}

func TestConfirmFinalApproval_PromotesOnPostgres(t *testing.T) {
	s := newStack(t)
	employees := s.addEmployees(t, 2)
	detailID := s.registerPlan(t, 2)
	ctx := context.Background()

	for _, c := range s.candidates(t, detailID) {
		_, err := s.review.ReviewCandidate(ctx, promotionapp.ReviewRequest{CandidateID: c.ID, Passed: true})
		require.NoError(t, err)
	}

	top := s.candidates(t, detailID)[0]
	require.Equal(t, employees[0].ID, top.EmployeeID)
	actor := employees[1].ID
	_, err := s.review.ConfirmFinalApproval(ctx, promotionapp.FinalApprovalRequest{
		CandidateID: top.ID,
		Passed:      true,
		ActorID:     actor,
	})
	require.NoError(t, err)

	promoted, err := s.directory.FindEmployee(ctx, top.EmployeeID)
	require.NoError(t, err)
	assert.Equal(t, s.grades["과장"].ID, promoted.GradeID)

	history, err := s.directory.FindGradeHistory(ctx, top.EmployeeID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "과장", history[0].GradeName)
	assert.Equal(t, actor, history[0].ChangedBy)

	_, err = s.review.ConfirmFinalApproval(ctx, promotionapp.FinalApprovalRequest{CandidateID: top.ID, Passed: true, ActorID: actor})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}
