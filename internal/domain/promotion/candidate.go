package promotion

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// CandidateStatus represents the review status of a candidate
type CandidateStatus string

const (
	CandidateStatusWaiting        CandidateStatus = "WAITING"
	CandidateStatusReviewPassed   CandidateStatus = "REVIEW_PASSED"
	CandidateStatusReviewRejected CandidateStatus = "REVIEW_REJECTED"
	CandidateStatusFinalApproved  CandidateStatus = "FINAL_APPROVED"
	CandidateStatusFinalRejected  CandidateStatus = "FINAL_REJECTED"
)

// QuotaStatuses are the statuses that occupy a slot of the detail quota
var QuotaStatuses = []CandidateStatus{CandidateStatusReviewPassed, CandidateStatusFinalApproved}

// IsValid checks if the status is a valid value
func (s CandidateStatus) IsValid() bool {
	switch s {
	case CandidateStatusWaiting, CandidateStatusReviewPassed, CandidateStatusReviewRejected,
		CandidateStatusFinalApproved, CandidateStatusFinalRejected:
		return true
	}
	return false
}

// String returns the string representation of CandidateStatus
func (s CandidateStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s CandidateStatus) CanTransitionTo(target CandidateStatus) bool {
	switch s {
	case CandidateStatusWaiting:
		return target == CandidateStatusReviewPassed || target == CandidateStatusReviewRejected
	case CandidateStatusReviewPassed:
		return target == CandidateStatusFinalApproved || target == CandidateStatusFinalRejected
	case CandidateStatusReviewRejected, CandidateStatusFinalApproved, CandidateStatusFinalRejected:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true if no further transition is possible
func (s CandidateStatus) IsTerminal() bool {
	return s == CandidateStatusReviewRejected || s == CandidateStatusFinalApproved || s == CandidateStatusFinalRejected
}

// OccupiesQuota returns true if a candidate in this status counts against the quota
func (s CandidateStatus) OccupiesQuota() bool {
	return s == CandidateStatusReviewPassed || s == CandidateStatusFinalApproved
}

// Candidate is an employee evaluated against one promotion detail
type Candidate struct {
	shared.BaseAggregateRoot
	DetailID                uuid.UUID
	EmployeeID              uuid.UUID
	NominatorID             *uuid.UUID
	NominationReason        string
	EvaluationPointSnapshot int // captured at discovery, never refreshed
	Status                  CandidateStatus
	Comment                 string
}

// NewCandidate registers an employee as a waiting candidate of a detail
func NewCandidate(detailID, employeeID uuid.UUID, evaluationPoint int) *Candidate {
	return &Candidate{
		BaseAggregateRoot:       shared.NewBaseAggregateRoot(),
		DetailID:                detailID,
		EmployeeID:              employeeID,
		EvaluationPointSnapshot: evaluationPoint,
		Status:                  CandidateStatusWaiting,
	}
}

// Nominate records a peer nomination, replacing any previous one
func (c *Candidate) Nominate(nominatorID uuid.UUID, reason string) error {
	if nominatorID == c.EmployeeID {
		return ErrSelfNominationNotAllowed
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "Nomination reason is required")
	}

	c.NominatorID = &nominatorID
	c.NominationReason = reason
	c.touch()
	return nil
}

// CancelNomination clears the nomination if requesterID made it
func (c *Candidate) CancelNomination(requesterID uuid.UUID) error {
	if c.NominatorID == nil || *c.NominatorID != requesterID {
		return shared.NewDomainError(shared.ErrAccessDenied.Code, "Only the nominator can cancel a nomination")
	}

	c.NominatorID = nil
	c.NominationReason = ""
	c.touch()
	return nil
}

// IsNominated returns true if a peer nomination is recorded
func (c *Candidate) IsNominated() bool {
	return c.NominatorID != nil
}

// Review performs the first-stage decision. passedCount is the number of
// candidates of the same detail currently occupying the quota; the caller must
// hold the detail lock while reading it.
func (c *Candidate) Review(passed bool, comment string, detail Detail, passedCount int64) error {
	if c.Status != CandidateStatusWaiting {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Cannot review candidate in %s status", c.Status))
	}
	if detail.ID != c.DetailID {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, "Candidate does not belong to the given detail")
	}

	target := CandidateStatusReviewRejected
	if passed {
		if !detail.HasRoomFor(passedCount) {
			return ErrQuotaExceeded
		}
		target = CandidateStatusReviewPassed
	}

	c.Status = target
	c.Comment = comment
	c.touch()
	c.AddDomainEvent(NewCandidateReviewedEvent(c))
	return nil
}

// ConfirmFinal performs the final decision on a review-passed candidate
func (c *Candidate) ConfirmFinal(approved bool, comment string) error {
	if c.Status != CandidateStatusReviewPassed {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Cannot finalize candidate in %s status", c.Status))
	}

	c.Status = CandidateStatusFinalRejected
	if approved {
		c.Status = CandidateStatusFinalApproved
	}
	if comment != "" {
		c.Comment = comment
	}
	c.touch()
	c.AddDomainEvent(NewCandidateFinalizedEvent(c))
	return nil
}

func (c *Candidate) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
