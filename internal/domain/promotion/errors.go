package promotion

import "github.com/hrcore/promotion/internal/domain/shared"

// Promotion domain errors
var (
	ErrPlanNotFound             = shared.NewDomainError("PLAN_NOT_FOUND", "Promotion plan not found")
	ErrDetailNotFound           = shared.NewDomainError("DETAIL_NOT_FOUND", "Promotion detail not found")
	ErrCandidateNotFound        = shared.NewDomainError("CANDIDATE_NOT_FOUND", "Promotion candidate not found")
	ErrInvalidPeriod            = shared.NewDomainError("INVALID_PERIOD", "Nomination deadline must not be after the appointment date")
	ErrInvalidQuota             = shared.NewDomainError("INVALID_QUOTA", "Quota count must be at least 1")
	ErrNominationPeriodExpired  = shared.NewDomainError("NOMINATION_PERIOD_EXPIRED", "Nomination period has expired")
	ErrPlanFinished             = shared.NewDomainError("PLAN_FINISHED", "Promotion plan has already finished")
	ErrSelfNominationNotAllowed = shared.NewDomainError("SELF_NOMINATION_NOT_ALLOWED", "Employees cannot nominate themselves")
	ErrQuotaExceeded            = shared.NewDomainError("QUOTA_EXCEEDED", "Promotion quota for this detail is already filled")
)
