package organization

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// MinPromotableTargetPosition is the lowest ladder position a promotion may target.
// Positions 0 and 1 are floor ranks: nothing sits below them, so they can never
// be reached by promotion.
const MinPromotableTargetPosition = 2

var (
	ErrGradeNotFound               = shared.NewDomainError("GRADE_NOT_FOUND", "Grade not found")
	ErrInvalidPromotionTargetGrade = shared.NewDomainError("INVALID_PROMOTION_TARGET_GRADE", "Grade cannot be a promotion target")
	ErrInvalidGradeLadder          = shared.NewDomainError("INVALID_GRADE_LADDER", "Grade ladder is malformed")
)

// Grade is one rung of the organizational seniority ladder.
// Rank is persisted explicitly; a higher rank is more senior.
type Grade struct {
	ID                 uuid.UUID
	Name               string
	Rank               int
	MinEvaluationPoint int // points required to be promoted into this grade
}

// GradeLadder is the total seniority order of grades
type GradeLadder struct {
	grades []Grade
	index  map[uuid.UUID]int
}

// NewGradeLadder orders grades by rank. Two grades sharing a rank would make the
// "grade immediately below" ambiguous, so that is rejected.
func NewGradeLadder(grades []Grade) (*GradeLadder, error) {
	ordered := make([]Grade, len(grades))
	copy(ordered, grades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	index := make(map[uuid.UUID]int, len(ordered))
	for i, g := range ordered {
		if i > 0 && ordered[i-1].Rank == g.Rank {
			return nil, shared.NewDomainError(ErrInvalidGradeLadder.Code,
				fmt.Sprintf("Grades %q and %q share rank %d", ordered[i-1].Name, g.Name, g.Rank))
		}
		index[g.ID] = i
	}

	return &GradeLadder{grades: ordered, index: index}, nil
}

// Grades returns the ladder in ascending rank order
func (l *GradeLadder) Grades() []Grade {
	out := make([]Grade, len(l.grades))
	copy(out, l.grades)
	return out
}

// Find returns the grade with the given ID
func (l *GradeLadder) Find(id uuid.UUID) (Grade, bool) {
	i, ok := l.index[id]
	if !ok {
		return Grade{}, false
	}
	return l.grades[i], true
}

// FindByName returns the grade with the given display name
func (l *GradeLadder) FindByName(name string) (Grade, bool) {
	for _, g := range l.grades {
		if g.Name == name {
			return g, true
		}
	}
	return Grade{}, false
}

// PromotionSource describes who is eligible for promotion into Target
type PromotionSource struct {
	Target        Grade
	Source        Grade
	RequiredPoint int
}

// PromotionSource resolves the grade immediately below targetID and the
// evaluation point threshold configured on the target.
func (l *GradeLadder) PromotionSource(targetID uuid.UUID) (PromotionSource, error) {
	pos, ok := l.index[targetID]
	if !ok {
		return PromotionSource{}, ErrGradeNotFound
	}
	if pos < MinPromotableTargetPosition {
		target := l.grades[pos]
		return PromotionSource{}, shared.NewDomainError(ErrInvalidPromotionTargetGrade.Code,
			fmt.Sprintf("Grade %q is a floor rank and cannot be a promotion target", target.Name))
	}

	target := l.grades[pos]
	return PromotionSource{
		Target:        target,
		Source:        l.grades[pos-1],
		RequiredPoint: target.MinEvaluationPoint,
	}, nil
}
