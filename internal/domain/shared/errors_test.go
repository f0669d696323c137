package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("INVALID_STATE", "Cannot review candidate in FINAL_APPROVED status")

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), ErrInvalidState))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(errors.New("INVALID_STATE"), ErrInvalidState))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "QUOTA_EXCEEDED", ErrorCode(fmt.Errorf("review: %w", NewDomainError("QUOTA_EXCEEDED", "full"))))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Equal(t, "", ErrorCode(nil))
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"generic", ErrNotFound, true},
		{"specific", NewDomainError("CANDIDATE_NOT_FOUND", "x"), true},
		{"wrapped", fmt.Errorf("load: %w", NewDomainError("GRADE_NOT_FOUND", "x")), true},
		{"other domain error", ErrInvalidState, false},
		{"plain error", errors.New("not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 5, 1, 2)
	assert.Equal(t, 3, p.TotalPages)

	page, size := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	_, size = NormalizePage(1, 1000)
	assert.Equal(t, 200, size)
}
