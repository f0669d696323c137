package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/hrcore/promotion/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const departmentMove = `{"departmentId":"7f1f2c2e-6a4c-4f0e-9d0e-2b1a3c4d5e6f","jobTitle":"팀장"}`

func TestNewAppointment(t *testing.T) {
	effective := time.Date(2027, 1, 1, 15, 30, 0, 0, time.UTC)

	a, err := NewAppointment(" E1001 ", departmentMove, effective)
	require.NoError(t, err)
	assert.Equal(t, "E1001", a.EmployeeNumber)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), a.EffectiveDate)

	_, err = NewAppointment("", departmentMove, effective)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = NewAppointment("E1001", `{"promotionType":"REGULAR"}`, effective)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestAppointment_IsDue(t *testing.T) {
	a, err := NewAppointment("E1001", departmentMove, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.False(t, a.IsDue(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, a.IsDue(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, a.IsDue(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, a.Complete(time.Now()))
	assert.False(t, a.IsDue(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAppointment_Processing(t *testing.T) {
	now := time.Date(2027, 1, 1, 0, 5, 0, 0, time.UTC)

	t.Run("complete", func(t *testing.T) {
		a, _ := NewAppointment("E1001", departmentMove, now)
		require.NoError(t, a.Complete(now))
		assert.Equal(t, StatusComplete, a.Status)
		require.NotNil(t, a.ProcessedAt)
		assert.Equal(t, now, *a.ProcessedAt)
		assert.Equal(t, 2, a.Version)
	})

	t.Run("fail records reason", func(t *testing.T) {
		a, _ := NewAppointment("E1001", departmentMove, now)
		require.NoError(t, a.Fail("employee not found", now))
		assert.Equal(t, StatusFailed, a.Status)
		assert.Equal(t, "employee not found", a.FailureReason)
	})

	t.Run("processed appointment cannot change again", func(t *testing.T) {
		a, _ := NewAppointment("E1001", departmentMove, now)
		require.NoError(t, a.Fail("boom", now))
		assert.True(t, errors.Is(a.Complete(now), shared.ErrInvalidState))
		assert.True(t, errors.Is(a.Fail("again", now), shared.ErrInvalidState))
		assert.Equal(t, "boom", a.FailureReason)
	})
}
