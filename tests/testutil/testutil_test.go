package testutil

import (
	"context"
	"testing"
	"time"

	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	mockDB.ExpectationsWereMet(t)
}

func TestNewTestUUID_IsDeterministic(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
}

func TestMemoryStore_RollsBackFailedTransaction(t *testing.T) {
	store := NewMemoryStore()
	root := store.AddDepartment("HQ", nil)
	grade := store.AddGrade("사원", 1, 0)
	emp := store.AddEmployee("E1", root.ID, grade.ID, 50)
	promoted := store.AddGrade("주임", 2, 70)

	err := store.Execute(context.Background(), func(repos promotionapp.TransactionalRepositories) error {
		require.NoError(t, repos.EmployeeWriter().UpdateGrade(context.Background(), emp.ID, promoted.ID))
		return assert.AnError
	})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, grade.ID, store.Employee(emp.ID).GradeID)
}

func TestWaitForCondition(t *testing.T) {
	start := time.Now()
	ok := WaitForCondition(t, func() bool { return time.Since(start) > 10*time.Millisecond }, time.Second, time.Millisecond)
	assert.True(t, ok)

	ok = WaitForCondition(t, func() bool { return false }, 20*time.Millisecond, 5*time.Millisecond)
	assert.False(t, ok)
}
