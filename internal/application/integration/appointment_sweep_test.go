package integration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/application/integration"
	"github.com/hrcore/promotion/internal/domain/appointment"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *bridgeFixture) schedule(t *testing.T, employeeNumber, payload string, effective time.Time) uuid.UUID {
	t.Helper()
	a, err := appointment.NewAppointment(employeeNumber, payload, effective)
	require.NoError(t, err)
	require.NoError(t, f.store.AppointmentRepo().Create(context.Background(), a))
	return a.ID
}

func TestSweepDue_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	f := newBridgeFixture(t)
	regular, candidateID := f.candidate(t, "E1", true)
	special := f.store.AddEmployee("E2", f.dept.ID, f.grades["주임"].ID, 0)

	regularID := f.schedule(t, "E1", regularPayload(candidateID), testutil.Date(2026, 12, 31))
	missingID := f.schedule(t, "E404", `{"jobTitle":"팀장"}`, testutil.Date(2027, 1, 1))
	specialID := f.schedule(t, "E2", `{"promotionType":"SPECIAL","targetGradeName":"대리","jobTitle":"팀장"}`, testutil.Date(2027, 1, 1))
	futureID := f.schedule(t, "E2", `{"jobTitle":"실장"}`, testutil.Date(2027, 1, 2))

	result, err := f.sweeper.SweepDue(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Due)
	assert.Equal(t, 2, result.Completed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, missingID, result.Failures[0].AppointmentID)

	assert.Equal(t, appointment.StatusComplete, f.store.Appointment(regularID).Status)
	assert.Equal(t, appointment.StatusComplete, f.store.Appointment(specialID).Status)
	failed := f.store.Appointment(missingID)
	assert.Equal(t, appointment.StatusFailed, failed.Status)
	assert.NotEmpty(t, failed.FailureReason)
	require.NotNil(t, failed.ProcessedAt)
	assert.Equal(t, appointment.StatusPending, f.store.Appointment(futureID).Status)

	assert.Equal(t, promotion.CandidateStatusFinalApproved, f.store.Candidate(candidateID).Status)
	assert.Equal(t, f.grades["과장"].ID, f.store.Employee(regular.ID).GradeID)
	assert.Equal(t, integration.SystemActorID, f.store.History(regular.ID)[0].ChangedBy)
	assert.Equal(t, f.grades["대리"].ID, f.store.Employee(special.ID).GradeID)
	assert.Equal(t, "팀장", f.store.Employee(special.ID).JobTitle)

	again, err := f.sweeper.SweepDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Due)
}

func TestSweepDue_LosesRaceAgainstLiveSignal(t *testing.T) {
	ctx := context.Background()
	f := newBridgeFixture(t)
	e, candidateID := f.candidate(t, "E1", true)
	appointmentID := f.schedule(t, "E1", regularPayload(candidateID), testutil.Date(2027, 1, 1))

	live := integration.NewApprovalCompletedEvent("DOC-1", appointment.FormKeyPersonnelAppointment, regularPayload(candidateID), uuid.New(), "")
	require.NoError(t, f.completed.Handle(ctx, live))

	result, err := f.sweeper.SweepDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	stored := f.store.Appointment(appointmentID)
	assert.Equal(t, appointment.StatusFailed, stored.Status)
	assert.Contains(t, stored.FailureReason, string(promotion.CandidateStatusFinalApproved))
	assert.Len(t, f.store.History(e.ID), 1)
}

func TestSweepDue_BadPayloadIsRecorded(t *testing.T) {
	f := newBridgeFixture(t)
	// rows written by other systems skip constructor validation
	a, err := appointment.NewAppointment("E1", `{}`, testutil.Date(2027, 1, 1))
	require.NoError(t, err)
	a.Payload = `{"promotionType":"LATERAL"}`
	require.NoError(t, f.store.AppointmentRepo().Create(context.Background(), a))

	result, err := f.sweeper.SweepDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, appointment.StatusFailed, f.store.Appointment(a.ID).Status)
}

func TestSweepDue_StopsOnCancelledContext(t *testing.T) {
	f := newBridgeFixture(t)
	f.schedule(t, "E1", `{"jobTitle":"팀장"}`, testutil.Date(2027, 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := f.sweeper.SweepDue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Completed)
}

func TestSweepDue_DrainsBacklogAcrossBatches(t *testing.T) {
	f := newBridgeFixture(t)
	var ids []uuid.UUID
	for i, number := range []string{"E1", "E2", "E3"} {
		f.store.AddEmployee(number, f.dept.ID, f.grades["주임"].ID, 0)
		ids = append(ids, f.schedule(t, number, `{"jobTitle":"팀장"}`, testutil.Date(2026, 12, 29+i)))
	}
	f.sweeper.SetBatchSize(2)

	result, err := f.sweeper.SweepDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Due)
	assert.Equal(t, 3, result.Completed)
	assert.Zero(t, result.Failed)
	for _, id := range ids {
		assert.Equal(t, appointment.StatusComplete, f.store.Appointment(id).Status)
	}
}

func TestSweepDue_StopsWhenFailuresCannotBeRecorded(t *testing.T) {
	f := newBridgeFixture(t)
	for _, number := range []string{"E404", "E405", "E406"} {
		f.schedule(t, number, `{"jobTitle":"팀장"}`, testutil.Date(2027, 1, 1))
	}
	f.store.UpdateAppointmentErr = errors.New("appointment table is read-only")
	f.sweeper.SetBatchSize(2)

	result, err := f.sweeper.SweepDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Due)
	assert.Equal(t, 2, result.Failed)
	assert.Zero(t, result.Completed)
}
