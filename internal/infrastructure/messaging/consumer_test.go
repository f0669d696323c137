package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/application/integration"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
	applog "github.com/hrcore/promotion/internal/infrastructure/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeReader serves queued messages, then io.EOF
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(r.queue) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

// scriptedPublisher returns the scripted errors in order, then nil
type scriptedPublisher struct {
	mu        sync.Mutex
	errs      []error
	published []shared.DomainEvent
	docIDs    []string
	onPublish func()
}

func (p *scriptedPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, events...)
	p.docIDs = append(p.docIDs, applog.DocID(ctx))
	if p.onPublish != nil {
		p.onPublish()
	}
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func completedSignal(offset int64, docID string) kafka.Message {
	value := fmt.Sprintf(`{"signal":"APPROVAL_COMPLETED","docId":%q,"formKey":"PERSONNEL_APPOINTMENT","payload":{"jobTitle":"Lead"},"submitterId":%q}`,
		docID, uuid.New())
	return kafka.Message{Topic: "approval.document.events", Offset: offset, Value: []byte(value)}
}

func TestApprovalConsumer_CommitsHandledSignals(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		completedSignal(1, "DOC-1"),
		{Offset: 2, Value: []byte(`not json`)},
		completedSignal(3, "DOC-3"),
	}}
	publisher := &scriptedPublisher{}
	consumer := NewApprovalConsumer(reader, publisher, time.Millisecond, zaptest.NewLogger(t))

	require.NoError(t, consumer.Run(context.Background()))

	assert.Equal(t, []int64{1, 2, 3}, reader.Committed(), "undecodable signal is skipped, not retried")
	require.Len(t, publisher.published, 2)
	first, ok := publisher.published[0].(*integration.ApprovalCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "DOC-1", first.DocID)
	assert.JSONEq(t, `{"jobTitle":"Lead"}`, first.PayloadJSON)
	assert.Equal(t, []string{"DOC-1", "DOC-3"}, publisher.docIDs, "handlers see the document in ctx")

	require.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}

func TestApprovalConsumer_RetriesTransientFailures(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{completedSignal(7, "DOC-7")}}
	publisher := &scriptedPublisher{errs: []error{
		errors.New("connection reset"),
		fmt.Errorf("apply: %w", shared.ErrConcurrencyConflict),
	}}
	consumer := NewApprovalConsumer(reader, publisher, time.Millisecond, zaptest.NewLogger(t))

	require.NoError(t, consumer.Run(context.Background()))

	assert.Len(t, publisher.published, 3)
	assert.Equal(t, []int64{7}, reader.Committed())
}

func TestApprovalConsumer_SkipsPermanentFailures(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{completedSignal(4, "DOC-4")}}
	publisher := &scriptedPublisher{errs: []error{
		shared.NewDomainError(shared.ErrInvalidState.Code, "Cannot finalize candidate in FINAL_APPROVED status"),
	}}
	consumer := NewApprovalConsumer(reader, publisher, time.Millisecond, zaptest.NewLogger(t))

	require.NoError(t, consumer.Run(context.Background()))

	assert.Len(t, publisher.published, 1)
	assert.Equal(t, []int64{4}, reader.Committed())
}

func TestApprovalConsumer_StopsDuringBackoffWithoutCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{queue: []kafka.Message{completedSignal(9, "DOC-9")}}
	publisher := &scriptedPublisher{
		errs:      []error{errors.New("db down")},
		onPublish: cancel,
	}
	consumer := NewApprovalConsumer(reader, publisher, time.Hour, zaptest.NewLogger(t))

	require.NoError(t, consumer.Run(ctx))
	assert.Empty(t, reader.Committed())
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"infrastructure", errors.New("dial tcp: refused"), true},
		{"wrapped infrastructure", fmt.Errorf("failed to load grade ladder: %w", io.ErrUnexpectedEOF), true},
		{"state conflict", promotion.ErrQuotaExceeded, false},
		{"wrapped not found", fmt.Errorf("resolve: %w", promotion.ErrCandidateNotFound), false},
		{"lost race", shared.ErrConcurrencyConflict, true},
		{"joined permanent", errors.Join(promotion.ErrPlanFinished, shared.ErrInvalidState), false},
		{"joined with transient", errors.Join(shared.ErrInvalidState, errors.New("timeout")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
