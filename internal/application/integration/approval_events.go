package integration

import (
	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// AggregateTypeApprovalDocument identifies documents of the external approval workflow
const AggregateTypeApprovalDocument = "ApprovalDocument"

// Approval signal event types
const (
	EventTypeApprovalCompleted = "ApprovalCompleted"
	EventTypeApprovalRejected  = "ApprovalRejected"
)

// ApprovalCompletedEvent signals that an approval document was fully approved
type ApprovalCompletedEvent struct {
	shared.BaseDomainEvent
	DocID       string    `json:"doc_id"`
	FormKey     string    `json:"form_key"`
	PayloadJSON string    `json:"payload_json"`
	SubmitterID uuid.UUID `json:"submitter_id"`
	Title       string    `json:"title"`
}

// NewApprovalCompletedEvent creates an ApprovalCompletedEvent. The event ID is
// derived from the document ID, so redeliveries of the same signal share it.
func NewApprovalCompletedEvent(docID, formKey, payloadJSON string, submitterID uuid.UUID, title string) *ApprovalCompletedEvent {
	return &ApprovalCompletedEvent{
		BaseDomainEvent: shared.NewDeterministicDomainEvent(EventTypeApprovalCompleted, AggregateTypeApprovalDocument, documentUUID(docID), docID),
		DocID:           docID,
		FormKey:         formKey,
		PayloadJSON:     payloadJSON,
		SubmitterID:     submitterID,
		Title:           title,
	}
}

// ApprovalRejectedEvent signals that an approval document was rejected
type ApprovalRejectedEvent struct {
	shared.BaseDomainEvent
	DocID       string    `json:"doc_id"`
	FormKey     string    `json:"form_key"`
	PayloadJSON string    `json:"payload_json"`
	SubmitterID uuid.UUID `json:"submitter_id"`
	Comment     string    `json:"comment"`
}

// NewApprovalRejectedEvent creates an ApprovalRejectedEvent with a document-derived event ID
func NewApprovalRejectedEvent(docID, formKey, payloadJSON string, submitterID uuid.UUID, comment string) *ApprovalRejectedEvent {
	return &ApprovalRejectedEvent{
		BaseDomainEvent: shared.NewDeterministicDomainEvent(EventTypeApprovalRejected, AggregateTypeApprovalDocument, documentUUID(docID), docID),
		DocID:           docID,
		FormKey:         formKey,
		PayloadJSON:     payloadJSON,
		SubmitterID:     submitterID,
		Comment:         comment,
	}
}

// documentUUID maps an external document ID onto a UUID
func documentUUID(docID string) uuid.UUID {
	if id, err := uuid.Parse(docID); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("approval-document:"+docID))
}
