package messaging

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/application/integration"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// Signal kinds published by the approval workflow
const (
	SignalApprovalCompleted = "APPROVAL_COMPLETED"
	SignalApprovalRejected  = "APPROVAL_REJECTED"
)

// ErrMalformedSignal marks a message that can never be decoded
var ErrMalformedSignal = shared.NewDomainError("MALFORMED_SIGNAL", "Approval signal cannot be decoded")

// ApprovalEnvelope is the JSON value of an approval topic message.
// Payload carries the document body either as a JSON object or as a string.
type ApprovalEnvelope struct {
	Signal      string          `json:"signal"`
	DocID       string          `json:"docId"`
	FormKey     string          `json:"formKey"`
	Payload     json.RawMessage `json:"payload"`
	SubmitterID uuid.UUID       `json:"submitterId"`
	Title       string          `json:"title,omitempty"`
	Comment     string          `json:"comment,omitempty"`
}

// DecodeApprovalSignal turns a message value into the matching approval event
func DecodeApprovalSignal(value []byte) (shared.DomainEvent, error) {
	var env ApprovalEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, shared.NewDomainError(ErrMalformedSignal.Code, fmt.Sprintf("Cannot decode envelope: %v", err))
	}
	if strings.TrimSpace(env.DocID) == "" {
		return nil, shared.NewDomainError(ErrMalformedSignal.Code, "Signal has no docId")
	}
	payload, err := env.payloadJSON()
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(env.Signal) {
	case SignalApprovalCompleted:
		return integration.NewApprovalCompletedEvent(env.DocID, env.FormKey, payload, env.SubmitterID, env.Title), nil
	case SignalApprovalRejected:
		return integration.NewApprovalRejectedEvent(env.DocID, env.FormKey, payload, env.SubmitterID, env.Comment), nil
	default:
		return nil, shared.NewDomainError(ErrMalformedSignal.Code, fmt.Sprintf("Unknown signal %q", env.Signal))
	}
}

func (e ApprovalEnvelope) payloadJSON() (string, error) {
	raw := strings.TrimSpace(string(e.Payload))
	if raw == "" || raw == "null" {
		return "{}", nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(e.Payload, &s); err != nil {
		return "", shared.NewDomainError(ErrMalformedSignal.Code, fmt.Sprintf("Cannot decode payload string: %v", err))
	}
	return s, nil
}
