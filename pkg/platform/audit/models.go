package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	// Address is the source address the action concerns, when known.
	Address string `json:"address,omitempty"`
	// Subject is the account UID, when known.
	Subject   string `json:"subject,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventAuthSucceeded       AuditEvent = "auth_succeeded"
	EventAuthFailed          AuditEvent = "auth_failed"
	EventAddressTempBanned   AuditEvent = "address_temp_banned"
	EventAddressBlockExpired AuditEvent = "address_block_expired"
	EventAddressBlockCleared AuditEvent = "address_block_cleared"
)

func (e AuditEvent) String() string {
	return string(e)
}

// Emitter is the narrow interface domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
