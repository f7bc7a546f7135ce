// Package tracer provides a small tracing abstraction for the authenticator.
//
// The authenticator depends on these interfaces rather than OpenTelemetry APIs
// directly. NoopTracer is for tests; OTelTracer is the production adapter.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span; the returned context carries it to child operations.
	//
	// Example:
	//   ctx, span := tr.Start(ctx, tracer.SpanAuthorizeKey,
	//       tracer.String(tracer.AttrCredential, tracer.HashCredential(key)),
	//   )
	//   defer span.End(nil)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashCredential returns a short SHA-256 fingerprint of a credential so traces
// can be correlated without carrying the credential itself.
func HashCredential(credential string) string {
	if credential == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(hash[:8])
}

// Span names used by the authenticator.
const (
	SpanAuthorizeKey    = "auth.authorize_key"
	SpanAuthorizeLinked = "auth.authorize_linked"
	SpanRegistryLookup  = "auth.registry.lookup"
)

// Attribute keys used by the authenticator.
const (
	AttrAddress       = "client.address"
	AttrCredential    = "credential.fingerprint"
	AttrUID           = "account.uid"
	AttrPrimaryUID    = "account.primary_uid"
	AttrRequestedUID  = "account.requested_uid"
	AttrLookup        = "lookup"
	AttrSuccess       = "success"
	AttrTempBlocked   = "temporarily_blocked"
	AttrFailureReason = "failure_reason"
)

// Event names used by the authenticator.
const (
	EventGuardRejected = "guard.rejected"
	EventFailureRecord = "guard.failure_recorded"
)
