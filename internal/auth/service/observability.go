package service

import (
	"context"
	"time"

	"syncauth/internal/auth/models"
	"syncauth/internal/auth/tracer"
	"syncauth/pkg/platform/audit"
	"syncauth/pkg/requestcontext"
)

func (a *Authenticator) countRequest() {
	if a.metrics != nil {
		a.metrics.IncrementRequests()
	}
}

func (a *Authenticator) blocked(ctx context.Context, address string) *models.Verdict {
	if a.metrics != nil {
		a.metrics.IncrementTemporarilyBlocked()
	}
	a.logger.DebugContext(ctx, "authorization refused for blocked address", "address", address)
	return models.BlockedVerdict()
}

func (a *Authenticator) succeed(ctx context.Context, address string, account *models.Account) *models.Verdict {
	if a.metrics != nil {
		a.metrics.IncrementSuccesses()
		a.metrics.IncrementActiveSessions()
	}
	a.logAudit(ctx, audit.EventAuthSucceeded, address, account.UID, "")
	return models.SuccessVerdict(account)
}

// fail records the failure against the source address. The returned verdict
// is the same for every reason.
func (a *Authenticator) fail(ctx context.Context, address, reason, subject string) *models.Verdict {
	a.guard.RecordFailure(ctx, address)
	if a.metrics != nil {
		a.metrics.IncrementFailures()
	}
	a.logger.WarnContext(ctx, "failed authorization", "address", address)
	a.logAudit(ctx, audit.EventAuthFailed, address, subject, reason)
	return models.FailureVerdict()
}

func (a *Authenticator) finish(span tracer.Span, method string, start time.Time, verdict *models.Verdict, err error) {
	if verdict != nil {
		span.SetAttributes(
			tracer.Bool(tracer.AttrSuccess, verdict.Success),
			tracer.Bool(tracer.AttrTempBlocked, verdict.TemporarilyBlocked),
		)
		if verdict.Success {
			span.SetAttributes(tracer.String(tracer.AttrUID, verdict.UID))
		}
	}
	span.End(err)
	if a.metrics != nil {
		a.metrics.ObserveAuthorizeDuration(method, float64(time.Since(start).Milliseconds()))
	}
}

// logAudit hands the event to the audit publisher, whose log sink records
// it. Without a publisher, or when it refuses the event, the event is logged
// here instead. The reason never reaches the caller-facing verdict.
func (a *Authenticator) logAudit(ctx context.Context, event audit.AuditEvent, address, subject, reason string) {
	requestID := requestcontext.RequestID(ctx)
	if a.auditPublisher != nil {
		err := a.auditPublisher.Emit(ctx, audit.Event{
			Timestamp: time.Now(),
			Action:    event.String(),
			Address:   address,
			Subject:   subject,
			Reason:    reason,
			RequestID: requestID,
		})
		if err == nil {
			return
		}
		a.logger.ErrorContext(ctx, "failed to emit audit event", "event", event.String(), "error", err)
	}

	attributes := []any{"event", event.String(), "log_type", "audit", "address", address}
	if subject != "" {
		attributes = append(attributes, "uid", subject)
	}
	if reason != "" {
		attributes = append(attributes, "reason", reason)
	}
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	a.logger.InfoContext(ctx, event.String(), attributes...)
}
