// Package abuseguard rejects authorization attempts from source addresses that
// keep failing, before any registry lookup happens.
//
// Each failing address gets a counter. Once the counter exceeds the configured
// threshold the address is blocked, and a single timer is scheduled for the
// configured duration. Further failures while blocked still count but never
// extend the block. When the timer fires the address record is deleted, so the
// next failure starts again at 1.
//
// The guard does no I/O: counters live in a sharded in-memory store and the
// tunables come from a config.Provider snapshot.
package abuseguard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"syncauth/internal/ratelimit/config"
	"syncauth/internal/ratelimit/metrics"
	"syncauth/internal/ratelimit/models"
	"syncauth/internal/ratelimit/store/failures"
	"syncauth/pkg/platform/audit"
	"syncauth/pkg/requestcontext"
)

const (
	rejectReasonMissingAddress = "missing_address"
	rejectReasonTempBan        = "temp_ban"
)

// Store is the per-address failure state the guard drives.
type Store interface {
	RecordFailure(address string, threshold int, now time.Time, duration time.Duration, arm failures.ArmFunc) failures.Outcome
	ArmIfExceeded(address string, threshold int, now time.Time, duration time.Duration, arm failures.ArmFunc) (failures.Outcome, bool)
	Expire(address string, generation uint64) bool
	Clear(address string) bool
	Get(address string) (models.FailureRecord, bool)
	Len() int
}

type Guard struct {
	store    Store
	settings config.Provider
	clock    Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  audit.Emitter
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(g *Guard) {
		g.auditor = publisher
	}
}

// WithClock replaces the system clock, mainly so tests can drive expiry.
func WithClock(clock Clock) Option {
	return func(g *Guard) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func New(store Store, settings config.Provider, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, fmt.Errorf("failure store is required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings provider is required")
	}

	g := &Guard{
		store:    store,
		settings: settings,
		clock:    systemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ShouldReject reports whether a request from address must be refused before
// any registry lookup. An empty address is always refused: a request we cannot
// attribute must not bypass the guard.
//
// The only possible side effect is scheduling the expiry for an address that
// already exceeds the threshold but has none pending, which happens when the
// threshold is lowered at runtime.
func (g *Guard) ShouldReject(ctx context.Context, address string) bool {
	if address == "" {
		g.countRejected(rejectReasonMissingAddress)
		return true
	}

	threshold := g.settings.FailedAuthThreshold()
	duration := g.settings.TempBanDuration()
	out, exists := g.store.ArmIfExceeded(address, threshold, g.clock.Now(), duration, g.armFunc(duration))
	if !exists {
		return false
	}
	if out.Armed {
		g.onTempBan(ctx, out.Record)
	}
	if !out.Record.Blocked || !out.Record.Exceeds(threshold) {
		return false
	}

	g.countRejected(rejectReasonTempBan)
	return true
}

// RecordFailure counts a failed authorization from address. Whitelisted
// addresses are never tracked. Crossing the threshold blocks the address.
func (g *Guard) RecordFailure(ctx context.Context, address string) {
	if address == "" || g.isWhitelisted(address) {
		return
	}

	duration := g.settings.TempBanDuration()
	out := g.store.RecordFailure(address, g.settings.FailedAuthThreshold(), g.clock.Now(), duration, g.armFunc(duration))
	if !out.Tracked {
		g.logger.WarnContext(ctx, "failure not tracked, address cap reached",
			"address", address,
			"request_id", requestcontext.RequestID(ctx),
		)
		if g.metrics != nil {
			g.metrics.IncrementUntracked()
		}
		return
	}

	if g.metrics != nil {
		g.metrics.IncrementFailuresRecorded()
		// An eviction makes room for the new record, leaving the count unchanged.
		if out.Created && out.Evicted == "" {
			g.metrics.AbuseGuardTrackedAddresses.Inc()
		}
	}
	if out.Evicted != "" {
		g.logger.DebugContext(ctx, "evicted unblocked address to make room", "evicted", out.Evicted)
	}
	if out.Armed {
		g.onTempBan(ctx, out.Record)
	}
}

// Snapshot returns the current failure record for address.
func (g *Guard) Snapshot(address string) (models.FailureRecord, bool) {
	return g.store.Get(address)
}

// Clear lifts any block on address and resets its counter.
func (g *Guard) Clear(ctx context.Context, address string) bool {
	if !g.store.Clear(address) {
		return false
	}
	if g.metrics != nil {
		g.metrics.AbuseGuardTrackedAddresses.Dec()
	}
	g.logAudit(ctx, audit.EventAddressBlockCleared, address)
	return true
}

// Tracked returns the number of addresses with a failure record.
func (g *Guard) Tracked() int {
	return g.store.Len()
}

func (g *Guard) armFunc(duration time.Duration) failures.ArmFunc {
	return func(address string, generation uint64) failures.Timer {
		return g.clock.AfterFunc(duration, func() {
			g.expire(address, generation)
		})
	}
}

func (g *Guard) expire(address string, generation uint64) {
	if !g.store.Expire(address, generation) {
		return
	}
	if g.metrics != nil {
		g.metrics.IncrementBlockExpiries()
		g.metrics.AbuseGuardTrackedAddresses.Dec()
	}
	g.logAudit(context.Background(), audit.EventAddressBlockExpired, address)
}

func (g *Guard) onTempBan(ctx context.Context, record models.FailureRecord) {
	g.logger.WarnContext(ctx, "temp ban for authorization spam",
		"address", record.Address,
		"failures", record.Failures,
		"expires_at", record.ExpiresAt,
	)
	if g.metrics != nil {
		g.metrics.IncrementTempBans()
	}
	g.logAudit(ctx, audit.EventAddressTempBanned, record.Address)
}

func (g *Guard) isWhitelisted(address string) bool {
	for _, entry := range g.settings.WhitelistedAddresses() {
		// An empty entry would match every address.
		if entry == "" {
			continue
		}
		if containsFold(address, entry) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (g *Guard) countRejected(reason string) {
	if g.metrics != nil {
		g.metrics.IncrementRejected(reason)
	}
}

// logAudit emits event to the audit publisher and falls back to a log line
// when there is none or it refuses the event.
func (g *Guard) logAudit(ctx context.Context, event audit.AuditEvent, address string) {
	requestID := requestcontext.RequestID(ctx)
	if g.auditor != nil {
		err := g.auditor.Emit(ctx, audit.Event{
			Timestamp: g.clock.Now(),
			Action:    event.String(),
			Address:   address,
			RequestID: requestID,
		})
		if err == nil {
			return
		}
		g.logger.WarnContext(ctx, "failed to emit audit event", "event", event.String(), "error", err)
	}
	g.logger.InfoContext(ctx, event.String(),
		"event", event.String(),
		"log_type", "audit",
		"address", address,
		"request_id", requestID,
	)
}
