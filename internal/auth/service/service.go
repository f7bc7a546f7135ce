// Package service resolves presented credentials into authorization verdicts.
//
// Every request passes the abuse guard first. Only requests from addresses that
// are not blocked reach the account registry, and every unsuccessful outcome is
// fed back to the guard. Banned accounts fail exactly like unknown credentials.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"syncauth/internal/auth/metrics"
	"syncauth/internal/auth/models"
	"syncauth/internal/auth/tracer"
	"syncauth/pkg/platform/audit"
)

// AccountRegistry looks up accounts.
// Error Contract: Find methods return a wrapped sentinel.ErrNotFound when no
// account matches; any other error is an infrastructure failure.
type AccountRegistry interface {
	FindByCredentialHash(ctx context.Context, hashedKey string) (*models.Account, error)
	FindByUID(ctx context.Context, uid string) (*models.Account, error)
}

// Guard tracks failures per source address and refuses blocked addresses.
type Guard interface {
	ShouldReject(ctx context.Context, address string) bool
	RecordFailure(ctx context.Context, address string)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Authenticator struct {
	accounts       AccountRegistry
	guard          Guard
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         tracer.Tracer
	auditPublisher AuditPublisher
}

type Option func(*Authenticator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(a *Authenticator) {
		a.tracer = t
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(a *Authenticator) {
		a.auditPublisher = publisher
	}
}

func New(accounts AccountRegistry, guard Guard, opts ...Option) (*Authenticator, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account registry is required")
	}
	if guard == nil {
		return nil, fmt.Errorf("abuse guard is required")
	}
	a := &Authenticator{
		accounts: accounts,
		guard:    guard,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.tracer == nil {
		a.tracer = tracer.NewNoop()
	}
	return a, nil
}
