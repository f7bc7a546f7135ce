package service

import (
	"context"
	"errors"
	"time"

	"syncauth/internal/auth/models"
	"syncauth/internal/auth/tracer"
	"syncauth/internal/platform/privacy"
	dErrors "syncauth/pkg/domain-errors"
	"syncauth/pkg/platform/sentinel"
)

const (
	methodKey    = "key"
	methodLinked = "linked"

	lookupCredentialHash = "credential_hash"
	lookupUID            = "uid"
	lookupPrimary        = "primary"

	reasonUnknownCredential = "unknown_credential"
	reasonUnknownPrimary    = "unknown_primary"
	reasonUnknownRequested  = "unknown_requested"
	reasonBanned            = "banned"
)

// AuthorizeByKey authorizes the account owning hashedKey.
// A nil error always comes with a verdict; an error means the registry failed.
func (a *Authenticator) AuthorizeByKey(ctx context.Context, address, hashedKey string) (*models.Verdict, error) {
	start := time.Now()
	a.countRequest()

	ctx, span := a.tracer.Start(ctx, tracer.SpanAuthorizeKey,
		tracer.String(tracer.AttrAddress, privacy.AnonymizeIP(address)),
		tracer.String(tracer.AttrCredential, tracer.HashCredential(hashedKey)),
	)
	verdict, err := a.authorizeByKey(ctx, address, hashedKey)
	a.finish(span, methodKey, start, verdict, err)
	return verdict, err
}

func (a *Authenticator) authorizeByKey(ctx context.Context, address, hashedKey string) (*models.Verdict, error) {
	if a.guard.ShouldReject(ctx, address) {
		return a.blocked(ctx, address), nil
	}

	account, err := a.lookup(ctx, lookupCredentialHash, func(ctx context.Context) (*models.Account, error) {
		return a.accounts.FindByCredentialHash(ctx, hashedKey)
	})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return a.fail(ctx, address, reasonUnknownCredential, ""), nil
	}
	return a.resolve(ctx, address, account)
}

// AuthorizeByLinkedIdentity authorizes requestedUID on behalf of primaryUID,
// whose identity was already verified by an external provider. requestedUID
// may be any account, typically one of the primary's secondaries.
func (a *Authenticator) AuthorizeByLinkedIdentity(ctx context.Context, address, primaryUID, requestedUID string) (*models.Verdict, error) {
	start := time.Now()
	a.countRequest()

	ctx, span := a.tracer.Start(ctx, tracer.SpanAuthorizeLinked,
		tracer.String(tracer.AttrAddress, privacy.AnonymizeIP(address)),
		tracer.String(tracer.AttrPrimaryUID, primaryUID),
		tracer.String(tracer.AttrRequestedUID, requestedUID),
	)
	verdict, err := a.authorizeByLinkedIdentity(ctx, address, primaryUID, requestedUID)
	a.finish(span, methodLinked, start, verdict, err)
	return verdict, err
}

func (a *Authenticator) authorizeByLinkedIdentity(ctx context.Context, address, primaryUID, requestedUID string) (*models.Verdict, error) {
	if a.guard.ShouldReject(ctx, address) {
		return a.blocked(ctx, address), nil
	}

	primary, err := a.lookup(ctx, lookupUID, func(ctx context.Context) (*models.Account, error) {
		return a.accounts.FindByUID(ctx, primaryUID)
	})
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return a.fail(ctx, address, reasonUnknownPrimary, primaryUID), nil
	}

	account, err := a.lookup(ctx, lookupUID, func(ctx context.Context) (*models.Account, error) {
		return a.accounts.FindByUID(ctx, requestedUID)
	})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return a.fail(ctx, address, reasonUnknownRequested, requestedUID), nil
	}
	return a.resolve(ctx, address, account)
}

// resolve applies ban propagation from the account's primary and produces
// the verdict. The ban state never leaves this function on the failure path.
func (a *Authenticator) resolve(ctx context.Context, address string, account *models.Account) (*models.Verdict, error) {
	state := models.BanState{}.Merge(account)

	if account.IsSecondary() {
		primary, err := a.lookup(ctx, lookupPrimary, func(ctx context.Context) (*models.Account, error) {
			return a.accounts.FindByUID(ctx, account.PrimaryUID)
		})
		if err != nil {
			return nil, err
		}
		if primary == nil {
			a.logger.ErrorContext(ctx, "secondary account links to a missing primary",
				"uid", account.UID,
				"primary_uid", account.PrimaryUID,
			)
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "account links to a missing primary")
		}
		state = state.Merge(primary)
	}

	if !state.Clean() {
		return a.fail(ctx, address, reasonBanned, account.UID), nil
	}
	return a.succeed(ctx, address, account), nil
}

// lookup runs a registry query. A missing account is (nil, nil); any other
// failure becomes an internal domain error.
func (a *Authenticator) lookup(ctx context.Context, name string, find func(context.Context) (*models.Account, error)) (*models.Account, error) {
	ctx, span := a.tracer.Start(ctx, tracer.SpanRegistryLookup, tracer.String(tracer.AttrLookup, name))
	account, err := find(ctx)
	if err == nil {
		span.End(nil)
		return account, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		span.End(nil)
		return nil, nil
	}

	span.End(err)
	if a.metrics != nil {
		a.metrics.IncrementRegistryErrors(name)
	}
	a.logger.ErrorContext(ctx, "account registry lookup failed", "lookup", name, "error", err)
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account registry unavailable")
}
