package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/metrics"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

// ResolveTimeout bounds the store calls of one resolution.
const ResolveTimeout = 3 * time.Second

// Resolver turns an inbound host and path into an Outcome. It records the
// click before deciding how to redirect.
type Resolver struct {
	links     LinkStore
	accounts  AccountDirectory
	canonical string
	logger    *zap.Logger
}

func NewResolver(links LinkStore, accounts AccountDirectory, canonicalDomain string, logger *zap.Logger) *Resolver {
	return &Resolver{
		links:     links,
		accounts:  accounts,
		canonical: canonicalDomain,
		logger:    logger,
	}
}

// Resolve never returns an error: storage failures become OutcomeFailure.
func (r *Resolver) Resolve(ctx context.Context, host, path string) Outcome {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, ResolveTimeout)
	defer cancel()

	class := ClassifyHost(host, r.canonical)
	slug := strings.TrimPrefix(path, "/")

	var out Outcome
	switch class.Kind {
	case HostCanonical:
		out = r.resolveCanonical(ctx, slug)
	case HostTenant:
		out = r.resolveTenant(ctx, class.Tenant, slug)
	default:
		out = Outcome{Kind: OutcomeMalformedHost}
	}

	r.log(host, path, class, out)
	metrics.ObserveResolution(class.Kind.String(), out.Kind.String(), time.Since(start))

	return out
}

func (r *Resolver) resolveCanonical(ctx context.Context, code string) Outcome {
	if code == "" {
		return Outcome{Kind: OutcomeNotFound}
	}

	link, err := r.links.FindByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return Outcome{Kind: OutcomeNotFound}
	}
	if err != nil {
		return failure(err)
	}

	return r.settle(ctx, link, nil, false)
}

func (r *Resolver) resolveTenant(ctx context.Context, tenant, slug string) Outcome {
	account, err := r.accounts.FindByName(ctx, models.NormalizeName(tenant))
	if errors.Is(err, storage.ErrNotFound) {
		return Outcome{Kind: OutcomeUnknownTenant, Tenant: tenant}
	}
	if err != nil {
		return failure(err)
	}

	if !account.Approved {
		return Outcome{Kind: OutcomeTenantInactive, Tenant: account.Name}
	}

	if slug == "" {
		return Outcome{Kind: OutcomeTenantLanding, Tenant: account.Name}
	}

	link, err := r.links.FindByOwnerAndCode(ctx, account.Name, slug)
	if errors.Is(err, storage.ErrNotFound) {
		return Outcome{Kind: OutcomeOfferNotFound, Tenant: account.Name}
	}
	if err != nil {
		return failure(err)
	}

	return r.settle(ctx, link, account, true)
}

// settle counts the click and picks the redirect strategy. When ownerKnown is
// false the owner is fetched here; a missing owner is served as free.
func (r *Resolver) settle(ctx context.Context, link *models.Link, owner *models.Account, ownerKnown bool) Outcome {
	if err := r.links.IncrementClicks(ctx, link.ID); err != nil {
		return failure(err)
	}
	link.Clicks++

	if !ownerKnown {
		acc, err := r.accounts.FindByName(ctx, link.Owner)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			owner = nil
		case err != nil:
			return failure(err)
		default:
			owner = acc
		}
	}

	out := Outcome{
		Kind:        OutcomeInterstitial,
		Destination: link.Destination,
		Tenant:      link.Owner,
		Link:        link,
	}
	if owner.IsPremium() {
		out.Kind = OutcomeDirectRedirect
	}
	return out
}

func failure(err error) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err}
}

func (r *Resolver) log(host, path string, class HostClass, out Outcome) {
	fields := []zap.Field{
		zap.String("host", host),
		zap.String("path", path),
		zap.Stringer("class", class.Kind),
		zap.Stringer("outcome", out.Kind),
	}
	if out.Tenant != "" {
		fields = append(fields, zap.String("tenant", out.Tenant))
	}
	if out.Link != nil {
		fields = append(fields, zap.String("link_id", out.Link.ID))
	}

	if out.Kind == OutcomeFailure {
		r.logger.Error("resolution failed", append(fields, zap.Error(out.Err))...)
		return
	}
	r.logger.Debug("resolved", fields...)
}
