package service

import "github.com/atinyakov/go-link-gate/internal/models"

// OutcomeKind enumerates every way a resolution can end.
type OutcomeKind int

const (
	OutcomeFailure OutcomeKind = iota
	OutcomeNotFound
	OutcomeOfferNotFound
	OutcomeUnknownTenant
	OutcomeTenantInactive
	OutcomeTenantLanding
	OutcomeDirectRedirect
	OutcomeInterstitial
	OutcomeMalformedHost
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeFailure:        "failure",
	OutcomeNotFound:       "not_found",
	OutcomeOfferNotFound:  "offer_not_found",
	OutcomeUnknownTenant:  "unknown_tenant",
	OutcomeTenantInactive: "tenant_inactive",
	OutcomeTenantLanding:  "tenant_landing",
	OutcomeDirectRedirect: "direct_redirect",
	OutcomeInterstitial:   "interstitial",
	OutcomeMalformedHost:  "malformed_host",
}

func (k OutcomeKind) String() string {
	if s, ok := outcomeNames[k]; ok {
		return s
	}
	return "unknown"
}

// Outcome is the result of Resolver.Resolve.
type Outcome struct {
	Kind OutcomeKind

	// Destination is set for DirectRedirect and Interstitial.
	Destination string

	// Tenant is the account name of a tenant request, or the link owner.
	Tenant string

	// Link is the resolved link with its counter already incremented.
	Link *models.Link

	// Err carries the cause of a Failure for logging only.
	Err error
}

// Counted reports whether the outcome recorded a click.
func (o Outcome) Counted() bool {
	return o.Kind == OutcomeDirectRedirect || o.Kind == OutcomeInterstitial
}
