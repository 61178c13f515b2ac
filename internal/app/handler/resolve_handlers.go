package handler

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/middleware"
	"github.com/atinyakov/go-link-gate/internal/models"
)

// VisitSink accepts visits for the journal without blocking.
type VisitSink interface {
	Enqueue(v models.Visit) bool
}

// OfferNotFoundText is the body of every not-found resolution.
const OfferNotFoundText = "404 - Offer Not Found"

type ResolveHandler struct {
	resolver service.ResolverIface
	visits   VisitSink
	views    *Views
	logger   *zap.Logger
}

// NewResolve builds the handler of GET /{code} and of every tenant host
// request. visits may be nil.
func NewResolve(r service.ResolverIface, visits VisitSink, views *Views, l *zap.Logger) *ResolveHandler {
	return &ResolveHandler{
		resolver: r,
		visits:   visits,
		views:    views,
		logger:   l,
	}
}

func (h *ResolveHandler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		res.Header().Set("Allow", "GET, HEAD")
		http.Error(res, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	out := h.resolver.Resolve(req.Context(), req.Host, req.URL.Path)

	if out.Counted() && h.visits != nil {
		h.visits.Enqueue(visitFrom(req, out.Link))
	}

	h.Render(res, req, out)
}

// Render writes the HTTP response of an outcome.
func (h *ResolveHandler) Render(res http.ResponseWriter, req *http.Request, out service.Outcome) {
	switch out.Kind {
	case service.OutcomeDirectRedirect:
		http.Redirect(res, req, out.Destination, http.StatusFound)

	case service.OutcomeInterstitial:
		h.views.Render(res, http.StatusOK, "interstitial.html", map[string]any{
			"Title":       "Redirecting",
			"Destination": out.Destination,
			"Delay":       InterstitialDelay,
			"Refresh":     refreshable(out.Destination),
		})

	case service.OutcomeTenantLanding:
		h.views.Render(res, http.StatusOK, "landing.html", map[string]any{
			"Title":  out.Tenant,
			"Tenant": out.Tenant,
		})

	case service.OutcomeNotFound, service.OutcomeOfferNotFound:
		http.Error(res, OfferNotFoundText, http.StatusNotFound)

	case service.OutcomeUnknownTenant:
		http.Error(res, "404 - Unknown Tenant", http.StatusNotFound)

	case service.OutcomeTenantInactive:
		http.Error(res, "This account is not active yet", http.StatusForbidden)

	case service.OutcomeMalformedHost:
		http.Error(res, "Bad Request: malformed host", http.StatusBadRequest)

	default:
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// refreshable reports whether the destination may be followed by a meta
// refresh.
func refreshable(dst string) bool {
	u, err := url.Parse(dst)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func visitFrom(req *http.Request, l *models.Link) models.Visit {
	var ip string
	if addr := middleware.ClientIP(req); addr != nil {
		ip = addr.String()
	}
	return service.NewVisit(l, req.Referer(), req.UserAgent(), ip)
}
