// Package server assembles the HTTP router of the link service.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/app/handler"
	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/metrics"
	"github.com/atinyakov/go-link-gate/internal/middleware"
)

// Deps are the collaborators of the router.
type Deps struct {
	Resolver service.ResolverIface
	Links    service.LinkServiceIface
	Accounts service.AccountServiceIface
	Auth     service.AuthIface

	// Visits receives one record per counted resolution, may be nil.
	Visits handler.VisitSink

	CanonicalDomain string
	TrustedSubnet   string
	SecureCookies   bool
	Logger          *zap.Logger
}

// Init builds the router. Requests for any host other than the canonical
// domain are resolved before routing; on the canonical host the management
// routes are matched first and GET /{code} last.
func Init(d Deps) *chi.Mux {
	views := handler.NewViews(d.Logger)
	resolve := handler.NewResolve(d.Resolver, d.Visits, views, d.Logger)
	pages := handler.NewPages(d.Accounts, d.Links, d.Auth, views, d.Logger, d.SecureCookies)
	api := handler.NewAPI(d.Links, d.Logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithRequestLogging(d.Logger))
	r.Use(chimw.Compress(5, "text/html", "text/plain", "application/json"))
	r.Use(chimw.GetHead)
	r.Use(middleware.TenantDispatch(d.CanonicalDomain, resolve))
	r.Use(middleware.WithPrincipal(d.Auth))

	r.Get("/", pages.LoginPage)
	r.Get("/register", pages.RegisterPage)
	r.Post("/register", pages.Register)
	r.Post("/login", pages.Login)
	r.Get("/logout", pages.Logout)
	r.Get("/ping", api.PingDB)

	r.With(middleware.WithSubnet(d.TrustedSubnet)).Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated(d.Accounts, d.Logger))
		r.Get("/dashboard", pages.Dashboard)
		r.Post("/shorten", pages.Shorten)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated(d.Accounts, d.Logger))
		r.Use(middleware.RequireAdministrator)
		r.Get("/", pages.Admin)
		r.Post("/approve/{name}", pages.Approve)
		r.Post("/plan/{name}", pages.SetPlan)
		r.Post("/delete/{name}", pages.Delete)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuthenticatedAPI(d.Accounts, d.Logger))
		r.Post("/links", api.CreateLink)
		r.Get("/links", api.ListLinks)
	})

	r.Get("/{code}", resolve.ServeHTTP)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, handler.OfferNotFoundText, http.StatusNotFound)
	})

	return r
}
