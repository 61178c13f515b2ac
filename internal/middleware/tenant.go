package middleware

import (
	"net/http"

	"github.com/atinyakov/go-link-gate/internal/app/service"
)

// TenantDispatch sends every request whose host is not the canonical domain
// to resolve, ahead of all management routes. Malformed hosts go there as
// well so they get the same response as any other resolution.
func TenantDispatch(canonicalDomain string, resolve http.Handler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if service.ClassifyHost(r.Host, canonicalDomain).Kind == service.HostCanonical {
				next.ServeHTTP(w, r)
				return
			}
			resolve.ServeHTTP(w, r)
		})
	}
}
