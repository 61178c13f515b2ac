package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/models"
)

// ContextKey is a custom type used for keys in the context.
type ContextKey string

const (
	// PrincipalKey holds the models.Principal parsed from the session.
	PrincipalKey ContextKey = "principal"

	// AccountKey holds the freshly fetched *models.Account of the principal.
	AccountKey ContextKey = "account"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// InjectPrincipal adds p to the request context.
func InjectPrincipal(req *http.Request, p models.Principal) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), PrincipalKey, p))
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(models.Principal)
	return p, ok
}

// AccountFrom returns the account stored by the access gate.
func AccountFrom(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(AccountKey).(*models.Account)
	return a, ok && a != nil
}

// SetSession writes the session cookie.
func SetSession(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(service.TokenExp),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
}

// WithPrincipal parses the session cookie and injects the principal into the
// request context. Requests without a valid session pass through anonymous;
// an invalid cookie is cleared.
func WithPrincipal(auth service.AuthIface) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseClaims(cookie)
			if err != nil {
				ClearSession(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, InjectPrincipal(r, claims.Principal()))
		})
	}
}
