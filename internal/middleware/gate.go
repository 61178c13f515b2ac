package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

// AccountFinder fetches the current state of an account.
type AccountFinder interface {
	Find(ctx context.Context, name string) (*models.Account, error)
}

// RequireAuthenticated lets a request through only when its principal still
// maps to an existing approved account. Otherwise the session is cleared and
// the client is sent to the login page. The fresh account is stored under
// AccountKey.
func RequireAuthenticated(accounts AccountFinder, logger *zap.Logger) func(next http.Handler) http.Handler {
	return gate(accounts, logger, func(w http.ResponseWriter, r *http.Request) {
		ClearSession(w)
		http.Redirect(w, r, "/", http.StatusFound)
	})
}

// RequireAuthenticatedAPI is RequireAuthenticated for JSON clients: it answers
// 401 instead of redirecting.
func RequireAuthenticatedAPI(accounts AccountFinder, logger *zap.Logger) func(next http.Handler) http.Handler {
	return gate(accounts, logger, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	})
}

func gate(accounts AccountFinder, logger *zap.Logger, deny http.HandlerFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				deny(w, r)
				return
			}

			account, err := accounts.Find(r.Context(), p.Name)
			if errors.Is(err, storage.ErrNotFound) {
				logger.Info("session for missing account", zap.String("name", p.Name))
				deny(w, r)
				return
			}
			if err != nil {
				logger.Error("cannot load account", zap.String("name", p.Name), zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if !account.Approved {
				logger.Info("session for unapproved account", zap.String("name", p.Name))
				deny(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdministrator must run after RequireAuthenticated. It checks the
// role of the fresh account, never the role cached in the session.
func RequireAdministrator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFrom(r.Context())
		if !ok || !account.IsAdmin() {
			http.Error(w, "Access Denied: Admins Only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
