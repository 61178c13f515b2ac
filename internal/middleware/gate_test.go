package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/mocks"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

func gatedRequest(p *models.Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if p != nil {
		req = InjectPrincipal(req, *p)
	}
	return req
}

func TestRequireAuthenticated(t *testing.T) {
	alice := &models.Principal{Name: "alice", Role: models.RoleUser}

	tests := []struct {
		name      string
		principal *models.Principal
		account   *models.Account
		err       error
		status    int
		cleared   bool
	}{
		{name: "anonymous", principal: nil, status: http.StatusFound, cleared: true},
		{name: "approved", principal: alice, account: &models.Account{Name: "alice", Approved: true}, status: http.StatusOK},
		{name: "approval revoked", principal: alice, account: &models.Account{Name: "alice", Approved: false}, status: http.StatusFound, cleared: true},
		{name: "account deleted", principal: alice, err: storage.ErrNotFound, status: http.StatusFound, cleared: true},
		{name: "directory down", principal: alice, err: errors.New("timeout"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			accounts := mocks.NewMockAccountServiceIface(ctrl)
			if tt.principal != nil {
				accounts.EXPECT().Find(gomock.Any(), tt.principal.Name).Return(tt.account, tt.err)
			}

			var seen *models.Account
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = AccountFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			RequireAuthenticated(accounts, zap.NewNop())(next).ServeHTTP(rec, gatedRequest(tt.principal))

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusFound {
				assert.Equal(t, "/", rec.Header().Get("Location"))
			}
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.account, seen)
			}
			if tt.cleared {
				cookies := rec.Result().Cookies()
				require.Len(t, cookies, 1)
				assert.Equal(t, SessionCookie, cookies[0].Name)
			}
		})
	}
}

func TestRequireAuthenticatedAPI(t *testing.T) {
	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAccountServiceIface(ctrl)

	rec := httptest.NewRecorder()
	RequireAuthenticatedAPI(accounts, zap.NewNop())(http.NotFoundHandler()).ServeHTTP(rec, gatedRequest(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdministrator(t *testing.T) {
	tests := []struct {
		name      string
		principal models.Principal
		account   *models.Account
		status    int
	}{
		{
			name:      "admin",
			principal: models.Principal{Name: "root", Role: models.RoleAdmin},
			account:   &models.Account{Name: "root", Role: models.RoleAdmin, Approved: true},
			status:    http.StatusOK,
		},
		{
			name:      "standard user",
			principal: models.Principal{Name: "alice", Role: models.RoleUser},
			account:   &models.Account{Name: "alice", Role: models.RoleUser, Approved: true},
			status:    http.StatusForbidden,
		},
		{
			name:      "demoted admin with stale session",
			principal: models.Principal{Name: "root", Role: models.RoleAdmin},
			account:   &models.Account{Name: "root", Role: models.RoleUser, Approved: true},
			status:    http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			accounts := mocks.NewMockAccountServiceIface(ctrl)
			accounts.EXPECT().Find(gomock.Any(), tt.principal.Name).Return(tt.account, nil)

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			h := RequireAuthenticated(accounts, zap.NewNop())(RequireAdministrator(next))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, gatedRequest(&tt.principal))

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "Access Denied: Admins Only")
			}
		})
	}
}

func TestRequireAdministrator_WithoutGate(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAdministrator(http.NotFoundHandler()).ServeHTTP(rec, gatedRequest(nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
