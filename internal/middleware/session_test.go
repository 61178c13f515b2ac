package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/mocks"
	"github.com/atinyakov/go-link-gate/internal/models"
)

func TestInjectPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	p := models.Principal{Name: "alice", Role: models.RoleUser}

	got, ok := PrincipalFrom(InjectPrincipal(req, p).Context())
	require.True(t, ok)
	require.Equal(t, p, got)

	_, ok = PrincipalFrom(req.Context())
	require.False(t, ok)
}

func TestWithPrincipal(t *testing.T) {
	t.Run("no cookie passes through anonymous", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockAuth := mocks.NewMockAuthIface(ctrl)

		var anonymous bool
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := PrincipalFrom(r.Context())
			anonymous = !ok
		})

		rec := httptest.NewRecorder()
		WithPrincipal(mockAuth)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.True(t, anonymous)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("valid cookie injects principal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockAuth := mocks.NewMockAuthIface(ctrl)

		cookie := &http.Cookie{Name: SessionCookie, Value: "valid-token"}
		mockAuth.EXPECT().
			ParseClaims(gomock.Any()).
			Return(&service.Claims{Name: "alice", Role: models.RoleAdmin}, nil)

		var got models.Principal
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = PrincipalFrom(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		WithPrincipal(mockAuth)(handler).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, models.Principal{Name: "alice", Role: models.RoleAdmin}, got)
	})

	t.Run("invalid cookie is cleared", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockAuth := mocks.NewMockAuthIface(ctrl)

		mockAuth.EXPECT().
			ParseClaims(gomock.Any()).
			Return(nil, errors.New("bad signature"))

		called := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, ok := PrincipalFrom(r.Context())
			assert.False(t, ok)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"})
		rec := httptest.NewRecorder()
		WithPrincipal(mockAuth)(handler).ServeHTTP(rec, req)

		assert.True(t, called)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookie, cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestSetSession(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSession(rec, "token", true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}
