package intercepters_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/intercepters"
	"github.com/atinyakov/go-link-gate/internal/middleware"
	"github.com/atinyakov/go-link-gate/internal/mocks"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

const guardedMethod = "/shortener.v1.Links/Shorten"

func TestWithJWT(t *testing.T) {
	const token = "token-abc"
	claims := &service.Claims{Name: "alice", Role: models.RoleUser}

	tests := []struct {
		name        string
		md          metadata.MD
		parseErr    error
		account     *models.Account
		findErr     error
		expectParse bool
		expectFind  bool
		wantErrCode codes.Code
	}{
		{
			name:        "missing metadata",
			wantErrCode: codes.Unauthenticated,
		},
		{
			name:        "no authorization header",
			md:          metadata.Pairs(),
			wantErrCode: codes.Unauthenticated,
		},
		{
			name:        "not a bearer token",
			md:          metadata.Pairs("authorization", "Basic Zm9vOmJhcg=="),
			wantErrCode: codes.Unauthenticated,
		},
		{
			name:        "invalid token",
			md:          metadata.Pairs("authorization", "Bearer "+token),
			parseErr:    errors.New("signature is invalid"),
			expectParse: true,
			wantErrCode: codes.Unauthenticated,
		},
		{
			name:        "account deleted",
			md:          metadata.Pairs("authorization", "Bearer "+token),
			findErr:     storage.ErrNotFound,
			expectParse: true,
			expectFind:  true,
			wantErrCode: codes.Unauthenticated,
		},
		{
			name:        "directory failure",
			md:          metadata.Pairs("authorization", "Bearer "+token),
			findErr:     errors.New("connection reset"),
			expectParse: true,
			expectFind:  true,
			wantErrCode: codes.Internal,
		},
		{
			name:        "approval revoked",
			md:          metadata.Pairs("authorization", "Bearer "+token),
			account:     &models.Account{Name: "alice", Approved: false},
			expectParse: true,
			expectFind:  true,
			wantErrCode: codes.PermissionDenied,
		},
		{
			name:        "approved account",
			md:          metadata.Pairs("authorization", "Bearer "+token),
			account:     &models.Account{Name: "alice", Approved: true, Plan: models.PlanPremium},
			expectParse: true,
			expectFind:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			mockAuth := mocks.NewMockAuthIface(ctrl)
			mockAccounts := mocks.NewMockAccountServiceIface(ctrl)

			if tt.expectParse {
				if tt.parseErr != nil {
					mockAuth.EXPECT().ParseRawJWT(token).Return(nil, tt.parseErr)
				} else {
					mockAuth.EXPECT().ParseRawJWT(token).Return(claims, nil)
				}
			}
			if tt.expectFind {
				mockAccounts.EXPECT().Find(gomock.Any(), "alice").Return(tt.account, tt.findErr)
			}

			interceptor := intercepters.WithJWT(mockAuth, mockAccounts, zap.NewNop(), guardedMethod)

			called := false
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				called = true
				p, ok := middleware.PrincipalFrom(ctx)
				require.True(t, ok)
				assert.Equal(t, "alice", p.Name)

				a, ok := middleware.AccountFrom(ctx)
				require.True(t, ok)
				assert.True(t, a.IsPremium())
				return "ok", nil
			}

			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}

			resp, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: guardedMethod}, handler)

			if tt.wantErrCode != codes.OK {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrCode, status.Code(err))
				assert.False(t, called)
				return
			}

			require.NoError(t, err)
			assert.True(t, called)
			assert.Equal(t, "ok", resp)
		})
	}
}

func TestWithJWT_UnguardedMethodPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)

	// no expectations: the token is never inspected
	interceptor := intercepters.WithJWT(mocks.NewMockAuthIface(ctrl), mocks.NewMockAccountServiceIface(ctrl), zap.NewNop(), guardedMethod)

	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/shortener.v1.Links/Resolve"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			_, ok := middleware.PrincipalFrom(ctx)
			assert.False(t, ok)
			return "public", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "public", resp)
}
