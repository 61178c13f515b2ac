package intercepters

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/middleware"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

// WithJWT authenticates the methods listed in protected with the session
// token sent as "authorization: Bearer <token>". The account named by the
// token is re-fetched on every call and must still exist and be approved.
// The principal and the fresh account are injected under the middleware
// context keys. Other methods pass through untouched.
func WithJWT(auth service.AuthIface, accounts middleware.AccountFinder, logger *zap.Logger, protected ...string) grpc.UnaryServerInterceptor {
	guarded := make(map[string]bool, len(protected))
	for _, m := range protected {
		guarded[m] = true
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !guarded[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeader := md.Get("authorization")
		if len(authHeader) == 0 || !strings.HasPrefix(authHeader[0], "Bearer ") {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		claims, err := auth.ParseRawJWT(strings.TrimPrefix(authHeader[0], "Bearer "))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		p := claims.Principal()
		account, err := accounts.Find(ctx, p.Name)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "unknown account")
		}
		if err != nil {
			logger.Error("cannot load account", zap.String("name", p.Name), zap.Error(err))
			return nil, status.Error(codes.Internal, "cannot load account")
		}
		if !account.Approved {
			return nil, status.Error(codes.PermissionDenied, "account pending approval")
		}

		ctx = context.WithValue(ctx, middleware.PrincipalKey, p)
		ctx = context.WithValue(ctx, middleware.AccountKey, account)

		return handler(ctx, req)
	}
}
