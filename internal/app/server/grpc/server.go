package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/intercepters"
	"github.com/atinyakov/go-link-gate/internal/middleware"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

// Server wraps the gRPC server and dependencies.
type Server struct {
	grpcServer *grpc.Server
	port       int
	logger     *zap.Logger
}

// New creates a new gRPC server instance. Shorten and ListLinks require a
// bearer session token of an approved account, Resolve is public.
func New(port int, links *ShortenerServer, auth service.AuthIface, accounts middleware.AccountFinder, logger *zap.Logger) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(func(p any) error {
				logger.Error("grpc handler panicked", zap.Any("panic", p))
				return status.Error(codes.Internal, "internal error")
			})),
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger)),
			intercepters.RealIPInterceptor,
			intercepters.WithJWT(auth, accounts, logger,
				Links_Shorten_FullMethodName,
				Links_ListLinks_FullMethodName,
			),
		),
	)

	RegisterLinksServer(s, links)

	return &Server{
		grpcServer: s,
		port:       port,
		logger:     logger,
	}
}

// Start listens on the configured port and serves until GracefulStop.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.logger.Error("gRPC server failed to listen", zap.Error(err))
		return err
	}

	s.logger.Info("gRPC server listening on port", zap.Int("port", s.port))
	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop shuts down the server gracefully.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// VisitSink accepts visits for the journal without blocking.
type VisitSink interface {
	Enqueue(v models.Visit) bool
}

// ShortenerServer implements shortener.v1.Links.
//
//	Resolve    {host, path}            -> {outcome, destination, tenant, owner, code}
//	Shorten    {url, alias?}           -> {code, short_url, tenant_url}
//	ListLinks  {}                      -> {links: [{code, destination, short_url, tenant_url, clicks, created_at}]}
//
// Resolve reports every non-failure outcome as data, the caller decides how
// to present it. Visits may be nil.
type ShortenerServer struct {
	Resolver service.ResolverIface
	Links    service.LinkServiceIface
	Visits   VisitSink
	Logger   *zap.Logger
}

func str(in *structpb.Struct, key string) string {
	if v, ok := in.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func (s *ShortenerServer) Resolve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	host := str(in, "host")
	if host == "" {
		return nil, status.Error(codes.InvalidArgument, "host is required")
	}

	out := s.Resolver.Resolve(ctx, host, str(in, "path"))
	if out.Kind == service.OutcomeFailure {
		return nil, status.Error(codes.Internal, "resolution failed")
	}

	if out.Counted() && s.Visits != nil {
		var referer, userAgent string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("referer"); len(v) > 0 {
				referer = v[0]
			}
			if v := md.Get("user-agent"); len(v) > 0 {
				userAgent = v[0]
			}
		}
		s.Visits.Enqueue(service.NewVisit(out.Link, referer, userAgent, intercepters.RealIP(ctx)))
	}

	res := map[string]any{
		"outcome":     out.Kind.String(),
		"destination": out.Destination,
		"tenant":      out.Tenant,
	}
	if out.Link != nil {
		res["code"] = out.Link.Code
		res["owner"] = out.Link.Owner
	}
	return structpb.NewStruct(res)
}

func (s *ShortenerServer) Shorten(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	account, ok := middleware.AccountFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "account missing in context")
	}

	l, err := s.Links.Shorten(ctx, account.Name, str(in, "url"), str(in, "alias"))
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return nil, status.Error(codes.AlreadyExists, "alias already taken")
	case errors.Is(err, service.ErrEmptyURL), errors.Is(err, service.ErrInvalidAlias):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case err != nil:
		s.Logger.Error("cannot shorten", zap.String("owner", account.Name), zap.Error(err))
		return nil, status.Error(codes.Internal, "cannot shorten")
	}

	return structpb.NewStruct(map[string]any{
		"code":       l.Code,
		"short_url":  s.Links.ShortURL(*l),
		"tenant_url": s.Links.TenantURL(*l),
	})
}

func (s *ShortenerServer) ListLinks(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	account, ok := middleware.AccountFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "account missing in context")
	}

	links, err := s.Links.List(ctx, account.Name)
	if err != nil {
		s.Logger.Error("cannot list links", zap.String("owner", account.Name), zap.Error(err))
		return nil, status.Error(codes.Internal, "cannot list links")
	}

	items := make([]any, 0, len(links))
	for _, l := range links {
		items = append(items, map[string]any{
			"code":        l.Code,
			"destination": l.Destination,
			"short_url":   s.Links.ShortURL(l),
			"tenant_url":  s.Links.TenantURL(l),
			"clicks":      l.Clicks,
			"created_at":  l.Created.Format(time.RFC3339),
		})
	}

	return structpb.NewStruct(map[string]any{"links": items})
}
