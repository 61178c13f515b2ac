package intercepters

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

type contextKey string

// RealIPKey holds the client address of a call as a string.
const RealIPKey contextKey = "real-ip"

// RealIPInterceptor stores the client address under RealIPKey. The x-real-ip
// metadata wins over the transport peer address.
func RealIPInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ips := md.Get("x-real-ip"); len(ips) > 0 && ips[0] != "" {
			return handler(context.WithValue(ctx, RealIPKey, ips[0]), req)
		}
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		host, _, err := net.SplitHostPort(p.Addr.String())
		if err != nil {
			host = p.Addr.String()
		}
		ctx = context.WithValue(ctx, RealIPKey, host)
	}
	return handler(ctx, req)
}

// RealIP returns the address stored by RealIPInterceptor.
func RealIP(ctx context.Context) string {
	ip, _ := ctx.Value(RealIPKey).(string)
	return ip
}
