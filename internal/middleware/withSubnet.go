package middleware

import (
	"net"
	"net/http"
)

// WithSubnet lets through only clients whose address lies in the CIDR subnet.
// The address is taken from X-Real-IP, falling back to the connection's
// remote address. An empty or invalid subnet rejects everyone.
func WithSubnet(subnet string) func(next http.Handler) http.Handler {
	var network *net.IPNet
	if subnet != "" {
		_, network, _ = net.ParseCIDR(subnet)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if network == nil || !network.Contains(ClientIP(r)) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the X-Real-IP address or the remote address of r. It
// returns nil when neither parses.
func ClientIP(r *http.Request) net.IP {
	if ip := net.ParseIP(r.Header.Get("X-Real-IP")); ip != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
