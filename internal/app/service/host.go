package service

import (
	"net"
	"strings"
)

// HostKind tags the result of ClassifyHost.
type HostKind int

const (
	HostMalformed HostKind = iota
	HostCanonical
	HostTenant
)

func (k HostKind) String() string {
	switch k {
	case HostCanonical:
		return "canonical"
	case HostTenant:
		return "tenant"
	default:
		return "malformed"
	}
}

// HostClass is the classification of a request host. Tenant is set only for
// HostTenant.
type HostClass struct {
	Kind   HostKind
	Tenant string
}

// devHosts are always served as the canonical domain.
var devHosts = map[string]bool{
	"localhost": true,
}

// ClassifyHost decides whether hostHeader addresses the service itself or a
// tenant sub-domain. The port and a trailing dot are ignored, comparison is
// case-insensitive. IP literals are canonical.
func ClassifyHost(hostHeader, canonicalDomain string) HostClass {
	h := normalizeHost(hostHeader)
	if h == "" {
		return HostClass{Kind: HostMalformed}
	}

	if h == normalizeHost(canonicalDomain) || strings.HasPrefix(h, "www.") || devHosts[h] || net.ParseIP(h) != nil {
		return HostClass{Kind: HostCanonical}
	}

	label, _, found := strings.Cut(h, ".")
	if !found || !validLabel(label) {
		return HostClass{Kind: HostMalformed}
	}

	return HostClass{Kind: HostTenant, Tenant: label}
}

func normalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if hostOnly, _, err := net.SplitHostPort(h); err == nil {
		h = hostOnly
	}
	h = strings.TrimPrefix(h, "[")
	h = strings.TrimSuffix(h, "]")
	return strings.TrimSuffix(h, ".")
}

// validLabel accepts DNS label characters only.
func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}
