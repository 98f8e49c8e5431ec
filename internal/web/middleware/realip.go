package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP rewrites RemoteAddr from X-Real-IP or X-Forwarded-For, but
// only for requests whose connection comes from a trusted proxy prefix.
// Headers from anyone else are ignored so clients cannot spoof their address
// past the rate limiter or into stored runs.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	trusted := parsePrefixes(trustedCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if remote, ok := parseAddr(r.RemoteAddr); ok && isTrusted(remote, trusted) {
				if ip, ok := forwardedIP(r.Header); ok {
					r.RemoteAddr = ip.String()
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// parsePrefixes accepts CIDRs and bare addresses; invalid entries are logged and skipped.
func parsePrefixes(cidrs []string) []netip.Prefix {
	var out []netip.Prefix
	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}

		if prefix, err := netip.ParsePrefix(cidr); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(cidr); err == nil {
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		slog.Warn("realip: invalid trusted proxy CIDR, skipping", "cidr", cidr)
	}
	return out
}

// forwardedIP returns X-Real-IP, else the first X-Forwarded-For hop, when it
// is a valid address.
func forwardedIP(h http.Header) (netip.Addr, bool) {
	if rip := h.Get("X-Real-IP"); rip != "" {
		return parseAddr(rip)
	}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return parseAddr(first)
	}
	return netip.Addr{}, false
}

// parseAddr parses a plain address or a host:port pair.
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
