package common

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the host part of the request's RemoteAddr. Forwarding
// headers are only honoured through RealIP, which rewrites RemoteAddr for
// requests arriving from a trusted proxy.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// ParseTrustedProxies parses a list of CIDR ranges or single addresses.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// RealIP replaces RemoteAddr with the forwarded client address, but only when
// the direct peer is a trusted proxy. X-Forwarded-For is walked from the right
// and the first untrusted hop wins, so a client cannot pick its own address by
// prepending entries.
type RealIP struct {
	Trusted []netip.Prefix
}

// Middleware rewrites RemoteAddr before the next handler runs.
func (m RealIP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := m.Resolve(r); ip != "" && ip != ClientIP(r) {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

// Resolve returns the client address for r.
func (m RealIP) Resolve(r *http.Request) string {
	peer := ClientIP(r)
	if !m.trusted(peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); strings.TrimSpace(xff) != "" {
		hops := strings.Split(xff, ",")
		client := peer
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			client = hop
			if !m.trusted(hop) {
				break
			}
		}
		return client
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		if _, err := netip.ParseAddr(ip); err == nil {
			return ip
		}
	}
	return peer
}

func (m RealIP) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.Trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
