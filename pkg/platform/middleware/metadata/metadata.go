// Package metadata resolves the source address the abuse guard keys on and
// stores it, with the User-Agent, in the request context.
package metadata

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	pstrings "syncauth/pkg/platform/strings"
	"syncauth/pkg/requestcontext"
)

// MaxXFFHeaderLength bounds forwarding headers; longer values are ignored.
const MaxXFFHeaderLength = 500

type Config struct {
	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Empty means the
	// socket peer is always the client.
	TrustedProxies []netip.Prefix
}

// ParseTrustedProxies accepts CIDRs and bare addresses. Blanks and duplicates
// are dropped.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	entries = pstrings.DedupeAndTrim(entries)
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, raw := range entries {
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

type Middleware struct {
	trusted []netip.Prefix
}

func NewMiddleware(cfg *Config) *Middleware {
	m := &Middleware{}
	if cfg != nil {
		m.trusted = cfg.TrustedProxies
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientAddr(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientAddr returns "" when the peer address is unusable. The guard refuses
// such requests, so an empty result must never be replaced by a guess.
func (m *Middleware) clientAddr(r *http.Request) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return ""
	}
	if !m.isTrusted(peer) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if len(xff) > MaxXFFHeaderLength {
			return peer.String()
		}
		if addr, ok := m.fromForwardedFor(xff); ok {
			return addr.String()
		}
		return peer.String()
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && len(xri) <= MaxXFFHeaderLength {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
	}
	return peer.String()
}

// fromForwardedFor walks the chain right to left and returns the first hop
// that is not one of our proxies. Entries left of it are client controlled.
func (m *Middleware) fromForwardedFor(xff string) (netip.Addr, bool) {
	hops := strings.Split(xff, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return netip.Addr{}, false
		}
		addr = addr.Unmap()
		if !m.isTrusted(addr) || i == 0 {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

func (m *Middleware) isTrusted(addr netip.Addr) bool {
	for _, prefix := range m.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(remoteAddr string) (netip.Addr, bool) {
	if remoteAddr == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(strings.Trim(remoteAddr, "[]")); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}
