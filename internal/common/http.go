package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the originating client address for rate limit keys.
// Proxy headers win over the socket peer; X-Forwarded-For may carry a
// comma-separated hop list, in which case the first entry is the client.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		return fwd
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	peer := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(peer); err == nil {
		return host
	}
	return peer
}
