package util

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller IP from request metadata. Forwarded headers
// are taken at face value only when the direct peer is a loopback address;
// rate limiting keys on this value.
func ClientIP(r *http.Request) string {
	remoteIP := parseRemoteIP(r.RemoteAddr)
	if remoteIP == nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if !remoteIP.IsLoopback() {
		return remoteIP.String()
	}
	if forwarded := parseForwardedFor(r.Header.Get("X-Forwarded-For")); forwarded != nil {
		return forwarded.String()
	}
	if realIP := parseIP(r.Header.Get("X-Real-IP")); realIP != nil {
		return realIP.String()
	}
	return remoteIP.String()
}

func parseForwardedFor(raw string) net.IP {
	for _, part := range strings.Split(raw, ",") {
		if ip := parseIP(part); ip != nil {
			return ip
		}
	}
	return nil
}

func parseRemoteIP(addr string) net.IP {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		return parseIP(host)
	}
	return parseIP(addr)
}

func parseIP(raw string) net.IP {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return net.ParseIP(raw)
}
