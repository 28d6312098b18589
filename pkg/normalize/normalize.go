// Package normalize implements the pure, side-effect-free canonicalization
// functions every inbound asset/service identifier passes through before
// it reaches the inventory store (spec.md §4.1). There is no third-party
// domain/URL canonicalization library anywhere in the retrieval pack, so
// this package is stdlib-only (net, net/url, strings) by design.
package normalize

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Domain implements normalize_domain (spec.md §4.1): lower-case, strip a
// surrounding scheme ("https://host" -> "host"), strip any path after the
// first "/", strip a port, unbracket an IPv6 literal, and strip a trailing
// dot. Idempotent — Domain(Domain(x)) == Domain(x) for every input — since
// normalized forms are the sole dedup key assets are upserted against.
func Domain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
	}
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	} else if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}

	return strings.TrimSuffix(s, ".")
}

// GuessAssetType implements guess_asset_type_from_host: "ip" when h parses
// as an IP literal, else "host". Returned as a plain string (rather than
// inventory.AssetType) so this package never imports pkg/inventory;
// callers cast the result to the asset-type enum they need.
func GuessAssetType(h string) string {
	if IsIP(h) {
		return "ip"
	}
	return "host"
}

// IsIP reports whether s parses as an IPv4 or IPv6 literal.
func IsIP(s string) bool {
	return net.ParseIP(s) != nil
}

// URL canonicalizes a URL string: lower-cases scheme and host, drops a
// default port (80 for http, 443 for https), and strips a trailing "/" on
// an empty path. Returns an error if s does not parse as an absolute URL.
func URL(s string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", s, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("URL %q is not absolute", s)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)

	if hostname, port, err := net.SplitHostPort(host); err == nil {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			host = hostname
		}
	}
	u.Host = host

	if u.Path == "/" {
		u.Path = ""
	}

	return u.String(), nil
}

// HostPort splits a "host:port" pair, returning an empty port when none is
// present (used for service identity keys where the port is carried separately).
func HostPort(hostPort string) (host string, port string) {
	h, p, err := net.SplitHostPort(hostPort)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(hostPort)), ""
	}
	return strings.ToLower(h), p
}
