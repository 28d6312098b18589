// Package scope implements the scope-membership check every discovered
// asset or service must pass before it is admitted into the inventory
// (spec.md §4.10). Domain patterns are matched as shell-glob patterns via
// stdlib path/filepath.Match — no glob-matching library (e.g. gobwas/glob)
// appears in any example repo's go.mod, and filepath.Match's shell-glob
// syntax is exactly what the spec calls for. CIDR membership uses stdlib
// net/netip for the same reason: no third-party CIDR library in the pack
// fits a pure membership test (cuemby-warren's transitive
// apparentlymart/go-cidr is a Lima/VM subnet allocator, not this).
package scope

import (
	"fmt"
	"net/netip"
	"path/filepath"
	"strings"

	"github.com/corvidreef/reconwatch/pkg/reconerr"
)

// Config describes a target's scope: the domains and CIDR ranges that are
// in-bounds, plus an exclusion list checked before inclusion, plus the
// per-target resource caps spec.md §4.10 attaches to a ScopeConfig.
type Config struct {
	AllowedDomains []string // shell-glob patterns, e.g. "*.example.com"
	AllowedCIDRs   []string // e.g. "10.0.0.0/8"
	ExcludedHosts  []string // shell-glob patterns, checked first
	MaxHosts       int      // port-scan stage truncation; 0 means use the pipeline default
	MaxHTTPTargets int      // http-probe stage truncation; 0 means use the pipeline default
}

// cidrs parses AllowedCIDRs once; called lazily by Matches.
func (c Config) cidrs() []netip.Prefix {
	out := make([]netip.Prefix, 0, len(c.AllowedCIDRs))
	for _, raw := range c.AllowedCIDRs {
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether host (a hostname or IP literal) is in scope.
// Exclusions are checked first and always win over an allowed-domain match.
func Matches(cfg Config, host string) bool {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))

	for _, pattern := range cfg.ExcludedHosts {
		if ok, _ := filepath.Match(pattern, host); ok {
			return false
		}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		cidrs := cfg.cidrs()
		if len(cidrs) == 0 {
			return true
		}
		for _, prefix := range cidrs {
			if prefix.Contains(addr) {
				return true
			}
		}
		return false
	}

	for _, pattern := range cfg.AllowedDomains {
		if ok, _ := filepath.Match(pattern, host); ok {
			return true
		}
		// "*.example.com" should also match the bare apex "example.com".
		if apex, ok := strings.CutPrefix(pattern, "*."); ok && host == apex {
			return true
		}
	}

	return false
}

// Check returns reconerr.ErrScopeViolation when host is not in scope,
// wrapped with the offending host for diagnostics.
func Check(cfg Config, host string) error {
	if !Matches(cfg, host) {
		return fmt.Errorf("%s: %w", host, reconerr.ErrScopeViolation)
	}
	return nil
}
