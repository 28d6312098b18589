package scope

import (
	"errors"
	"testing"

	"github.com/corvidreef/reconwatch/pkg/reconerr"
)

func TestMatches_DomainGlob(t *testing.T) {
	cfg := Config{AllowedDomains: []string{"*.example.com"}}

	if !Matches(cfg, "api.example.com") {
		t.Error("expected api.example.com to be in scope")
	}
	if !Matches(cfg, "example.com") {
		t.Error("expected apex example.com to be in scope via *.example.com")
	}
	if Matches(cfg, "example.org") {
		t.Error("expected example.org to be out of scope")
	}
}

func TestMatches_Exclusion(t *testing.T) {
	cfg := Config{
		AllowedDomains: []string{"*.example.com"},
		ExcludedHosts:  []string{"internal.example.com"},
	}
	if Matches(cfg, "internal.example.com") {
		t.Error("expected excluded host to be out of scope despite matching allowed domain")
	}
}

func TestMatches_CIDR(t *testing.T) {
	cfg := Config{AllowedCIDRs: []string{"10.0.0.0/8"}}
	if !Matches(cfg, "10.1.2.3") {
		t.Error("expected 10.1.2.3 to be in scope")
	}
	if Matches(cfg, "192.168.1.1") {
		t.Error("expected 192.168.1.1 to be out of scope")
	}
}

func TestCheck_ReturnsScopeViolation(t *testing.T) {
	cfg := Config{AllowedDomains: []string{"*.example.com"}}
	err := Check(cfg, "evil.org")
	if !errors.Is(err, reconerr.ErrScopeViolation) {
		t.Errorf("expected ErrScopeViolation, got %v", err)
	}
}
