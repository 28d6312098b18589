package pipeline

import (
	"testing"

	"github.com/corvidreef/reconwatch/pkg/scope"
)

func TestHTTPPortClassification(t *testing.T) {
	tests := []struct {
		port      int
		wantHTTP  bool
		wantHTTPS bool
	}{
		{80, true, false},
		{8080, true, false},
		{8000, true, false},
		{3000, true, false},
		{5000, true, false},
		{8081, true, false},
		{8888, true, false},
		{9000, true, false},
		{10000, true, false},
		{443, false, true},
		{8443, false, true},
		{9443, false, true},
		{22, false, false},
		{3306, false, false},
	}
	for _, tt := range tests {
		if got := httpPorts[tt.port]; got != tt.wantHTTP {
			t.Errorf("httpPorts[%d] = %v, want %v", tt.port, got, tt.wantHTTP)
		}
		if got := httpsPorts[tt.port]; got != tt.wantHTTPS {
			t.Errorf("httpsPorts[%d] = %v, want %v", tt.port, got, tt.wantHTTPS)
		}
	}
}

func TestEffectiveMaxHosts_DefaultsWhenUnset(t *testing.T) {
	if got := effectiveMaxHosts(scope.Config{}); got != defaultMaxHosts {
		t.Errorf("effectiveMaxHosts(zero value) = %d, want %d", got, defaultMaxHosts)
	}
}

func TestEffectiveMaxHosts_HonorsOverride(t *testing.T) {
	if got := effectiveMaxHosts(scope.Config{MaxHosts: 5}); got != 5 {
		t.Errorf("effectiveMaxHosts(MaxHosts=5) = %d, want 5", got)
	}
}

func TestEffectiveMaxHTTPTargets_DefaultsWhenUnset(t *testing.T) {
	if got := effectiveMaxHTTPTargets(scope.Config{}); got != defaultMaxHTTPTargets {
		t.Errorf("effectiveMaxHTTPTargets(zero value) = %d, want %d", got, defaultMaxHTTPTargets)
	}
}

func TestEffectiveMaxHTTPTargets_HonorsOverride(t *testing.T) {
	if got := effectiveMaxHTTPTargets(scope.Config{MaxHTTPTargets: 17}); got != 17 {
		t.Errorf("effectiveMaxHTTPTargets(MaxHTTPTargets=17) = %d, want 17", got)
	}
}
