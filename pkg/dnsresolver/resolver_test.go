package dnsresolver

import (
	"log/slog"
	"testing"
)

func TestNew_DefaultsUpstream(t *testing.T) {
	r := New(nil, 0, slog.Default())
	if len(r.upstream) == 0 {
		t.Error("expected default upstream servers to be set")
	}
	if r.sem == nil {
		t.Error("expected a semaphore to be configured")
	}
}

func TestPickServer_SingleServer(t *testing.T) {
	r := New([]string{"8.8.8.8:53"}, 1, slog.Default())
	if got := r.pickServer(); got != "8.8.8.8:53" {
		t.Errorf("pickServer() = %q, want 8.8.8.8:53", got)
	}
}
