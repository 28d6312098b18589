package scanadapter

import (
	"context"
	"testing"
)

func TestSubfinderAdapter_Run(t *testing.T) {
	a := NewSubfinderAdapter(StaticSource{Subdomains_: []string{"a.example.com", "b.example.com"}})

	var streamed []string
	result, err := a.Run(context.Background(), Target{}, nil, func(line string) {
		streamed = append(streamed, line)
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Assets) != 2 {
		t.Errorf("Assets = %v, want 2 entries", result.Assets)
	}
	for _, asset := range result.Assets {
		if asset.Type != "subdomain" {
			t.Errorf("asset type = %q, want subdomain", asset.Type)
		}
	}
	if len(streamed) != 2 {
		t.Errorf("expected 2 streamed lines, got %d", len(streamed))
	}
}

func TestTCPConnectProber_ClosedPort(t *testing.T) {
	p := TCPConnectProber{}
	// Port 1 on loopback should not be listening in any test environment.
	if p.Probe(context.Background(), "127.0.0.1", 1) {
		t.Error("expected closed port to probe false")
	}
}

func TestNoopVulnProber_ReturnsNoFindings(t *testing.T) {
	a := NewVulnProbeAdapter(nil)
	result, err := a.Run(context.Background(), Target{}, map[string]any{"urls": []string{"https://example.com"}}, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Findings) != 0 {
		t.Errorf("expected no findings from the noop prober, got %d", len(result.Findings))
	}
}
