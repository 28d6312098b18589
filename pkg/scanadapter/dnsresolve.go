package scanadapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/corvidreef/reconwatch/pkg/dnsresolver"
	"github.com/corvidreef/reconwatch/pkg/normalize"
)

// DNSResolveAdapter delegates to pkg/dnsresolver — the pipeline stage
// wrapper around the DNS Resolver component (spec.md §4.3).
type DNSResolveAdapter struct {
	Resolver *dnsresolver.Resolver
}

func NewDNSResolveAdapter(resolver *dnsresolver.Resolver) *DNSResolveAdapter {
	return &DNSResolveAdapter{Resolver: resolver}
}

func (a *DNSResolveAdapter) Name() string { return "dnsresolve" }

func (a *DNSResolveAdapter) Run(ctx context.Context, _ Target, config map[string]any, stream StreamFunc) (ScanResult, error) {
	start := time.Now()

	hostnames, _ := config["hostnames"].([]string)
	results := a.Resolver.ResolveAll(ctx, hostnames)

	var rawLines []string
	var assets []AssetArtifact
	var edges []EdgeArtifact
	seenIPs := make(map[string]bool)

	for _, res := range results {
		line := fmt.Sprintf("%s -> %v (err=%v)", res.Hostname, res.IPs, res.Err)
		rawLines = append(rawLines, line)
		if stream != nil {
			stream(line)
		}
		if res.Err != nil {
			continue
		}

		hostNorm := normalize.Domain(res.Hostname)
		for _, ip := range res.IPs {
			if !seenIPs[ip] {
				seenIPs[ip] = true
				assets = append(assets, AssetArtifact{Type: "ip", Value: ip, Normalized: ip})
			}
			edges = append(edges, EdgeArtifact{
				FromType: "subdomain", FromNormalized: hostNorm,
				ToType: "ip", ToNormalized: ip,
				RelType: "resolves_to",
			})
		}
	}

	return ScanResult{
		Scanner:     a.Name(),
		Status:      StatusCompleted,
		StartedAt:   start,
		CompletedAt: time.Now(),
		RawOutput:   strings.Join(rawLines, "\n"),
		Assets:      assets,
		Edges:       edges,
	}, nil
}
