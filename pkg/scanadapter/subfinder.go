package scanadapter

import (
	"context"
	"strings"
	"time"

	"github.com/corvidreef/reconwatch/pkg/normalize"
)

// Source supplies a pre-seeded subdomain list for a target — real
// deployments wire this to an external subdomain-enumeration tool; this
// package ships only the contract and a Source-backed stand-in.
type Source interface {
	Subdomains(ctx context.Context, target Target) ([]string, error)
}

// StaticSource returns a fixed subdomain list regardless of target,
// useful for tests and for config-seeded scope exploration.
type StaticSource struct {
	Subdomains_ []string
}

func (s StaticSource) Subdomains(_ context.Context, _ Target) ([]string, error) {
	return s.Subdomains_, nil
}

// SubfinderAdapter is the subdomain-enumeration stage stand-in.
type SubfinderAdapter struct {
	Source Source
}

func NewSubfinderAdapter(source Source) *SubfinderAdapter {
	return &SubfinderAdapter{Source: source}
}

func (a *SubfinderAdapter) Name() string { return "subfinder" }

func (a *SubfinderAdapter) Run(ctx context.Context, target Target, _ map[string]any, stream StreamFunc) (ScanResult, error) {
	start := time.Now()

	hostnames, err := a.Source.Subdomains(ctx, target)
	if err != nil {
		return ScanResult{Scanner: a.Name(), Status: StatusFailed, StartedAt: start, CompletedAt: time.Now(), Err: err}, err
	}

	var lines []string
	assets := make([]AssetArtifact, 0, len(hostnames))
	for _, h := range hostnames {
		if stream != nil {
			stream(h)
		}
		lines = append(lines, h)
		assets = append(assets, AssetArtifact{Type: "subdomain", Value: h, Normalized: normalize.Domain(h)})
	}

	return ScanResult{
		Scanner:     a.Name(),
		Status:      StatusCompleted,
		StartedAt:   start,
		CompletedAt: time.Now(),
		RawOutput:   strings.Join(lines, "\n"),
		Assets:      assets,
	}, nil
}
