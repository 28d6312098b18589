package scanadapter

import (
	"context"
	"time"
)

// Finding is one vulnerability/observation a VulnProber reports for a URL.
// URL is the already-normalized URL asset the finding is linked to
// (spec.md §4.6 stage 5: findings are "linked to URL assets, auto-creating
// the URL asset if missing"); left empty for findings with no specific
// asset.
type Finding struct {
	Title    string
	Severity string
	Detail   map[string]any
	URL      string
}

// VulnProber is implemented by pluggable vulnerability-probing backends.
// Real nuclei-style active scanning is out of scope for this exercise;
// VulnProbeAdapter ships only the contract plus a no-op stand-in.
type VulnProber interface {
	Probe(ctx context.Context, target Target, urls []string) ([]Finding, error)
}

// NoopVulnProber returns no findings for any input — the default when no
// real prober is configured.
type NoopVulnProber struct{}

func (NoopVulnProber) Probe(_ context.Context, _ Target, _ []string) ([]Finding, error) {
	return nil, nil
}

// VulnProbeAdapter is the vulnerability-probe stage stand-in.
type VulnProbeAdapter struct {
	Prober VulnProber
}

func NewVulnProbeAdapter(prober VulnProber) *VulnProbeAdapter {
	if prober == nil {
		prober = NoopVulnProber{}
	}
	return &VulnProbeAdapter{Prober: prober}
}

func (a *VulnProbeAdapter) Name() string { return "vulnprobe" }

func (a *VulnProbeAdapter) Run(ctx context.Context, target Target, config map[string]any, stream StreamFunc) (ScanResult, error) {
	start := time.Now()

	urls, _ := config["urls"].([]string)
	findings, err := a.Prober.Probe(ctx, target, urls)
	if err != nil {
		return ScanResult{Scanner: a.Name(), Status: StatusFailed, StartedAt: start, CompletedAt: time.Now(), Err: err}, err
	}

	artifacts := make([]FindingArtifact, 0, len(findings))
	for _, f := range findings {
		if stream != nil {
			stream(f.Title)
		}
		fa := FindingArtifact{Title: f.Title, Severity: f.Severity, Detail: f.Detail}
		if f.URL != "" {
			fa.AssetType = "url"
			fa.AssetNormalized = f.URL
		}
		artifacts = append(artifacts, fa)
	}

	return ScanResult{
		Scanner:     a.Name(),
		Status:      StatusCompleted,
		StartedAt:   start,
		CompletedAt: time.Now(),
		Findings:    artifacts,
	}, nil
}
