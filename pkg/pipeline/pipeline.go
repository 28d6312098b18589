// Package pipeline implements the five-stage reconnaissance sweep
// (spec.md §4.6): subdomain enumeration, DNS resolution, port scan, HTTP
// probe, and vulnerability probe, followed by the differential
// verification sweep. Stages run strictly sequentially, each one fully
// complete before the next begins; between every stage boundary the
// engine re-reads the run's status and unwinds on discard/cancel. Grounded
// on nightowl's escalation.Engine tick/process shape, generalized from "one
// tick, all tenants" to "one run, five stages."
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/internal/audit"
	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/pkg/inventory"
	"github.com/corvidreef/reconwatch/pkg/normalize"
	"github.com/corvidreef/reconwatch/pkg/queue"
	"github.com/corvidreef/reconwatch/pkg/reconerr"
	"github.com/corvidreef/reconwatch/pkg/run"
	"github.com/corvidreef/reconwatch/pkg/scanadapter"
	"github.com/corvidreef/reconwatch/pkg/scope"
	"github.com/corvidreef/reconwatch/pkg/target"
)

// httpsPorts and httpPorts classify which discovered services the HTTP
// probe stage builds URLs for; any other port is skipped (spec.md §4.6).
var (
	httpsPorts = map[int]bool{443: true, 8443: true, 9443: true}
	httpPorts  = map[int]bool{80: true, 8080: true, 8000: true, 3000: true, 5000: true, 8081: true, 8888: true, 9000: true, 10000: true}
)

const (
	defaultMaxHosts       = 50
	defaultMaxHTTPTargets = 200
)

// Adapters bundles the five stage implementations an Engine dispatches to.
type Adapters struct {
	Subfinder  scanadapter.Adapter
	DNSResolve scanadapter.Adapter
	PortScan   scanadapter.Adapter
	HTTPProbe  scanadapter.Adapter
	VulnProbe  scanadapter.Adapter
}

// Engine runs one run_pipeline job to completion, upserting every artifact
// into the inventory and performing the post-sweep differential check.
type Engine struct {
	Inventory *inventory.Store
	Queue     *queue.Store
	Runs      *run.Store
	Audit     *audit.Writer
	Adapters  Adapters
	Logger    *slog.Logger
	rw        db.DBTX
}

// New creates an Engine. rw is used for the per-invocation scans insert,
// which has no dedicated store package since Scan rows are opaque to the
// core state machine (spec.md §3).
func New(inv *inventory.Store, q *queue.Store, runs *run.Store, aud *audit.Writer, adapters Adapters, logger *slog.Logger, rw db.DBTX) *Engine {
	return &Engine{Inventory: inv, Queue: q, Runs: runs, Audit: aud, Adapters: adapters, Logger: logger, rw: rw}
}

// Execute runs every stage of the pipeline for a run_pipeline job against t,
// then performs the differential verification sweep and marks the run
// completed. Returns reconerr.ErrCancelled if the run was discarded or
// cancelled mid-flight — callers must translate that into cancelling the
// job, per spec.md §5.
func (e *Engine) Execute(ctx context.Context, t *target.Target, runID uuid.UUID) error {
	cfg := scanadapter.Target{ID: t.ID, AllowedDomains: t.Scope.AllowedDomains, AllowedCIDRs: t.Scope.AllowedCIDRs}

	e.event(runID, t.ID, "pipeline_started", nil)

	subdomains, err := e.stageEnumerate(ctx, cfg, t, runID)
	if err != nil {
		return err
	}
	if err := e.checkCancelled(ctx, runID); err != nil {
		return err
	}

	ips, err := e.stageResolveDNS(ctx, cfg, t.ID, runID, subdomains)
	if err != nil {
		return err
	}
	if err := e.checkCancelled(ctx, runID); err != nil {
		return err
	}

	hostServices, err := e.stagePortScan(ctx, cfg, t.ID, t.Scope, runID, ips)
	if err != nil {
		return err
	}
	if err := e.checkCancelled(ctx, runID); err != nil {
		return err
	}

	urls, err := e.stageHTTPProbe(ctx, cfg, t.ID, t.Scope, runID, hostServices)
	if err != nil {
		return err
	}
	if err := e.checkCancelled(ctx, runID); err != nil {
		return err
	}

	if err := e.stageVulnProbe(ctx, cfg, t.ID, runID, t.Scope, urls); err != nil {
		return err
	}

	if err := e.differentialSweep(ctx, t.ID, runID); err != nil {
		return err
	}

	if err := e.Runs.SetStatus(ctx, runID, run.StatusSucceeded); err != nil {
		return fmt.Errorf("marking run completed: %w", err)
	}
	e.event(runID, t.ID, "pipeline_completed", nil)
	return nil
}

// checkCancelled re-reads the run's status; a discarded/cancelled run
// raises reconerr.ErrCancelled so the worker can translate it to
// cancel_job while preserving the run's existing terminal status
// (spec.md §4.6 "Cancellation").
func (e *Engine) checkCancelled(ctx context.Context, runID uuid.UUID) error {
	r, err := e.Runs.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("checking run status: %w", err)
	}
	if r.Status == run.StatusDiscarded || r.Status == run.StatusCancelled {
		return reconerr.ErrCancelled
	}
	return nil
}

func (e *Engine) stageEnumerate(ctx context.Context, cfg scanadapter.Target, t *target.Target, runID uuid.UUID) ([]string, error) {
	e.event(uuid.Nil, t.ID, "scan_started", map[string]any{"scanner": "subfinder"})

	result, err := e.Adapters.Subfinder.Run(ctx, cfg, nil, nil)
	if err != nil {
		e.event(uuid.Nil, t.ID, "scan_completed", map[string]any{"scanner": "subfinder", "status": "failed", "error": err.Error()})
		e.Logger.Warn("subfinder stage failed, continuing with zero subdomains", "target", t.ID, "error", err)
		return nil, nil
	}

	var kept []scanadapter.AssetArtifact
	var names []string
	for _, a := range result.Assets {
		if !scope.Matches(t.Scope, a.Value) {
			continue
		}
		kept = append(kept, a)
		names = append(names, a.Normalized)
	}
	result.Assets = kept

	scanID, err := e.recordScan(ctx, t.ID, runID, result)
	if err != nil {
		return nil, err
	}
	if err := e.Inventory.IngestScanResult(ctx, t.ID, runID, scanID, result); err != nil {
		return nil, fmt.Errorf("ingesting subfinder result: %w", err)
	}

	e.event(uuid.Nil, t.ID, "scan_completed", map[string]any{"scanner": "subfinder", "status": "completed", "count": len(names)})
	return names, nil
}

func (e *Engine) stageResolveDNS(ctx context.Context, cfg scanadapter.Target, targetID, runID uuid.UUID, subdomains []string) ([]string, error) {
	if len(subdomains) == 0 {
		return nil, nil
	}

	result, err := e.Adapters.DNSResolve.Run(ctx, cfg, map[string]any{"hostnames": subdomains}, nil)
	if err != nil {
		return nil, fmt.Errorf("dns resolve stage: %w", err)
	}

	scanID, err := e.recordScan(ctx, targetID, runID, result)
	if err != nil {
		return nil, err
	}
	if err := e.Inventory.IngestScanResult(ctx, targetID, runID, scanID, result); err != nil {
		return nil, fmt.Errorf("ingesting dns resolve result: %w", err)
	}

	resolved := make(map[string]bool, len(result.Edges))
	seenIPs := make(map[string]bool)
	var ips []string
	for _, eg := range result.Edges {
		if eg.RelType != string(inventory.RelResolvesTo) {
			continue
		}
		resolved[eg.FromNormalized] = true
		if !seenIPs[eg.ToNormalized] {
			seenIPs[eg.ToNormalized] = true
			ips = append(ips, eg.ToNormalized)
		}
	}

	for _, name := range subdomains {
		norm := normalize.Domain(name)
		if resolved[norm] {
			continue
		}
		subAsset, err := e.Inventory.GetAssetByNormalized(ctx, targetID, inventory.AssetSubdomain, norm)
		if err != nil {
			return nil, fmt.Errorf("looking up unresolved subdomain %s: %w", name, err)
		}
		reason := "no_answer"
		if err := e.Inventory.SetAssetStatus(ctx, subAsset.ID, inventory.StatusUnresolved, &reason, nil); err != nil {
			return nil, fmt.Errorf("marking unresolved subdomain %s: %w", name, err)
		}
	}

	return ips, nil
}

// hostService pairs a host IP with the port/service discovered on it, so
// the HTTP-probe stage can build URLs against it.
type hostService struct {
	ip   string
	port int
}

func (e *Engine) stagePortScan(ctx context.Context, cfg scanadapter.Target, targetID uuid.UUID, sc scope.Config, runID uuid.UUID, ips []string) ([]hostService, error) {
	if len(ips) == 0 {
		return nil, nil
	}

	var inScope []string
	for _, ip := range ips {
		if scope.Matches(sc, ip) {
			inScope = append(inScope, ip)
		}
	}

	maxHosts := effectiveMaxHosts(sc)
	truncated := inScope
	if len(truncated) > maxHosts {
		e.Logger.Info("truncating port scan host list", "target", targetID, "discovered", len(truncated), "max_hosts", maxHosts)
		truncated = truncated[:maxHosts]
	}
	if len(truncated) == 0 {
		return nil, nil
	}

	result, err := e.Adapters.PortScan.Run(ctx, cfg, map[string]any{"hosts": truncated}, nil)
	if err != nil {
		return nil, fmt.Errorf("port scan stage: %w", err)
	}

	scanID, err := e.recordScan(ctx, targetID, runID, result)
	if err != nil {
		return nil, err
	}
	if err := e.Inventory.IngestScanResult(ctx, targetID, runID, scanID, result); err != nil {
		return nil, fmt.Errorf("ingesting port scan result: %w", err)
	}

	out := make([]hostService, 0, len(result.Services))
	for _, svc := range result.Services {
		out = append(out, hostService{ip: svc.HostNormalized, port: svc.Port})
	}
	return out, nil
}

func (e *Engine) stageHTTPProbe(ctx context.Context, cfg scanadapter.Target, targetID uuid.UUID, sc scope.Config, runID uuid.UUID, services []hostService) ([]string, error) {
	seen := make(map[string]bool)
	var urls, hosts []string
	for _, hs := range services {
		if !httpPorts[hs.port] && !httpsPorts[hs.port] {
			continue
		}
		if !scope.Matches(sc, hs.ip) {
			continue
		}
		scheme := "http"
		if httpsPorts[hs.port] {
			scheme = "https"
		}
		raw := fmt.Sprintf("%s://%s:%d", scheme, hs.ip, hs.port)
		if (scheme == "http" && hs.port == 80) || (scheme == "https" && hs.port == 443) {
			raw = fmt.Sprintf("%s://%s", scheme, hs.ip)
		}
		normalized, err := normalize.URL(raw)
		if err != nil {
			continue
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		urls = append(urls, normalized)
		hosts = append(hosts, hs.ip)
	}

	if len(urls) == 0 {
		return nil, nil
	}

	maxTargets := effectiveMaxHTTPTargets(sc)
	if len(urls) > maxTargets {
		e.Logger.Info("truncating http probe target list", "target", targetID, "discovered", len(urls), "max_http_targets", maxTargets)
		urls = urls[:maxTargets]
		hosts = hosts[:maxTargets]
	}

	result, err := e.Adapters.HTTPProbe.Run(ctx, cfg, map[string]any{"urls": urls, "hosts": hosts}, nil)
	if err != nil {
		return nil, fmt.Errorf("http probe stage: %w", err)
	}

	scanID, err := e.recordScan(ctx, targetID, runID, result)
	if err != nil {
		return nil, err
	}
	if err := e.Inventory.IngestScanResult(ctx, targetID, runID, scanID, result); err != nil {
		return nil, fmt.Errorf("ingesting http probe result: %w", err)
	}

	out := make([]string, 0, len(result.Assets))
	for _, a := range result.Assets {
		out = append(out, a.Normalized)
	}
	return out, nil
}

func (e *Engine) stageVulnProbe(ctx context.Context, cfg scanadapter.Target, targetID, runID uuid.UUID, sc scope.Config, urls []string) error {
	var inScope []string
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		host := u.Hostname()
		if host == "" || !scope.Matches(sc, host) {
			continue
		}
		inScope = append(inScope, raw)
	}
	if len(inScope) == 0 {
		return nil
	}

	result, err := e.Adapters.VulnProbe.Run(ctx, cfg, map[string]any{"urls": inScope}, nil)
	if err != nil {
		return fmt.Errorf("vuln probe stage: %w", err)
	}

	scanID, err := e.recordScan(ctx, targetID, runID, result)
	if err != nil {
		return err
	}
	if err := e.Inventory.IngestScanResult(ctx, targetID, runID, scanID, result); err != nil {
		return fmt.Errorf("ingesting vuln probe result: %w", err)
	}
	return nil
}

// recordScan inserts the one scans row spec.md §3 requires per adapter
// invocation, folding a failed invocation's error into raw_output since the
// scans table carries no separate error column. Returns the new scan's ID
// so findings produced by this invocation can reference it.
func (e *Engine) recordScan(ctx context.Context, targetID, runID uuid.UUID, result scanadapter.ScanResult) (uuid.UUID, error) {
	status := result.Status
	if status == "" {
		status = scanadapter.StatusCompleted
		if result.Err != nil {
			status = scanadapter.StatusFailed
		}
	}
	rawOutput := result.RawOutput
	if result.Err != nil {
		if rawOutput != "" {
			rawOutput += "\n"
		}
		rawOutput += "error: " + result.Err.Error()
	}
	startedAt, completedAt := result.StartedAt, result.CompletedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	id := uuid.New()
	if _, err := e.rw.Exec(ctx, `
		INSERT INTO scans (id, target_id, run_id, scanner, status, raw_output, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, targetID, runID, result.Scanner, status, nullableString(rawOutput), startedAt, completedAt,
	); err != nil {
		return uuid.Nil, fmt.Errorf("recording scan %s: %w", result.Scanner, err)
	}
	return id, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// differentialSweep implements spec.md §4.6's post-stage transaction: every
// active subdomain/url asset and every active service not seen in runID
// moves to stale, and a verify job is enqueued per affected row.
func (e *Engine) differentialSweep(ctx context.Context, targetID, runID uuid.UUID) error {
	staleAssets, err := e.Inventory.MarkUnseenAssetsStale(ctx, targetID, runID)
	if err != nil {
		return fmt.Errorf("marking stale assets: %w", err)
	}
	for _, a := range staleAssets {
		payload, _ := json.Marshal(map[string]any{"asset_id": a.ID})
		if _, err := e.Queue.Enqueue(ctx, queue.EnqueueParams{
			RunID: runID, TargetID: targetID, Type: queue.TypeVerifyAsset, Payload: payload, MaxRetries: 3,
		}); err != nil {
			return fmt.Errorf("enqueueing verify_asset for %s: %w", a.ID, err)
		}
	}

	staleServices, err := e.Inventory.MarkUnseenServicesStale(ctx, targetID, runID)
	if err != nil {
		return fmt.Errorf("marking stale services: %w", err)
	}
	for _, svc := range staleServices {
		payload, _ := json.Marshal(map[string]any{"service_id": svc.ID})
		if _, err := e.Queue.Enqueue(ctx, queue.EnqueueParams{
			RunID: runID, TargetID: targetID, Type: queue.TypeVerifyService, Payload: payload, MaxRetries: 3,
		}); err != nil {
			return fmt.Errorf("enqueueing verify_service for %s: %w", svc.ID, err)
		}
	}

	return nil
}

func (e *Engine) event(runID, targetID uuid.UUID, eventType string, detail map[string]any) {
	if e.Audit == nil {
		return
	}
	raw, _ := json.Marshal(detail)
	e.Audit.Log(audit.Entry{RunID: runID, TargetID: targetID, EventType: eventType, Detail: raw})
}

// effectiveMaxHosts applies a target's scope override, if set, over the
// stage default (spec.md §4.10 per-target resource caps).
func effectiveMaxHosts(cfg scope.Config) int {
	if cfg.MaxHosts > 0 {
		return cfg.MaxHosts
	}
	return defaultMaxHosts
}

func effectiveMaxHTTPTargets(cfg scope.Config) int {
	if cfg.MaxHTTPTargets > 0 {
		return cfg.MaxHTTPTargets
	}
	return defaultMaxHTTPTargets
}
