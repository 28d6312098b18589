// Package verifier implements the per-artifact re-probe that confirms
// whether a stale asset or service has genuinely disappeared before the
// core declares it closed (spec.md §4.7). Every verification of a
// subdomain, URL or service writes a one-line Scan row and a conclusion;
// other asset types are skipped with no Scan row and no status change. A
// closed/unresolved conclusion is not a job failure — the job completes
// normally, only the asset/service status changes.
package verifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/pkg/dnsresolver"
	"github.com/corvidreef/reconwatch/pkg/inventory"
)

// dnsErrorSubstrings classify a network error as "unresolved" (name cannot
// be resolved) rather than "closed" (host resolves, but is unreachable),
// matching the substrings spec.md §4.7 names verbatim.
var dnsErrorSubstrings = []string{
	"name or service not known",
	"temporary failure in name resolution",
	"nodename nor servname",
}

func isDNSError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range dnsErrorSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Conclusion is the outcome of one verification attempt.
type Conclusion string

const (
	ConclusionActive     Conclusion = "active"
	ConclusionClosed     Conclusion = "closed"
	ConclusionUnresolved Conclusion = "unresolved"
	ConclusionSkipped    Conclusion = "skipped"
)

// Verifier re-probes a single stale asset or service to confirm closure.
type Verifier struct {
	Inventory  *inventory.Store
	Resolver   *dnsresolver.Resolver
	HTTPClient *http.Client
	Dialer     net.Dialer
	rw         db.DBTX
}

// New creates a Verifier. rw is used only to write the one-line Scan row
// per verify call (spec.md §4.7); inventory status writes go through store.
func New(store *inventory.Store, resolver *dnsresolver.Resolver, rw db.DBTX) *Verifier {
	return &Verifier{
		Inventory: store,
		Resolver:  resolver,
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		Dialer: net.Dialer{Timeout: 3 * time.Second},
		rw:     rw,
	}
}

// VerifyAsset re-checks a single stale asset and writes its conclusion.
// Subdomains are re-resolved via DNS; URLs are re-probed via HTTP. Any
// other asset type is not verified (skipped, per spec.md §4.7).
func (v *Verifier) VerifyAsset(ctx context.Context, asset *inventory.Asset, runID uuid.UUID) (Conclusion, error) {
	switch asset.Type {
	case inventory.AssetSubdomain:
		return v.verifySubdomainAsset(ctx, asset, runID)
	case inventory.AssetURL:
		return v.verifyURLAsset(ctx, asset, runID)
	default:
		return ConclusionSkipped, nil
	}
}

func (v *Verifier) verifySubdomainAsset(ctx context.Context, asset *inventory.Asset, runID uuid.UUID) (Conclusion, error) {
	res := v.Resolver.Resolve(ctx, asset.Value)
	rawOutput := fmt.Sprintf("%s -> %v (err=%v)", asset.Value, res.IPs, res.Err)

	if res.Err == nil && len(res.IPs) > 0 {
		if err := v.Inventory.SetAssetStatus(ctx, asset.ID, inventory.StatusActive, nil, &runID); err != nil {
			return "", err
		}
		for _, ip := range res.IPs {
			ipAsset, _, err := v.Inventory.UpsertAssetSeen(ctx, asset.TargetID, runID, inventory.AssetIP, ip, ip)
			if err != nil {
				return "", fmt.Errorf("upserting resurrected ip asset %s: %w", ip, err)
			}
			if _, _, err := v.Inventory.UpsertEdgeSeen(ctx, asset.TargetID, runID, asset.ID, ipAsset.ID, inventory.RelResolvesTo); err != nil {
				return "", fmt.Errorf("upserting resurrected resolves_to edge %s->%s: %w", asset.Value, ip, err)
			}
		}
		if err := v.writeScan(ctx, asset.TargetID, runID, "verify_asset", rawOutput); err != nil {
			return "", err
		}
		return ConclusionActive, nil
	}

	reason := "dns_" + strings.ReplaceAll(fmt.Sprint(res.Err), " ", "_")
	if err := v.Inventory.SetAssetStatus(ctx, asset.ID, inventory.StatusUnresolved, &reason, &runID); err != nil {
		return "", err
	}
	if err := v.writeScan(ctx, asset.TargetID, runID, "verify_asset", rawOutput); err != nil {
		return "", err
	}
	return ConclusionUnresolved, nil
}

func (v *Verifier) verifyURLAsset(ctx context.Context, asset *inventory.Asset, runID uuid.UUID) (Conclusion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.Value, nil)
	if err != nil {
		return "", fmt.Errorf("building verify request: %w", err)
	}

	resp, httpErr := v.HTTPClient.Do(req)
	var conclusion Conclusion
	var reason *string
	rawOutput := asset.Value

	switch {
	case httpErr == nil:
		conclusion = ConclusionActive
		resp.Body.Close()
		rawOutput = fmt.Sprintf("%s -> %d", asset.Value, resp.StatusCode)
	case isDNSError(httpErr):
		conclusion = ConclusionUnresolved
		r := "dns_error"
		reason = &r
		rawOutput = fmt.Sprintf("%s -> error: %v", asset.Value, httpErr)
	default:
		conclusion = ConclusionClosed
		r := "unreachable"
		reason = &r
		rawOutput = fmt.Sprintf("%s -> error: %v", asset.Value, httpErr)
	}

	status := inventory.StatusActive
	if conclusion == ConclusionClosed {
		status = inventory.StatusClosed
	} else if conclusion == ConclusionUnresolved {
		status = inventory.StatusUnresolved
	}

	if err := v.Inventory.SetAssetStatus(ctx, asset.ID, status, reason, &runID); err != nil {
		return "", err
	}
	if err := v.writeScan(ctx, asset.TargetID, runID, "verify_asset", rawOutput); err != nil {
		return "", err
	}
	return conclusion, nil
}

// VerifyService re-checks a single stale service by attempting a TCP
// connect to its host asset's normalized address.
func (v *Verifier) VerifyService(ctx context.Context, svc *inventory.Service, hostAsset *inventory.Asset, runID uuid.UUID) (Conclusion, error) {
	addr := net.JoinHostPort(hostAsset.Normalized, fmt.Sprint(svc.Port))

	conn, err := v.Dialer.DialContext(ctx, "tcp", addr)
	rawOutput := addr

	var conclusion Conclusion
	var reason *string
	switch {
	case err == nil:
		conn.Close()
		conclusion = ConclusionActive
		rawOutput += " -> open"
	case isDNSError(err):
		conclusion = ConclusionUnresolved
		r := "dns_error"
		reason = &r
		rawOutput += fmt.Sprintf(" -> error: %v", err)
	default:
		conclusion = ConclusionClosed
		r := "unreachable"
		reason = &r
		rawOutput += fmt.Sprintf(" -> error: %v", err)
	}

	status := inventory.StatusActive
	if conclusion == ConclusionClosed {
		status = inventory.StatusClosed
	} else if conclusion == ConclusionUnresolved {
		status = inventory.StatusUnresolved
	}

	if err := v.Inventory.SetServiceStatus(ctx, svc.ID, status, reason, &runID); err != nil {
		return "", err
	}
	if err := v.writeScan(ctx, svc.TargetID, runID, "verify_service", rawOutput); err != nil {
		return "", err
	}
	return conclusion, nil
}

func (v *Verifier) writeScan(ctx context.Context, targetID, runID uuid.UUID, scanner, rawOutput string) error {
	_, err := v.rw.Exec(ctx, `
		INSERT INTO scans (id, target_id, run_id, scanner, status, raw_output, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, 'completed', $5, now(), now(), now())`,
		uuid.New(), targetID, runID, scanner, rawOutput)
	if err != nil {
		return fmt.Errorf("writing verify scan row: %w", err)
	}
	return nil
}
