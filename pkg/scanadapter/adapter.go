// Package scanadapter defines the uniform contract every pipeline stage's
// external tool is invoked through (spec.md §4.6, §6; SPEC_FULL §4.11),
// grounded on nightowl's messaging-provider registry pattern
// (pkg/messaging.Registry dispatching to one Provider interface implemented
// by Slack/Mattermost) — repurposed here for scan tools instead of chat
// backends. The adapters in this package are explicitly stand-ins: they
// produce well-formed ScanResults from deterministic or pluggable input,
// never real network scanning.
package scanadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Target is the minimal view of a Target a scan adapter needs.
type Target struct {
	ID             uuid.UUID
	AllowedDomains []string
	AllowedCIDRs   []string
}

// Status values for ScanResult.Status, mirroring the scans table's check
// constraint minus "running" (an adapter invocation is reported only once
// it has already finished one way or the other).
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AssetArtifact is one asset observation an adapter reports for ingestion.
// Type is one of the Asset type enum's string values ("subdomain", "host",
// "ip", "url" — spec.md §3); Normalized is the dedup key the Inventory
// Store upserts against, already computed via pkg/normalize.
type AssetArtifact struct {
	Type       string
	Value      string
	Normalized string
}

// ServiceArtifact is one open port observation, keyed by the normalized
// host asset it belongs to rather than a database ID — the Inventory Store
// resolves (and auto-creates, if absent) the host asset during ingestion.
type ServiceArtifact struct {
	HostType       string
	HostNormalized string
	Port           int
	Proto          string
	Banner         *string
}

// EdgeArtifact is one directed relationship between two assets, each
// identified by (type, normalized) instead of a database ID.
type EdgeArtifact struct {
	FromType       string
	FromNormalized string
	ToType         string
	ToNormalized   string
	RelType        string
}

// FindingArtifact is a well-formed vulnerability/observation record,
// optionally linked to the asset it was found on. AssetType/AssetNormalized
// are empty when the finding isn't tied to a specific asset.
type FindingArtifact struct {
	Title           string
	Severity        string
	Detail          map[string]any
	AssetType       string
	AssetNormalized string
}

// ScanResult is the uniform output of a single adapter invocation (spec.md
// §6): Scanner/Status/RawOutput/Err/StartedAt/CompletedAt feed the one
// scans row recorded per invocation (spec.md §3); Assets/Services/Edges/
// Findings feed a single inventory.IngestScanResult call. Adapters populate
// Assets/Services/Edges with already-normalized keys — ingestion assumes
// normalization has already happened.
type ScanResult struct {
	Scanner     string
	Status      string
	RawOutput   string
	Err         error
	StartedAt   time.Time
	CompletedAt time.Time

	Assets   []AssetArtifact
	Services []ServiceArtifact
	Edges    []EdgeArtifact
	Findings []FindingArtifact
}

// StreamFunc receives incremental raw-output lines as an adapter runs,
// matching spec.md §9's "streaming via optional callback" design note.
type StreamFunc func(line string)

// Adapter is implemented by every scan stage's tool integration.
type Adapter interface {
	// Name identifies the adapter for logging and the Scan.scanner column.
	Name() string
	// Run executes the adapter against target with the given stage config,
	// streaming raw output lines to stream (which may be nil).
	Run(ctx context.Context, target Target, config map[string]any, stream StreamFunc) (ScanResult, error)
}
