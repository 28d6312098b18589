// Package inventory implements the differential inventory engine
// (spec.md §4.2): upsert-on-seen, diff-against-previous-state, and the
// active/stale/closed/unresolved lifecycle with a full audit trail.
// Grounded on nightowl's pkg/incident/store.go — same column-list-constant,
// scanRow/scanRows, RowsAffected()-guard pattern, applied to assets,
// services, and edges instead of incidents.
package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status shared by Asset, Service, and Edge.
type Status string

const (
	StatusActive     Status = "active"
	StatusStale      Status = "stale"
	StatusClosed     Status = "closed"
	StatusUnresolved Status = "unresolved"
)

// AssetType classifies what kind of entity an Asset represents.
type AssetType string

const (
	AssetSubdomain AssetType = "subdomain"
	AssetHost      AssetType = "host"
	AssetIP        AssetType = "ip"
	AssetURL       AssetType = "url"
)

// RelType classifies the relationship an Edge records between two assets.
type RelType string

const (
	RelResolvesTo  RelType = "resolves_to"
	RelCNAMETo     RelType = "cname_to"
	RelServes      RelType = "serves"
	RelRedirectsTo RelType = "redirects_to"
)

// Asset is a single discovered entity (subdomain, IP, or URL) within a
// Target's scope. FirstSeenRunID is write-once; LastSeenRunID advances on
// every re-observation.
type Asset struct {
	ID             uuid.UUID
	TargetID       uuid.UUID
	Type           AssetType
	Value          string
	Normalized     string
	Status         Status
	StatusReason   *string
	FirstSeenRunID uuid.UUID
	LastSeenRunID  uuid.UUID
	FirstSeen      time.Time
	LastSeen       time.Time
	VerifiedAt     *time.Time
	VerifiedRunID  *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Service is a discovered open port/protocol on an Asset.
type Service struct {
	ID             uuid.UUID
	TargetID       uuid.UUID
	AssetID        uuid.UUID
	Port           int
	Protocol       string
	Status         Status
	StatusReason   *string
	Banner         *string
	FirstSeenRunID uuid.UUID
	LastSeenRunID  uuid.UUID
	FirstSeen      time.Time
	LastSeen       time.Time
	VerifiedAt     *time.Time
	VerifiedRunID  *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Edge records a directed relationship between two assets (e.g. a subdomain
// resolving to an IP).
type Edge struct {
	ID             uuid.UUID
	TargetID       uuid.UUID
	FromAssetID    uuid.UUID
	ToAssetID      uuid.UUID
	RelType        RelType
	Status         Status
	FirstSeenRunID uuid.UUID
	LastSeenRunID  uuid.UUID
	FirstSeen      time.Time
	LastSeen       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StaleReason formats the status_reason spec.md §3 requires for a stale
// asset/service: "not_seen_in_run:<run_id>".
func StaleReason(runID uuid.UUID) string {
	return "not_seen_in_run:" + runID.String()
}

// VerifyAllStaleServices controls whether the differential sweep marks
// unseen services stale (and so queues verify_service jobs for them). When
// true, every unseen active Service is marked regardless of its Asset's type,
// preserving the spec's documented asymmetry (Design Note, spec.md §9): a
// stale service on an IP asset is verified the same way as one on a
// subdomain asset, even though IP assets themselves are not re-verified by
// hostname resolution. When false, no service is marked stale or verified;
// there is no type-filtered mode. Default true; surfaced as a package
// variable rather than hard-coded so the policy decision is visible and
// overridable in one place.
var VerifyAllStaleServices = true
