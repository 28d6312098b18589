package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/internal/telemetry"
	"github.com/corvidreef/reconwatch/pkg/reconerr"
	"github.com/corvidreef/reconwatch/pkg/scanadapter"
)

const assetColumns = `id, target_id, type, value, normalized, status, status_reason,
	first_seen_run_id, last_seen_run_id, first_seen, last_seen,
	verified_at, verified_run_id, created_at, updated_at`
const serviceColumns = `id, target_id, asset_id, port, protocol, status, status_reason, banner,
	first_seen_run_id, last_seen_run_id, first_seen, last_seen,
	verified_at, verified_run_id, created_at, updated_at`
const edgeColumns = `id, target_id, from_asset_id, to_asset_id, rel_type, status,
	first_seen_run_id, last_seen_run_id, first_seen, last_seen, created_at, updated_at`

// Store is the inventory's persistence layer. pool backs the single
// transaction IngestScanResult wraps its batch of upserts in; rw is used
// directly by every other method, whether that's a bare pool or an
// in-flight transaction (mirroring pkg/queue.Store).
type Store struct {
	pool db.Beginner
	rw   db.DBTX
}

// New creates a Store. rw must also satisfy db.Beginner (true of
// *pgxpool.Pool).
func New(rw interface {
	db.Beginner
	db.DBTX
}) *Store {
	return &Store{pool: rw, rw: rw}
}

// Transition describes whether an upsert changed an entity's lifecycle
// status, for callers that need to emit a RunEvent only on real transitions.
type Transition struct {
	Created        bool
	PreviousStatus Status
	NewStatus      Status
}

func (t Transition) Changed() bool {
	return t.Created || t.PreviousStatus != t.NewStatus
}

// UpsertAssetSeen records that an asset was observed during runID. A new
// asset is inserted as active with first_seen_run_id = last_seen_run_id =
// runID; an existing asset has last_seen_run_id/last_seen refreshed and, if
// it was stale, closed or unresolved, is reactivated to active; status_reason
// is cleared in every case.
func (s *Store) UpsertAssetSeen(ctx context.Context, targetID, runID uuid.UUID, typ AssetType, value, normalized string) (*Asset, Transition, error) {
	existing, err := s.getAssetByNormalized(ctx, targetID, typ, normalized)
	if err != nil && !errors.Is(err, reconerr.ErrNotFound) {
		return nil, Transition{}, err
	}

	if existing == nil {
		row := s.rw.QueryRow(ctx, `
			INSERT INTO assets (id, target_id, type, value, normalized, status,
				first_seen_run_id, last_seen_run_id, first_seen, last_seen, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'active', $6, $6, now(), now(), now(), now())
			RETURNING `+assetColumns,
			uuid.New(), targetID, typ, value, normalized, runID)
		a, err := scanAsset(row)
		if err != nil {
			return nil, Transition{}, err
		}
		telemetry.InventoryTransitionsTotal.WithLabelValues("asset", "created").Inc()
		return a, Transition{Created: true, NewStatus: StatusActive}, nil
	}

	newStatus := existing.Status
	if existing.Status != StatusActive {
		newStatus = StatusActive
	}

	row := s.rw.QueryRow(ctx, `
		UPDATE assets SET value = $3, status = $2, status_reason = NULL,
			last_seen_run_id = $4, last_seen = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+assetColumns, existing.ID, newStatus, value, runID)
	a, err := scanAsset(row)
	if err != nil {
		return nil, Transition{}, err
	}

	t := Transition{PreviousStatus: existing.Status, NewStatus: newStatus}
	if t.Changed() {
		telemetry.InventoryTransitionsTotal.WithLabelValues("asset", "reactivated").Inc()
	}
	return a, t, nil
}

// UpsertServiceSeen is the Service analogue of UpsertAssetSeen.
func (s *Store) UpsertServiceSeen(ctx context.Context, targetID, runID, assetID uuid.UUID, port int, protocol string, banner *string) (*Service, Transition, error) {
	existing, err := s.getServiceByPort(ctx, assetID, port, protocol)
	if err != nil && !errors.Is(err, reconerr.ErrNotFound) {
		return nil, Transition{}, err
	}

	if existing == nil {
		row := s.rw.QueryRow(ctx, `
			INSERT INTO services (id, target_id, asset_id, port, protocol, status, banner,
				first_seen_run_id, last_seen_run_id, first_seen, last_seen, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'active', $6, $7, $7, now(), now(), now(), now())
			RETURNING `+serviceColumns,
			uuid.New(), targetID, assetID, port, protocol, banner, runID)
		svc, err := scanService(row)
		if err != nil {
			return nil, Transition{}, err
		}
		telemetry.InventoryTransitionsTotal.WithLabelValues("service", "created").Inc()
		return svc, Transition{Created: true, NewStatus: StatusActive}, nil
	}

	newStatus := existing.Status
	if existing.Status != StatusActive {
		newStatus = StatusActive
	}

	row := s.rw.QueryRow(ctx, `
		UPDATE services SET status = $2, status_reason = NULL, banner = coalesce($3, banner),
			last_seen_run_id = $4, last_seen = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns, existing.ID, newStatus, banner, runID)
	svc, err := scanService(row)
	if err != nil {
		return nil, Transition{}, err
	}

	t := Transition{PreviousStatus: existing.Status, NewStatus: newStatus}
	if t.Changed() {
		telemetry.InventoryTransitionsTotal.WithLabelValues("service", "reactivated").Inc()
	}
	return svc, t, nil
}

// UpsertEdgeSeen is the Edge analogue of UpsertAssetSeen.
func (s *Store) UpsertEdgeSeen(ctx context.Context, targetID, runID, fromID, toID uuid.UUID, relType RelType) (*Edge, Transition, error) {
	existing, err := s.getEdge(ctx, fromID, toID, relType)
	if err != nil && !errors.Is(err, reconerr.ErrNotFound) {
		return nil, Transition{}, err
	}

	if existing == nil {
		row := s.rw.QueryRow(ctx, `
			INSERT INTO edges (id, target_id, from_asset_id, to_asset_id, rel_type, status,
				first_seen_run_id, last_seen_run_id, first_seen, last_seen, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'active', $6, $6, now(), now(), now(), now())
			RETURNING `+edgeColumns,
			uuid.New(), targetID, fromID, toID, relType, runID)
		e, err := scanEdge(row)
		if err != nil {
			return nil, Transition{}, err
		}
		telemetry.InventoryTransitionsTotal.WithLabelValues("edge", "created").Inc()
		return e, Transition{Created: true, NewStatus: StatusActive}, nil
	}

	newStatus := existing.Status
	if existing.Status != StatusActive {
		newStatus = StatusActive
	}

	row := s.rw.QueryRow(ctx, `
		UPDATE edges SET status = $2, last_seen_run_id = $3, last_seen = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+edgeColumns, existing.ID, newStatus, runID)
	e, err := scanEdge(row)
	if err != nil {
		return nil, Transition{}, err
	}

	t := Transition{PreviousStatus: existing.Status, NewStatus: newStatus}
	if t.Changed() {
		telemetry.InventoryTransitionsTotal.WithLabelValues("edge", "reactivated").Inc()
	}
	return e, t, nil
}

// SetAssetStatus explicitly transitions an asset's lifecycle status — used
// by the pipeline's DNS stage to mark unresolved subdomains, and by the
// verifier to record its conclusion. A non-nil verifiedRunID is recorded
// and verified_at stamped; the verifier passes its run for every
// conclusion, including active, and the DNS stage passes nil.
func (s *Store) SetAssetStatus(ctx context.Context, id uuid.UUID, status Status, reason *string, verifiedRunID *uuid.UUID) error {
	var tag interface {
		RowsAffected() int64
	}
	var err error
	if verifiedRunID != nil {
		tag, err = s.rw.Exec(ctx, `
			UPDATE assets SET status = $2, status_reason = $3, verified_at = now(), verified_run_id = $4, updated_at = now()
			WHERE id = $1`, id, status, reason, *verifiedRunID)
	} else {
		tag, err = s.rw.Exec(ctx, `
			UPDATE assets SET status = $2, status_reason = $3, updated_at = now()
			WHERE id = $1`, id, status, reason)
	}
	if err != nil {
		return fmt.Errorf("set asset status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asset %s: %w", id, reconerr.ErrNotFound)
	}
	telemetry.InventoryTransitionsTotal.WithLabelValues("asset", string(status)).Inc()
	return nil
}

// SetServiceStatus is the Service analogue of SetAssetStatus.
func (s *Store) SetServiceStatus(ctx context.Context, id uuid.UUID, status Status, reason *string, verifiedRunID *uuid.UUID) error {
	var tag interface {
		RowsAffected() int64
	}
	var err error
	if verifiedRunID != nil {
		tag, err = s.rw.Exec(ctx, `
			UPDATE services SET status = $2, status_reason = $3, verified_at = now(), verified_run_id = $4, updated_at = now()
			WHERE id = $1`, id, status, reason, *verifiedRunID)
	} else {
		tag, err = s.rw.Exec(ctx, `
			UPDATE services SET status = $2, status_reason = $3, updated_at = now()
			WHERE id = $1`, id, status, reason)
	}
	if err != nil {
		return fmt.Errorf("set service status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("service %s: %w", id, reconerr.ErrNotFound)
	}
	telemetry.InventoryTransitionsTotal.WithLabelValues("service", string(status)).Inc()
	return nil
}

// SetEdgeStatus is the Edge analogue of SetAssetStatus (no status_reason —
// edges are not independently verified).
func (s *Store) SetEdgeStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := s.rw.Exec(ctx, `UPDATE edges SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set edge status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("edge %s: %w", id, reconerr.ErrNotFound)
	}
	return nil
}

// MarkUnseenAssetsStale transitions every active subdomain/url asset for
// targetID not observed in runID to stale, stamping status_reason per
// spec.md §4.6, and returns the affected rows so the caller can enqueue a
// verify_asset job per asset.
func (s *Store) MarkUnseenAssetsStale(ctx context.Context, targetID, runID uuid.UUID) ([]*Asset, error) {
	rows, err := s.rw.Query(ctx, `
		UPDATE assets SET status = 'stale', status_reason = $3, updated_at = now()
		WHERE target_id = $1 AND status = 'active' AND last_seen_run_id <> $2
			AND type IN ('subdomain', 'url')
		RETURNING `+assetColumns,
		targetID, runID, StaleReason(runID))
	if err != nil {
		return nil, fmt.Errorf("mark unseen assets stale: %w", err)
	}
	defer rows.Close()

	var out []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkUnseenServicesStale is the Service analogue. Per spec.md §9's
// documented asymmetry, it applies to every service regardless of its
// host asset's type when VerifyAllStaleServices is set; when it is unset, it
// marks nothing and returns no services.
func (s *Store) MarkUnseenServicesStale(ctx context.Context, targetID, runID uuid.UUID) ([]*Service, error) {
	if !VerifyAllStaleServices {
		return nil, nil
	}
	rows, err := s.rw.Query(ctx, `
		UPDATE services SET status = 'stale', status_reason = $3, updated_at = now()
		WHERE target_id = $1 AND status = 'active' AND last_seen_run_id <> $2
		RETURNING `+serviceColumns,
		targetID, runID, StaleReason(runID))
	if err != nil {
		return nil, fmt.Errorf("mark unseen services stale: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// GetAsset returns a single asset by ID — used by the verifier to load the
// asset a verify_asset job's payload references.
func (s *Store) GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error) {
	row := s.rw.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id)
	return scanAsset(row)
}

// GetService returns a single service by ID.
func (s *Store) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := s.rw.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	return scanService(row)
}

// ListActiveAssets returns every active asset for a target, for the
// verifier and API glue.
func (s *Store) ListActiveAssets(ctx context.Context, targetID uuid.UUID) ([]*Asset, error) {
	rows, err := s.rw.Query(ctx, `SELECT `+assetColumns+` FROM assets WHERE target_id = $1 AND status = 'active'`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list active assets: %w", err)
	}
	defer rows.Close()

	var out []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAssetsByType returns every active asset of a given type — the input
// source for pipeline stages that operate over prior discoveries.
func (s *Store) ListAssetsByType(ctx context.Context, targetID uuid.UUID, typ AssetType) ([]*Asset, error) {
	rows, err := s.rw.Query(ctx, `SELECT `+assetColumns+` FROM assets WHERE target_id = $1 AND type = $2 AND status = 'active'`, targetID, typ)
	if err != nil {
		return nil, fmt.Errorf("list assets by type: %w", err)
	}
	defer rows.Close()

	var out []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListActiveServicesForTarget returns every active service for a target,
// joined conceptually to its host asset by AssetID.
func (s *Store) ListActiveServicesForTarget(ctx context.Context, targetID uuid.UUID) ([]*Service, error) {
	rows, err := s.rw.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE target_id = $1 AND status = 'active'`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list active services: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// ListActiveEdgesForTarget returns every active edge for a target, for API glue.
func (s *Store) ListActiveEdgesForTarget(ctx context.Context, targetID uuid.UUID) ([]*Edge, error) {
	rows, err := s.rw.Query(ctx, `SELECT `+edgeColumns+` FROM edges WHERE target_id = $1 AND status = 'active'`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list active edges: %w", err)
	}
	defer rows.Close()

	var out []*Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListStaleServices returns every stale service for a target — the input to
// the verifier's stale-service re-check sweep.
func (s *Store) ListStaleServices(ctx context.Context, targetID uuid.UUID) ([]*Service, error) {
	rows, err := s.rw.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE target_id = $1 AND status = 'stale'`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list stale services: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// GetAssetByNormalized looks up an active or historical asset by its dedup
// key, for callers (the pipeline, the verifier) that need the database ID
// of an asset they know they've already ingested this run.
func (s *Store) GetAssetByNormalized(ctx context.Context, targetID uuid.UUID, typ AssetType, normalized string) (*Asset, error) {
	a, err := s.getAssetByNormalized(ctx, targetID, typ, normalized)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, reconerr.ErrNotFound
	}
	return a, nil
}

// IngestScanResult is ingest_scan_result: a single adapter invocation's
// uniform artifact batch (scanadapter.ScanResult), upserted in one
// transaction. Assets/Services/Edges are deduped by their identity key
// within the batch first — an adapter may legitimately report the same
// asset twice (e.g. two ports resolving to the same host) — then each
// unique artifact is upserted via the existing UpsertXSeen methods. Service
// and Edge endpoints reference their host assets by (type, normalized)
// rather than ID, so any host not already upserted as part of this same
// batch's Assets is auto-created here. Findings are inserted directly,
// resolving an optional (AssetType, AssetNormalized) link the same way.
// Idempotent: repeating the call with the same (targetID, runID, result)
// only touches last_seen_at on already-known rows, since UpsertXSeen is
// itself idempotent modulo timestamps.
func (s *Store) IngestScanResult(ctx context.Context, targetID, runID, scanID uuid.UUID, result scanadapter.ScanResult) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		txStore := &Store{pool: s.pool, rw: tx}

		assetIDs := make(map[assetKey]uuid.UUID)

		type assetSeen struct {
			typ        AssetType
			value      string
			normalized string
		}
		uniqueAssets := make(map[assetKey]assetSeen)
		var assetOrder []assetKey
		for _, a := range result.Assets {
			key := assetKey{AssetType(a.Type), a.Normalized}
			if _, ok := uniqueAssets[key]; !ok {
				assetOrder = append(assetOrder, key)
			}
			uniqueAssets[key] = assetSeen{typ: AssetType(a.Type), value: a.Value, normalized: a.Normalized}
		}
		for _, key := range assetOrder {
			seen := uniqueAssets[key]
			a, _, err := txStore.UpsertAssetSeen(ctx, targetID, runID, seen.typ, seen.value, seen.normalized)
			if err != nil {
				return fmt.Errorf("ingest asset %s/%s: %w", seen.typ, seen.normalized, err)
			}
			assetIDs[key] = a.ID
		}

		resolveHost := func(typ, normalized string) (uuid.UUID, error) {
			key := assetKey{AssetType(typ), normalized}
			if id, ok := assetIDs[key]; ok {
				return id, nil
			}
			a, _, err := txStore.UpsertAssetSeen(ctx, targetID, runID, AssetType(typ), normalized, normalized)
			if err != nil {
				return uuid.Nil, fmt.Errorf("auto-create asset %s/%s: %w", typ, normalized, err)
			}
			assetIDs[key] = a.ID
			return a.ID, nil
		}

		type serviceKey struct {
			assetID uuid.UUID
			port    int
			proto   string
		}
		uniqueServices := make(map[serviceKey]scanadapter.ServiceArtifact)
		var serviceOrder []serviceKey
		for _, svc := range result.Services {
			hostID, err := resolveHost(svc.HostType, svc.HostNormalized)
			if err != nil {
				return err
			}
			key := serviceKey{hostID, svc.Port, svc.Proto}
			if _, ok := uniqueServices[key]; !ok {
				serviceOrder = append(serviceOrder, key)
			}
			uniqueServices[key] = svc
		}
		for _, key := range serviceOrder {
			svc := uniqueServices[key]
			if _, _, err := txStore.UpsertServiceSeen(ctx, targetID, runID, key.assetID, svc.Port, svc.Proto, svc.Banner); err != nil {
				return fmt.Errorf("ingest service %s:%d: %w", svc.HostNormalized, svc.Port, err)
			}
		}

		type edgeKey struct {
			from, to uuid.UUID
			rel      RelType
		}
		uniqueEdges := make(map[edgeKey]bool)
		var edgeOrder []edgeKey
		for _, eg := range result.Edges {
			fromID, err := resolveHost(eg.FromType, eg.FromNormalized)
			if err != nil {
				return err
			}
			toID, err := resolveHost(eg.ToType, eg.ToNormalized)
			if err != nil {
				return err
			}
			key := edgeKey{fromID, toID, RelType(eg.RelType)}
			if !uniqueEdges[key] {
				edgeOrder = append(edgeOrder, key)
				uniqueEdges[key] = true
			}
		}
		for _, key := range edgeOrder {
			if _, _, err := txStore.UpsertEdgeSeen(ctx, targetID, runID, key.from, key.to, key.rel); err != nil {
				return fmt.Errorf("ingest edge %s->%s: %w", key.from, key.to, err)
			}
		}

		for _, f := range result.Findings {
			var assetID *uuid.UUID
			if f.AssetType != "" && f.AssetNormalized != "" {
				id, err := resolveHost(f.AssetType, f.AssetNormalized)
				if err != nil {
					return err
				}
				assetID = &id
			}
			detail, err := json.Marshal(f.Detail)
			if err != nil {
				return fmt.Errorf("marshal finding detail: %w", err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO findings (id, target_id, run_id, asset_id, scan_id, title, severity, detail, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
				uuid.New(), targetID, runID, assetID, scanID, f.Title, f.Severity, detail); err != nil {
				return fmt.Errorf("insert finding %q: %w", f.Title, err)
			}
		}

		return nil
	})
}

type assetKey struct {
	typ        AssetType
	normalized string
}

func (s *Store) getAssetByNormalized(ctx context.Context, targetID uuid.UUID, typ AssetType, normalized string) (*Asset, error) {
	row := s.rw.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE target_id = $1 AND type = $2 AND normalized = $3`, targetID, typ, normalized)
	a, err := scanAsset(row)
	if errors.Is(err, reconerr.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

func (s *Store) getServiceByPort(ctx context.Context, assetID uuid.UUID, port int, protocol string) (*Service, error) {
	row := s.rw.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE asset_id = $1 AND port = $2 AND protocol = $3`, assetID, port, protocol)
	svc, err := scanService(row)
	if errors.Is(err, reconerr.ErrNotFound) {
		return nil, nil
	}
	return svc, err
}

func (s *Store) getEdge(ctx context.Context, fromID, toID uuid.UUID, relType RelType) (*Edge, error) {
	row := s.rw.QueryRow(ctx, `SELECT `+edgeColumns+` FROM edges WHERE from_asset_id = $1 AND to_asset_id = $2 AND rel_type = $3`, fromID, toID, relType)
	e, err := scanEdge(row)
	if errors.Is(err, reconerr.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

func scanAsset(row pgx.Row) (*Asset, error) {
	var a Asset
	err := row.Scan(&a.ID, &a.TargetID, &a.Type, &a.Value, &a.Normalized, &a.Status, &a.StatusReason,
		&a.FirstSeenRunID, &a.LastSeenRunID, &a.FirstSeen, &a.LastSeen,
		&a.VerifiedAt, &a.VerifiedRunID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconerr.ErrNotFound
		}
		return nil, fmt.Errorf("scan asset: %w", err)
	}
	return &a, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var svc Service
	err := row.Scan(&svc.ID, &svc.TargetID, &svc.AssetID, &svc.Port, &svc.Protocol, &svc.Status, &svc.StatusReason, &svc.Banner,
		&svc.FirstSeenRunID, &svc.LastSeenRunID, &svc.FirstSeen, &svc.LastSeen,
		&svc.VerifiedAt, &svc.VerifiedRunID, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconerr.ErrNotFound
		}
		return nil, fmt.Errorf("scan service: %w", err)
	}
	return &svc, nil
}

func scanEdge(row pgx.Row) (*Edge, error) {
	var e Edge
	err := row.Scan(&e.ID, &e.TargetID, &e.FromAssetID, &e.ToAssetID, &e.RelType, &e.Status,
		&e.FirstSeenRunID, &e.LastSeenRunID, &e.FirstSeen, &e.LastSeen, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconerr.ErrNotFound
		}
		return nil, fmt.Errorf("scan edge: %w", err)
	}
	return &e, nil
}
