package target

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/pkg/reconerr"
	"github.com/corvidreef/reconwatch/pkg/scope"
)

const targetColumns = `id, name, scope, active, created_at, updated_at`

// Store is the target's persistence layer.
type Store struct {
	rw db.DBTX
}

// New creates a Store.
func New(rw db.DBTX) *Store {
	return &Store{rw: rw}
}

// Create inserts a new Target.
func (s *Store) Create(ctx context.Context, name string, sc scope.Config) (*Target, error) {
	raw, err := json.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("marshal scope: %w", err)
	}

	row := s.rw.QueryRow(ctx, `
		INSERT INTO targets (id, name, scope, active, created_at, updated_at)
		VALUES ($1, $2, $3, true, now(), now())
		RETURNING `+targetColumns,
		uuid.New(), name, raw)
	return scanTarget(row)
}

// Get returns a Target by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Target, error) {
	row := s.rw.QueryRow(ctx, `SELECT `+targetColumns+` FROM targets WHERE id = $1`, id)
	return scanTarget(row)
}

// List returns every Target, most recently created first.
func (s *Store) List(ctx context.Context) ([]*Target, error) {
	rows, err := s.rw.Query(ctx, `SELECT `+targetColumns+` FROM targets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []*Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTarget(row pgx.Row) (*Target, error) {
	var t Target
	var raw []byte
	err := row.Scan(&t.ID, &t.Name, &raw, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconerr.ErrNotFound
		}
		return nil, fmt.Errorf("scan target: %w", err)
	}
	if err := json.Unmarshal(raw, &t.Scope); err != nil {
		return nil, fmt.Errorf("unmarshal scope: %w", err)
	}
	return &t, nil
}
