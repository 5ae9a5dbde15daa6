package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/runtime/mock"
)

// Snapshot is a stored metadata tree.
type Snapshot struct {
	ID        uuid.UUID       `json:"id"`
	Module    string          `json:"module"`
	Digest    string          `json:"digest"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Tree decodes the stored metadata.
func (s *Snapshot) Tree() (*mock.Metadata, error) {
	var md mock.Metadata
	if err := json.Unmarshal(s.Metadata, &md); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", s.ID, err)
	}
	return &md, nil
}

// SaveSnapshot stores md for module under a new id.
func (s *Store) SaveSnapshot(ctx context.Context, module, digest string, md *mock.Metadata) (*Snapshot, error) {
	data, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}

	snap := &Snapshot{
		ID:        uuid.New(),
		Module:    module,
		Digest:    digest,
		Metadata:  data,
		CreatedAt: s.now(),
	}

	_, err = s.db.ExecContext(ctx,
		s.rebind("INSERT INTO snapshots (id, module, digest, metadata, created_at) VALUES (?, ?, ?, ?, ?)"),
		snap.ID.String(), snap.Module, snap.Digest, string(snap.Metadata), snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug("saved snapshot", zap.String("id", snap.ID.String()), zap.String("module", module))
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var (
		snap     Snapshot
		id       string
		metadata string
	)
	if err := row.Scan(&id, &snap.Module, &snap.Digest, &metadata, &snap.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot id %q: %w", id, err)
	}
	snap.ID = parsed
	snap.Metadata = json.RawMessage(metadata)
	return &snap, nil
}

// GetSnapshot loads one snapshot.
func (s *Store) GetSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, module, digest, metadata, created_at FROM snapshots WHERE id = ?"),
		id.String())
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns the snapshots of module, newest first. An empty
// module lists every snapshot.
func (s *Store) ListSnapshots(ctx context.Context, module string) ([]*Snapshot, error) {
	query := "SELECT id, module, digest, metadata, created_at FROM snapshots"
	var args []any
	if module != "" {
		query += " WHERE module = ?"
		args = append(args, module)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes a snapshot and its recorded calls.
func (s *Store) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM stub_calls WHERE snapshot_id = ?"), id.String()); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM snapshots WHERE id = ?"), id.String())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}
