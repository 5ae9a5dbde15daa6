package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type migration struct {
	version    string
	statements []string
}

// migrations run in order; applied versions are recorded in schema_migrations.
var migrations = []migration{
	{
		version: "0001_snapshots",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS snapshots (
    id VARCHAR(36) PRIMARY KEY,
    module TEXT NOT NULL,
    digest TEXT NOT NULL,
    metadata TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS snapshots_module_idx ON snapshots (module, created_at)`,
		},
	},
	{
		version: "0002_stub_calls",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS stub_calls (
    snapshot_id VARCHAR(36) NOT NULL,
    stub TEXT NOT NULL,
    seq INTEGER NOT NULL,
    invocation_order BIGINT NOT NULL,
    args TEXT NOT NULL,
    result_type VARCHAR(16) NOT NULL,
    result_value TEXT,
    error TEXT,
    PRIMARY KEY (snapshot_id, stub, seq)
)`,
		},
	},
}

const createMigrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
)`

// Migrate brings the schema up to date. It returns the versions it applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	if _, err := s.db.ExecContext(ctx, createMigrationsTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx,
				s.rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"),
				m.version, s.now())
			return err
		})
		if err != nil {
			return ran, fmt.Errorf("migration %s failed: %w", m.version, err)
		}
		s.logger.Info("applied migration", zap.String("version", m.version))
		ran = append(ran, m.version)
	}
	return ran, nil
}

func (s *Store) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
