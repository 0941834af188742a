// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationInfo describes one known migration and whether it has been applied.
type MigrationInfo struct {
	Version   string
	Applied   bool
	AppliedAt time.Time
}

// Migrate applies all pending up migrations in version order. Each migration
// runs in its own transaction and is recorded in schema_migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, version := range migrationVersions() {
		if applied[version] {
			continue
		}

		sqlBytes, err := migrationsFS.ReadFile("migrations/" + version + ".up.sql")
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}

		if err := db.runMigration(ctx, version, string(sqlBytes), true); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
	}

	return nil
}

// MigrateDown rolls back the most recent `steps` applied migrations.
func (db *DB) MigrateDown(ctx context.Context, steps int) error {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	versions := migrationVersions()
	for i := len(versions) - 1; i >= 0 && steps > 0; i-- {
		version := versions[i]
		if !applied[version] {
			continue
		}

		sqlBytes, err := migrationsFS.ReadFile("migrations/" + version + ".down.sql")
		if err != nil {
			return fmt.Errorf("read rollback %s: %w", version, err)
		}

		if err := db.runMigration(ctx, version, string(sqlBytes), false); err != nil {
			return fmt.Errorf("rollback migration %s: %w", version, err)
		}
		steps--
	}

	return nil
}

// MigrationStatus returns all known migrations with their applied state.
func (db *DB) MigrationStatus(ctx context.Context) ([]MigrationInfo, error) {
	if err := db.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	appliedAt := make(map[string]time.Time)
	for rows.Next() {
		var version string
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		appliedAt[version] = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var infos []MigrationInfo
	for _, version := range migrationVersions() {
		at, ok := appliedAt[version]
		infos = append(infos, MigrationInfo{Version: version, Applied: ok, AppliedAt: at})
	}
	return infos, nil
}

func (db *DB) ensureMigrationsTable(ctx context.Context) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (db *DB) runMigration(ctx context.Context, version, sql string, up bool) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, sql); err != nil {
		return err
	}

	if up {
		_, err = tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
	} else {
		_, err = tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version)
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// migrationVersions lists embedded migration versions in ascending order.
func migrationVersions() []string {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var versions []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version := strings.TrimSuffix(name, ".up.sql")
		if !seen[version] {
			seen[version] = true
			versions = append(versions, version)
		}
	}
	sort.Strings(versions)
	return versions
}
