// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package postgres_test

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
)

var (
	reCreateTableName = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-z_][a-z0-9_]*)`)
	reCreateIndexName = regexp.MustCompile(`(?i)CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-z_][a-z0-9_]*)`)
	reSQLComment      = regexp.MustCompile(`--[^\n]*`)
)

// TestMigrationRollbackIntegrity validates that every up migration has a
// corresponding down migration and that the rollback files are structurally
// sound. This is a static analysis test that does not require a database.
func TestMigrationRollbackIntegrity(t *testing.T) {
	upFiles, err := filepath.Glob(filepath.Join("migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("failed to glob up migrations: %v", err)
	}
	downFiles, err := filepath.Glob(filepath.Join("migrations", "*.down.sql"))
	if err != nil {
		t.Fatalf("failed to glob down migrations: %v", err)
	}
	if len(upFiles) == 0 {
		t.Fatal("no up migration files found")
	}

	upSet := make(map[string]string)
	downSet := make(map[string]string)
	for _, f := range upFiles {
		upSet[strings.TrimSuffix(filepath.Base(f), ".up.sql")] = f
	}
	for _, f := range downFiles {
		downSet[strings.TrimSuffix(filepath.Base(f), ".down.sql")] = f
	}

	for version := range upSet {
		if _, ok := downSet[version]; !ok {
			t.Errorf("migration %s has no down (rollback) file", version)
		}
	}
	for version := range downSet {
		if _, ok := upSet[version]; !ok {
			t.Errorf("orphan rollback: %s.down.sql has no matching up migration", version)
		}
	}

	for version, upPath := range upSet {
		downPath, ok := downSet[version]
		if !ok {
			continue
		}
		t.Run(version, func(t *testing.T) {
			validateMigrationPair(t, upPath, downPath)
		})
	}
}

func validateMigrationPair(t *testing.T, upPath, downPath string) {
	t.Helper()

	upContent, err := os.ReadFile(upPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", filepath.Base(upPath), err)
	}
	downContent, err := os.ReadFile(downPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", filepath.Base(downPath), err)
	}

	upSQL := string(upContent)
	downSQL := string(downContent)

	if strings.TrimSpace(reSQLComment.ReplaceAllString(upSQL, "")) == "" {
		t.Errorf("up migration is empty (no SQL statements)")
	}
	downTrimmed := strings.TrimSpace(reSQLComment.ReplaceAllString(downSQL, ""))
	if downTrimmed == "" {
		t.Errorf("down migration is empty (no SQL statements)")
	}
	if downTrimmed != "" && !regexp.MustCompile(`(?i)\b(DROP|DELETE|ALTER)\b`).MatchString(downSQL) {
		t.Errorf("down migration contains no DROP/DELETE/ALTER statements")
	}

	for _, table := range extractMatches(upSQL, reCreateTableName) {
		pattern := regexp.MustCompile(`(?i)DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?` + regexp.QuoteMeta(table))
		if !pattern.MatchString(downSQL) {
			t.Errorf("up creates table %q but down does not DROP TABLE %s", table, table)
		}
	}
	for _, idx := range extractMatches(upSQL, reCreateIndexName) {
		pattern := regexp.MustCompile(`(?i)DROP\s+INDEX\s+(?:IF\s+EXISTS\s+)?` + regexp.QuoteMeta(idx))
		if !pattern.MatchString(downSQL) {
			t.Errorf("up creates index %q but down does not DROP INDEX %s", idx, idx)
		}
	}
}

// TestMigrationDependencyOrder checks that migrations are numbered
// sequentially with no gaps or duplicate version numbers.
func TestMigrationDependencyOrder(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("migrations", "*.up.sql"))
	if err != nil {
		t.Fatalf("failed to glob migrations: %v", err)
	}
	sort.Strings(files)

	reVersion := regexp.MustCompile(`^(\d+)_`)
	var versions []int
	versionMap := make(map[int]string)

	for _, f := range files {
		base := filepath.Base(f)
		m := reVersion.FindStringSubmatch(base)
		if m == nil {
			t.Errorf("migration %q does not follow NNN_name.up.sql naming convention", base)
			continue
		}
		num := 0
		fmt.Sscanf(m[1], "%d", &num)

		if existing, ok := versionMap[num]; ok {
			t.Errorf("duplicate migration version %d: %s and %s", num, existing, base)
		}
		versionMap[num] = base
		versions = append(versions, num)
	}

	sort.Ints(versions)
	if len(versions) > 0 && versions[0] != 1 {
		t.Errorf("migrations should start at version 1, but first version is %d", versions[0])
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] != versions[i-1]+1 {
			t.Errorf("gap in migration versions: %d to %d", versions[i-1], versions[i])
		}
	}
}

func extractMatches(sql string, re *regexp.Regexp) []string {
	var names []string
	for _, m := range re.FindAllStringSubmatch(sql, -1) {
		names = append(names, m[1])
	}
	return names
}
