package database

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected file in migrations: %s", e.Name())
		}
	}

	if ups == 0 {
		t.Fatal("expected at least one up migration")
	}
	if ups != downs {
		t.Errorf("every up migration needs a down migration: %d up, %d down", ups, downs)
	}
}

func TestExpensesMigrationDefinesOwnerScopedIndex(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000002_create_expenses_and_categories.up.sql")
	if err != nil {
		t.Fatalf("failed to read migration: %v", err)
	}
	sql := string(data)

	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS expenses",
		"DEFAULT 'Uncategorized'",
		"idx_expenses_user_date ON expenses (user_id, date)",
		"CREATE TABLE IF NOT EXISTS categories",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("migration missing %q", want)
		}
	}
}
