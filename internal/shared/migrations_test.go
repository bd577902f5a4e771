package shared

import (
	"database/sql"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	var found string
	err := db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return true
}

func TestRunMigrations(t *testing.T) {
	t.Run("CreatesSchema", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}

		for _, table := range []string{"run_cache", "run_cache_sequence", "schema_migrations"} {
			if !tableExists(t, db, table) {
				t.Errorf("expected table %s", table)
			}
		}

		// Sequence singleton row seeded at zero.
		var value int
		if err := db.QueryRow("SELECT value FROM run_cache_sequence WHERE id = 1").Scan(&value); err != nil {
			t.Fatalf("failed to read sequence seed: %v", err)
		}
		if value != 0 {
			t.Errorf("expected sequence seeded at 0, got %d", value)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first RunMigrations failed: %v", err)
		}

		// Data must survive a second run.
		if _, err := db.Exec(
			"INSERT INTO run_cache (id, seq, run_number, payload, cached_at) VALUES ('x', 1, 100, '{}', CURRENT_TIMESTAMP)",
		); err != nil {
			t.Fatalf("failed to insert: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("second RunMigrations failed: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM run_cache").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("re-running migrations must not touch data, got %d rows", count)
		}
	})
}

func TestRollbackMigration(t *testing.T) {
	t.Run("DropsSchema", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("RollbackMigration failed: %v", err)
		}

		if tableExists(t, db, "run_cache") {
			t.Error("run_cache should be dropped")
		}
		if tableExists(t, db, "run_cache_sequence") {
			t.Error("run_cache_sequence should be dropped")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("expected no recorded migrations, got %d", count)
		}
	})

	t.Run("NothingToRollback", func(t *testing.T) {
		db := newTestDB(t)

		if err := createMigrationsTable(db); err != nil {
			t.Fatal(err)
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error with no applied migrations")
		}
	})

	t.Run("ReapplyAfterRollback", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("RollbackMigration failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("re-apply failed: %v", err)
		}

		if !tableExists(t, db, "run_cache") {
			t.Error("run_cache should exist again")
		}
	})
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}

	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}

	for i, m := range migrations {
		if m.Up == "" || m.Down == "" {
			t.Errorf("migration %d incomplete", m.Version)
		}
		if i > 0 && migrations[i-1].Version >= m.Version {
			t.Error("migrations not sorted by version")
		}
	}
}
