package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations and rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Fatal("expected applied migrations to be recorded")
		}

		for _, table := range []string{"session_store", "search_history"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("expected table %s to exist: %v", table, err)
			}
		}

		// applying again is a no-op
		if err := RunMigrations(db); err != nil {
			t.Fatalf("rerunning migrations must be idempotent: %v", err)
		}
		var rerunCount int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rerunCount); err != nil {
			t.Fatal(err)
		}
		if rerunCount != count {
			t.Errorf("expected %d applied migrations after rerun, got %d", count, rerunCount)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM session_store LIMIT 1"); err == nil {
			t.Error("expected session_store to be dropped after rollback")
		}
	})

	t.Run("rollback without applied migrations fails", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		if _, err := db.Exec(`CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
			t.Fatal(err)
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error with nothing to rollback")
		}
	})
}
