package shared

import (
	"context"
	"errors"
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
			if m.Name == "" {
				t.Errorf("migration version %d missing name", m.Version)
			}
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		for _, table := range []string{"expiry_records", "session_events"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount)
		if err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}

func TestParseMigrationFile(t *testing.T) {
	tt := []struct {
		file      string
		version   int
		name      string
		direction string
		ok        bool
	}{
		{file: "0000_create_expiry_records_up.sql", version: 0, name: "create_expiry_records", direction: "up", ok: true},
		{file: "0012_add_index_down.sql", version: 12, name: "add_index", direction: "down", ok: true},
		{file: "0001_create_session_events.sql"},
		{file: "readme.md"},
		{file: "abc_thing_up.sql"},
		{file: "0003_up.sql"},
	}

	for _, tc := range tt {
		t.Run(tc.file, func(t *testing.T) {
			version, name, direction, ok := parseMigrationFile(tc.file)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if version != tc.version || name != tc.name || direction != tc.direction {
				t.Errorf("got (%d, %q, %q), want (%d, %q, %q)", version, name, direction, tc.version, tc.name, tc.direction)
			}
		})
	}
}

func TestMigrationStatus(t *testing.T) {
	ctx := context.Background()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()
	ConfigureDatabase(db, 1, 1)

	states, err := MigrationStatus(ctx, db)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	for _, s := range states {
		if s.Applied() {
			t.Errorf("migration %d should be pending on a fresh database", s.Version)
		}
	}

	if err := RunMigrationsContext(ctx, db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	states, _ = MigrationStatus(ctx, db)
	for _, s := range states {
		if !s.Applied() {
			t.Errorf("migration %d should be applied", s.Version)
		}
	}

	for range states {
		if err := RollbackMigrationContext(ctx, db); err != nil {
			t.Fatalf("rollback: %v", err)
		}
	}
	if err := RollbackMigrationContext(ctx, db); !errors.Is(err, ErrNoMigrations) {
		t.Errorf("expected ErrNoMigrations, got %v", err)
	}

	states, _ = MigrationStatus(ctx, db)
	if states[0].Applied() {
		t.Error("expected every migration to be rolled back")
	}
}

func TestSplitStatements(t *testing.T) {
	script := "-- header; with a semicolon\nCREATE TABLE a (x INTEGER);\n\nCREATE INDEX i ON a(x); -- trailing\n"
	got := splitStatements(script)
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (x INTEGER)" {
		t.Errorf("unexpected first statement %q", got[0])
	}
}

func TestExpiryRecordsSchema(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()
	ConfigureDatabase(db, 1, 1)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Run("accepts known kinds", func(t *testing.T) {
		for _, kind := range []string{"access", "refresh"} {
			if _, err := db.Exec("INSERT INTO expiry_records (kind, expires_at) VALUES (?, ?)", kind, 1700000000000); err != nil {
				t.Errorf("insert %s: %v", kind, err)
			}
		}
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		if _, err := db.Exec("INSERT INTO expiry_records (kind, expires_at) VALUES (?, ?)", "session", 1); err == nil {
			t.Error("expected CHECK constraint to reject unknown kind")
		}
	})

	t.Run("kind is unique", func(t *testing.T) {
		if _, err := db.Exec("INSERT INTO expiry_records (kind, expires_at) VALUES (?, ?)", "access", 2); err == nil {
			t.Error("expected primary key violation for duplicate kind")
		}
	})
}
