package db

import (
	"path/filepath"
	"testing"
)

func TestNew_CreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	tables := []string{"projects", "export_jobs", "config", "_migrations"}
	for _, table := range tables {
		var name string
		err := database.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestNew_WALEnabled(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	var journalMode string
	err = database.Conn().QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode error = %v", err)
	}

	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	_, err = database.Conn().Exec(`
		INSERT INTO export_jobs (id, project_id, status, format, width, height, created_at, updated_at)
		VALUES ('orphan', 'missing-project', 'queued', 'mp4', 1920, 1080, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')
	`)
	if err == nil {
		t.Fatal("expected foreign key violation for export job without project")
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db1, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	db1.Close()

	db2, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db2.Close()

	var count int
	err = db2.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count)
	if err != nil {
		t.Fatalf("count migrations error = %v", err)
	}

	if count != 2 {
		t.Errorf("migration count = %d, want 2", count)
	}
}

func TestMarkInterruptedExports(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db1, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = db1.Conn().Exec(`
		INSERT INTO projects (id, name, session, created_at, updated_at)
		VALUES ('p1', 'Demo', '{}', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z');
		INSERT INTO export_jobs (id, project_id, status, format, width, height, created_at, updated_at)
		VALUES ('stuck', 'p1', 'submitting', 'mp4', 1920, 1080, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z'),
		       ('queued', 'p1', 'queued', 'mp4', 1920, 1080, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z');
	`)
	if err != nil {
		t.Fatalf("insert fixtures error = %v", err)
	}
	db1.Close()

	db2, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db2.Close()

	var status, errMsg string
	err = db2.Conn().QueryRow("SELECT status, error FROM export_jobs WHERE id = 'stuck'").Scan(&status, &errMsg)
	if err != nil {
		t.Fatalf("query job error = %v", err)
	}
	if status != "failed" {
		t.Errorf("job status = %s, want failed", status)
	}
	if errMsg != InterruptedMessage {
		t.Errorf("job error = %s, want %q", errMsg, InterruptedMessage)
	}

	err = db2.Conn().QueryRow("SELECT status FROM export_jobs WHERE id = 'queued'").Scan(&status)
	if err != nil {
		t.Fatalf("query job error = %v", err)
	}
	if status != "queued" {
		t.Errorf("queued job status = %s, want queued (runner resumes it)", status)
	}
}
