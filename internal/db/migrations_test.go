package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/saadjs/nutri-cli/internal/db"
)

func TestApplyMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nutri.db")
	sqldb, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("first apply migrations: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("second apply migrations: %v", err)
	}

	var migrationCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&migrationCount); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if migrationCount != db.LatestVersion() {
		t.Fatalf("expected %d migration versions, got %d", db.LatestVersion(), migrationCount)
	}

	for _, table := range []string{
		"patients", "users", "app_config", "notes", "note_images", "anthropometry",
		"labs", "lab_markers", "lab_attachments", "plans", "plan_sections", "plan_meals", "adherence",
	} {
		var count int
		if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
			t.Fatalf("check %s table: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected %s table to exist", table)
		}
	}

	var activeIndexCount int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'index' AND name = 'idx_plans_single_active'`).Scan(&activeIndexCount); err != nil {
		t.Fatalf("check single active plan index: %v", err)
	}
	if activeIndexCount != 1 {
		t.Fatalf("expected idx_plans_single_active index to exist")
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db file to exist: %v", err)
	}
}

func TestSingleActivePlanIndexRejectsSecondActivePlan(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "nutri.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := sqldb.Exec(`INSERT INTO patients(id, name) VALUES('p1', 'Ana')`); err != nil {
		t.Fatalf("insert patient: %v", err)
	}
	if _, err := sqldb.Exec(`INSERT INTO plans(id, patient_id, name, active, created_at) VALUES('a', 'p1', 'A', 1, '2024-01-01')`); err != nil {
		t.Fatalf("insert first plan: %v", err)
	}
	if _, err := sqldb.Exec(`INSERT INTO plans(id, patient_id, name, active, created_at) VALUES('b', 'p1', 'B', 1, '2024-01-02')`); err == nil {
		t.Fatalf("expected second active plan insert to fail")
	}
	if _, err := sqldb.Exec(`INSERT INTO plans(id, patient_id, name, active, created_at) VALUES('c', 'p1', 'C', 0, '2024-01-03')`); err != nil {
		t.Fatalf("insert inactive plan: %v", err)
	}
}

func TestDeletingPatientCascades(t *testing.T) {
	t.Parallel()

	sqldb, err := db.Open(filepath.Join(t.TempDir(), "nutri.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqldb.Close()
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	stmts := []string{
		`INSERT INTO patients(id, name) VALUES('p1', 'Ana')`,
		`INSERT INTO users(id, email, password_hash, role, patient_id) VALUES('u1', 'ana@x.com', 'h', 'patient', 'p1')`,
		`INSERT INTO notes(id, patient_id, date) VALUES('n1', 'p1', '2024-01-01')`,
		`INSERT INTO adherence(patient_id, date, breakfast) VALUES('p1', '2024-01-01', 1)`,
	}
	for _, s := range stmts {
		if _, err := sqldb.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	if _, err := sqldb.Exec(`DELETE FROM patients WHERE id = 'p1'`); err != nil {
		t.Fatalf("delete patient: %v", err)
	}

	var notes, adherence int
	_ = sqldb.QueryRow(`SELECT COUNT(1) FROM notes`).Scan(&notes)
	_ = sqldb.QueryRow(`SELECT COUNT(1) FROM adherence`).Scan(&adherence)
	if notes != 0 || adherence != 0 {
		t.Fatalf("expected cascade delete, notes=%d adherence=%d", notes, adherence)
	}
	var link *string
	if err := sqldb.QueryRow(`SELECT patient_id FROM users WHERE id = 'u1'`).Scan(&link); err != nil {
		t.Fatalf("read user: %v", err)
	}
	if link != nil {
		t.Fatalf("expected patient link cleared, got %q", *link)
	}
}
