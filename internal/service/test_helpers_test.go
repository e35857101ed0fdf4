package service_test

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/saadjs/nutri-cli/internal/db"
	"github.com/saadjs/nutri-cli/internal/service"
)

func TestMain(m *testing.M) {
	service.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nutri.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func addTestPatient(t *testing.T, sqldb *sql.DB, in service.PatientInput) string {
	t.Helper()
	if in.Name == "" {
		in.Name = "Paciente Prueba"
	}
	id, err := service.CreatePatient(sqldb, in)
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return id
}
