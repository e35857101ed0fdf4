package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/service"
)

func TestDoctorFindsAndFixesProblems(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	_, err := service.SeedDemo(db)
	require.NoError(t, err)

	report, err := service.RunDoctor(db, false)
	require.NoError(t, err)
	assert.True(t, report.Healthy())

	_, err = db.Exec(`UPDATE patients SET lifestyle_json = '{broken' WHERE id = 'p2'`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO adherence(patient_id, date) VALUES('p1', '2026-01-01')`)
	require.NoError(t, err)
	_, err = db.Exec(`PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE users SET patient_id = 'ghost' WHERE id = 'u3'`)
	require.NoError(t, err)
	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	report, err = service.RunDoctor(db, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.InvalidDocuments)
	assert.Equal(t, 1, report.EmptyAdherenceRows)
	assert.Equal(t, 1, report.DanglingUserLinks)
	assert.Zero(t, report.FixedRows)

	report, err = service.RunDoctor(db, true)
	require.NoError(t, err)
	assert.Equal(t, 3, report.FixedRows)

	report, err = service.RunDoctor(db, false)
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	_, err = service.GetPatient(db, "p2")
	require.NoError(t, err)
}

func TestBackupCreateListRestore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nutri.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite bytes"), 0o600))

	backupDir := filepath.Join(dir, "backups")
	info, err := service.CreateBackup(dbPath, filepath.Join(backupDir, "nutri-20260101-000000.db"))
	require.NoError(t, err)
	assert.Len(t, info.Checksum, 64)

	items, err := service.ListBackups(backupDir)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, info.Checksum, items[0].Checksum)

	assert.Error(t, service.RestoreBackup(info.Path, dbPath, false), "an existing db needs force")
	require.NoError(t, os.WriteFile(dbPath, []byte("changed"), 0o600))
	require.NoError(t, service.RestoreBackup(info.Path, dbPath, true))
	got, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(got))

	require.NoError(t, os.WriteFile(info.Path, []byte("tampered"), 0o600))
	assert.Error(t, service.RestoreBackup(info.Path, filepath.Join(dir, "other.db"), false))
}
