package nutri

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/saadjs/nutri-cli/internal/service"
)

func TestMain(m *testing.M) {
	service.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type cliEnv struct {
	db     string
	config string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	return cliEnv{db: filepath.Join(dir, "nutri.db"), config: filepath.Join(dir, "config.yaml")}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--db", e.db, "--config", e.config}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "nutri %s", strings.Join(args, " "))
	return out
}

func TestRootHelp(t *testing.T) {
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected help output")
	}
}

func TestInitCommandIdempotent(t *testing.T) {
	env := newCLIEnv(t)
	first := env.mustRun(t, "init")
	assert.Contains(t, first, "Loaded demo practice")

	second := env.mustRun(t, "init")
	assert.NotContains(t, second, "Loaded demo practice")
	assert.Contains(t, second, "Initialized nutri database")
}

func TestLoginWhoamiAndPatientList(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "init")

	_, err := env.run(t, "patient", "list", "--search", "", "--limit", "0", "--json=false")
	require.ErrorIs(t, err, errNotLoggedIn)

	out := env.mustRun(t, "login", "--email", service.DemoAdminEmail, "--password", service.DemoAdminPassword)
	assert.Contains(t, out, "Logged in as Dr. Nutri")

	out = env.mustRun(t, "whoami")
	assert.Contains(t, out, "role=admin")

	out = env.mustRun(t, "patient", "list", "--search", "", "--limit", "0", "--json=false")
	assert.Contains(t, out, "ID\tNAME")
	assert.Contains(t, out, "Ana García López")
	assert.Contains(t, out, "Carlos Rodríguez")

	env.mustRun(t, "logout")
	_, err = env.run(t, "whoami")
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestPatientRoleCannotListPatients(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "init")
	env.mustRun(t, "login", "--email", "ana@paciente.com", "--password", "ana123")

	_, err := env.run(t, "patient", "list", "--search", "", "--limit", "0", "--json=false")
	require.ErrorIs(t, err, service.ErrForbidden)
}

func TestCalcCommand(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "calc",
		"--weight", "70", "--weight-unit", "kg",
		"--height", "170", "--height-unit", "cm",
		"--age", "30", "--gender", "M",
		"--activity", "1.2", "--goal", "maintain", "--json=false")
	assert.Contains(t, out, "BMR: 1618 kcal")
	assert.Contains(t, out, "TDEE: 1942 kcal")
}

func TestExportImportRoundTrip(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "init")
	env.mustRun(t, "login", "--email", service.DemoAdminEmail, "--password", service.DemoAdminPassword)

	exportPath := filepath.Join(t.TempDir(), "practice.json")
	env.mustRun(t, "export", "--format", "json", "--out", exportPath)

	raw, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Len(t, snap.Patients, 2)
	assert.Len(t, snap.Users, 3)

	out := env.mustRun(t, "import", "--in", exportPath, "--mode", "replace", "--dry-run=true")
	assert.Contains(t, out, "Dry run: would import (replace): 3 users, 2 patients")

	out = env.mustRun(t, "import", "--in", exportPath, "--mode", "merge", "--dry-run=false")
	assert.Contains(t, out, "Imported (merge): 3 users, 2 patients")

	csvOut := env.mustRun(t, "export", "--format", "csv", "--out", "-")
	assert.True(t, strings.HasPrefix(csvOut, "ID,Name,Email,Phone,Age,Gender,Occupation,Last Weight,Last IMC\n"))
	assert.Contains(t, csvOut, "p1,Ana García López")

	_, err = env.run(t, "export", "--format", "pdf", "--out", "-")
	require.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "config", "init", "--force=false")
	assert.Contains(t, out, env.config)

	_, err := env.run(t, "config", "init", "--force=false")
	require.Error(t, err)

	out = env.mustRun(t, "config", "show")
	assert.Contains(t, out, "127.0.0.1:8080")
}

func TestVersionCommand(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "version")
	assert.Contains(t, out, "nutri dev")
}

func TestMaintenanceCommandsNeedAdmin(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "init")
	backupPath := filepath.Join(t.TempDir(), "nutri-copy.db")

	_, err := env.run(t, "doctor", "--fix=false")
	require.ErrorIs(t, err, errNotLoggedIn)

	env.mustRun(t, "login", "--email", "ana@paciente.com", "--password", "ana123")
	_, err = env.run(t, "doctor", "--fix=true")
	require.ErrorIs(t, err, service.ErrForbidden)
	_, err = env.run(t, "backup", "create", "--out", backupPath)
	require.ErrorIs(t, err, service.ErrForbidden)
	_, err = env.run(t, "backup", "restore", "--file", backupPath, "--force=true")
	require.ErrorIs(t, err, service.ErrForbidden)

	env.mustRun(t, "login", "--email", service.DemoAdminEmail, "--password", service.DemoAdminPassword)
	out := env.mustRun(t, "doctor", "--fix=true")
	assert.Contains(t, out, "Fixed rows: 0")
	env.mustRun(t, "backup", "create", "--out", backupPath)
	out = env.mustRun(t, "backup", "restore", "--file", backupPath, "--force=true")
	assert.Contains(t, out, "Restored backup")

	fresh := newCLIEnv(t)
	out = fresh.mustRun(t, "backup", "restore", "--file", backupPath, "--force=false")
	assert.Contains(t, out, "Restored backup", "a missing database can be restored without a session")
}
