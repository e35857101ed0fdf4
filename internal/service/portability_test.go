package service_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

func seededDB(t *testing.T) *service.Snapshot {
	t.Helper()
	db := newTestDB(t)
	defer db.Close()
	seeded, err := service.SeedDemo(db)
	require.NoError(t, err)
	require.True(t, seeded)
	snap, err := service.ExportSnapshot(db)
	require.NoError(t, err)
	return snap
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	snap := seededDB(t)
	require.Len(t, snap.Users, 3)
	require.Len(t, snap.Patients, 2)
	assert.Nil(t, snap.Theme, "an unset theme is not exported")
	for _, u := range snap.Users {
		assert.NotEmpty(t, u.PasswordHash)
		assert.Empty(t, u.Password)
	}

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	parsed, err := service.ParseSnapshot(raw)
	require.NoError(t, err)

	target := newTestDB(t)
	defer target.Close()
	report, err := service.ImportSnapshot(target, parsed, service.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, service.ImportModeReplace, report.Mode)
	assert.Equal(t, 3, report.Users)
	assert.Equal(t, 2, report.Patients)
	assert.Equal(t, 1, report.Plans)

	again, err := service.ExportSnapshot(target)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, again, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	u, err := service.Login(target, "ana@paciente.com", "ana123")
	require.NoError(t, err, "imported hashes keep working")
	assert.Equal(t, "p1", u.PatientID)
}

func TestImportKeepsDerivedValuesVerbatim(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	snap := &service.Snapshot{
		Users: []model.User{},
		Patients: []model.Patient{{
			ID: "p9", Name: "Importada", Gender: "F", DOB: "1990-01-01",
			Anthropometry: []model.Anthropometry{{ID: "m9", Date: "2026-01-01", Weight: 70, Height: 170, IMC: 99.9, BMR: 1, TDEE: 2}},
		}},
	}
	_, err := service.ImportSnapshot(db, snap, service.ImportOptions{})
	require.NoError(t, err)
	m, _, err := service.GetAnthropometry(db, "m9")
	require.NoError(t, err)
	assert.Equal(t, 99.9, m.IMC)
	assert.Equal(t, 1.0, m.BMR)
}

func TestParseSnapshotRejectsInvalidDocuments(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"not json":          `{"users": [`,
		"missing patients":  `{"users": []}`,
		"missing users":     `{"patients": []}`,
		"null patients":     `{"users": [], "patients": null}`,
		"user without role": `{"users": [{"email": "a@b.com", "password": "x"}], "patients": []}`,
		"user bad role":     `{"users": [{"email": "a@b.com", "password": "x", "role": "root"}], "patients": []}`,
		"user no password":  `{"users": [{"email": "a@b.com", "role": "admin"}], "patients": []}`,
		"patient no name":   `{"users": [], "patients": [{"id": "p1"}]}`,
		"duplicate patient": `{"users": [], "patients": [{"id": "p1", "name": "A"}, {"id": "p1", "name": "B"}]}`,
		"note id shared":    `{"users": [], "patients": [{"id": "p1", "name": "A", "notes": [{"id": "1700000000000"}]}, {"id": "p2", "name": "B", "notes": [{"id": "1700000000000"}]}]}`,
		"lab id repeated":   `{"users": [], "patients": [{"id": "p1", "name": "A", "labs": [{"id": "l1"}, {"id": "l1"}]}]}`,
		"plan id shared":    `{"users": [], "patients": [{"id": "p1", "name": "A", "plans": [{"id": "x"}]}, {"id": "p2", "name": "B", "plans": [{"id": "x"}]}]}`,
		"bad theme":         `{"users": [], "patients": [], "theme": {"appBg": "blue"}}`,
	}
	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := service.ParseSnapshot([]byte(raw))
			require.ErrorIs(t, err, service.ErrInvalidImport)
			assert.Contains(t, err.Error(), "invalid import file")
		})
	}

	snap, err := service.ParseSnapshot([]byte(`{"users": [], "patients": []}`))
	require.NoError(t, err)
	assert.Empty(t, snap.Patients)
}

func TestInvalidImportLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	_, err := service.SeedDemo(db)
	require.NoError(t, err)
	before, err := service.ExportSnapshot(db)
	require.NoError(t, err)

	_, err = service.ParseSnapshot([]byte(`{"users": [{"email": "x@y.com", "password": "p", "role": "admin"}]}`))
	require.ErrorIs(t, err, service.ErrInvalidImport)

	conflicting := &service.Snapshot{
		Users: []model.User{},
		Patients: []model.Patient{
			{ID: "n1", Name: "Uno", Notes: []model.Note{{ID: "dup", Date: "2026-01-01"}}},
			{ID: "n2", Name: "Dos", Notes: []model.Note{{ID: "dup", Date: "2026-01-02"}}},
		},
	}
	_, err = service.ImportSnapshot(db, conflicting, service.ImportOptions{})
	require.ErrorIs(t, err, service.ErrInvalidImport)
	assert.Contains(t, err.Error(), `duplicate note id "dup" in patients "n1" and "n2"`)

	measurements := &service.Snapshot{
		Users: []model.User{},
		Patients: []model.Patient{
			{ID: "n1", Name: "Uno", Anthropometry: []model.Anthropometry{{ID: "1700000000000", Date: "2026-01-01", Weight: 60, Height: 160}}},
			{ID: "n2", Name: "Dos", Anthropometry: []model.Anthropometry{{ID: "1700000000000", Date: "2026-01-02", Weight: 70, Height: 170}}},
		},
	}
	_, err = service.ImportSnapshot(db, measurements, service.ImportOptions{Mode: service.ImportModeMerge})
	require.ErrorIs(t, err, service.ErrInvalidImport)

	after, err := service.ExportSnapshot(db)
	require.NoError(t, err)
	if diff := cmp.Diff(before, after, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("store changed after failed import (-before +after):\n%s", diff)
	}
}

func TestImportDryRunAndMerge(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	_, err := service.SeedDemo(db)
	require.NoError(t, err)
	admin, err := service.Login(db, service.DemoAdminEmail, service.DemoAdminPassword)
	require.NoError(t, err)
	require.NoError(t, service.SetSession(db, admin.ID))

	incoming := &service.Snapshot{
		Users:    []model.User{{ID: "u9", Email: "nuevo@nutri.com", Password: "pw", Role: model.RoleAdmin}},
		Patients: []model.Patient{{ID: "p1", Name: "Ana G. López", Gender: "F"}, {ID: "p7", Name: "Nueva"}},
		Theme:    &service.ThemePresets[1].Config,
	}

	report, err := service.ImportSnapshot(db, incoming, service.ImportOptions{Mode: service.ImportModeMerge, DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Patients)
	count, err := service.CountPatients(db)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "dry run writes nothing")

	_, err = service.ImportSnapshot(db, incoming, service.ImportOptions{Mode: service.ImportModeMerge})
	require.NoError(t, err)
	count, err = service.CountPatients(db)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	p1, err := service.GetPatient(db, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ana G. López", p1.Name)
	assert.Empty(t, p1.Plans, "merged patients take the incoming records")

	ana, err := service.Login(db, "ana@paciente.com", "ana123")
	require.NoError(t, err)
	assert.Equal(t, "p1", ana.PatientID, "user links survive a merge")

	current, err := service.CurrentSession(db)
	require.NoError(t, err)
	require.NotNil(t, current)

	theme, err := service.GetTheme(db)
	require.NoError(t, err)
	assert.Equal(t, service.ThemePresets[1].Config, theme)
}

func TestMergeImportRejectsIDsOwnedByAnotherPatient(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	_, err := service.SeedDemo(db)
	require.NoError(t, err)

	cases := map[string]model.Patient{
		"note":        {ID: "p9", Name: "Nueva", Notes: []model.Note{{ID: "n1", Date: "2026-02-01"}}},
		"measurement": {ID: "p9", Name: "Nueva", Anthropometry: []model.Anthropometry{{ID: "m1", Date: "2026-02-01", Weight: 60, Height: 160}}},
		"lab":         {ID: "p9", Name: "Nueva", Labs: []model.LabResult{{ID: "l1", Name: "Perfil", Date: "2026-02-01"}}},
		"plan":        {ID: "p2", Name: "Carlos Rodríguez", Plans: []model.Plan{{ID: "pl1", Name: "Plan copiado", KcalTarget: 1800}}},
	}
	for kind, incoming := range cases {
		_, err := service.ImportSnapshot(db, &service.Snapshot{Users: []model.User{}, Patients: []model.Patient{incoming}},
			service.ImportOptions{Mode: service.ImportModeMerge})
		require.ErrorIs(t, err, service.ErrInvalidImport, kind)
		assert.Contains(t, err.Error(), `already used by patient "p1"`, kind)
	}

	count, err := service.CountPatients(db)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = service.ImportSnapshot(db, &service.Snapshot{
		Users:    []model.User{},
		Patients: []model.Patient{{ID: "p1", Name: "Ana García López", Notes: []model.Note{{ID: "n1", Date: "2026-02-01"}}}},
	}, service.ImportOptions{Mode: service.ImportModeMerge})
	require.NoError(t, err, "a patient may reuse its own record ids")
}

func TestReplaceImportClearsStaleSession(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	_, err := service.SeedDemo(db)
	require.NoError(t, err)
	require.NoError(t, service.SetSession(db, "u1"))

	report, err := service.ImportSnapshot(db, &service.Snapshot{
		Users:    []model.User{{ID: "u5", Email: "solo@nutri.com", Password: "pw", Role: model.RolePatient, PatientID: "ghost"}},
		Patients: []model.Patient{},
	}, service.ImportOptions{Mode: service.ImportModeReplace})
	require.NoError(t, err)
	assert.True(t, report.SessionCleared)
	assert.Equal(t, 1, report.UnlinkedUsers)

	current, err := service.CurrentSession(db)
	require.NoError(t, err)
	assert.Nil(t, current)
	count, err := service.CountPatients(db)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportRejectsUnknownMode(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	_, err := service.ImportSnapshot(db, &service.Snapshot{}, service.ImportOptions{Mode: "append"})
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = service.ImportSnapshot(db, nil, service.ImportOptions{})
	assert.ErrorIs(t, err, service.ErrInvalidImport)
}
