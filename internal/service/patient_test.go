package service_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

func TestPatientCRUD(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	lifestyle := model.Lifestyle{
		Activity: model.LifestyleActivity{Regular: true, Details: "Caminata"},
		Diet:     model.LifestyleDiet{Water: "2 litros"},
	}
	id, err := service.CreatePatient(db, service.PatientInput{
		Name:       "  Ana García ",
		Email:      "ana@example.com",
		DOB:        "1989-05-15",
		Occupation: "Arquitecta",
		Lifestyle:  &lifestyle,
	})
	require.NoError(t, err)

	p, err := service.GetPatient(db, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana García", p.Name)
	assert.Equal(t, "F", p.Gender, "gender defaults to F")
	if diff := cmp.Diff(lifestyle, p.Lifestyle); diff != "" {
		t.Fatalf("lifestyle mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, p.Notes)
	assert.NotNil(t, p.Clinical.Frequencies)

	phone := "555-0101"
	clinical := model.ClinicalHistory{Background: model.ClinicalBackground{Motive: "Bajar de peso"}}
	require.NoError(t, service.UpdatePatient(db, id, service.PatientPatch{Phone: &phone, Clinical: &clinical}))

	p, err = service.GetPatient(db, id)
	require.NoError(t, err)
	assert.Equal(t, "555-0101", p.Phone)
	assert.Equal(t, "ana@example.com", p.Email, "fields not in the patch are kept")
	assert.Equal(t, "Bajar de peso", p.Clinical.Background.Motive)

	require.NoError(t, service.DeletePatient(db, id))
	_, err = service.GetPatient(db, id)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, service.DeletePatient(db, id), service.ErrNotFound)
}

func TestCreatePatientValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	_, err := service.CreatePatient(db, service.PatientInput{Name: "  "})
	require.ErrorIs(t, err, service.ErrValidation)
	assert.Contains(t, err.Error(), "patient name is required")

	_, err = service.CreatePatient(db, service.PatientInput{Name: "X", Gender: "other"})
	assert.ErrorIs(t, err, service.ErrValidation)

	empty := ""
	assert.ErrorIs(t, service.UpdatePatient(db, "any", service.PatientPatch{Name: &empty}), service.ErrValidation)
	assert.ErrorIs(t, service.UpdatePatient(db, "any", service.PatientPatch{}), service.ErrValidation)
}

func TestListPatientsSearchAndOrder(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	first := addTestPatient(t, db, service.PatientInput{Name: "Carlos Rodríguez", Email: "carlos@paciente.com"})
	second := addTestPatient(t, db, service.PatientInput{Name: "Ana García", Email: "ana@paciente.com"})
	addTestPatient(t, db, service.PatientInput{Name: "Luis Pérez", Email: "luis@correo.com"})

	all, err := service.ListPatients(db, service.PatientFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first, all[0].ID, "patients are listed in creation order")

	hits, err := service.ListPatients(db, service.PatientFilter{Search: "PACIENTE"})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	hits, err = service.ListPatients(db, service.PatientFilter{Search: "garcía"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, second, hits[0].ID)

	limited, err := service.ListPatients(db, service.PatientFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeletePatientCascades(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{DOB: "1990-01-01"})

	noteID, err := service.AddNote(db, pid, service.NoteInput{Objective: "Control"})
	require.NoError(t, err)
	_, err = service.AddPlan(db, pid, service.PlanInput{Name: "Plan", Active: true})
	require.NoError(t, err)
	_, err = service.AddAnthropometry(db, pid, service.AnthropometryInput{Weight: 70, Height: 170})
	require.NoError(t, err)

	require.NoError(t, service.DeletePatient(db, pid))
	_, _, err = service.GetNote(db, noteID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM plans`).Scan(&n))
	assert.Zero(t, n)
}

func TestCreatePatientFromIntake(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	raw := []byte(`{
  "name": "María López",
  "email": "maria@example.com",
  "dob": "1996-04-02",
  "gender": "F",
  "anthropometry": {"weight": 70, "height": 170, "activity": 1.2},
  "lab": {"markers": [{"name": "Glucosa", "value": "90", "unit": "mg/dL"}, {"name": "Colesterol", "value": ""}]},
  "note": {"observations": "Refiere ansiedad nocturna", "nextAppointment": "2026-05-01T10:00"}
}`)
	in, err := service.ParseIntake(raw)
	require.NoError(t, err)

	res, err := service.CreatePatientFromIntake(db, in)
	require.NoError(t, err)
	require.NotEmpty(t, res.AnthropometryID)
	require.NotEmpty(t, res.LabID)
	require.NotEmpty(t, res.NoteID)

	p, err := service.GetPatient(db, res.PatientID)
	require.NoError(t, err)
	require.Len(t, p.Anthropometry, 1)
	m := p.Anthropometry[0]
	assert.Equal(t, 24.2, m.IMC)
	assert.Equal(t, service.DefaultIntakeMeasureNotes, m.Notes)
	assert.Positive(t, m.BMR)

	require.Len(t, p.Labs, 1)
	assert.Equal(t, service.DefaultIntakeLabName, p.Labs[0].Name)
	require.Len(t, p.Labs[0].Markers, 1, "markers without a value are dropped")

	require.Len(t, p.Notes, 1)
	assert.Equal(t, service.DefaultIntakeObjective, p.Notes[0].Objective)
	assert.Equal(t, "2026-05-01T10:00", p.Notes[0].NextAppointment)
}

func TestIntakeAlwaysCreatesNote(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	in, err := service.ParseIntake([]byte(`{"name": "Solo Nombre"}`))
	require.NoError(t, err)
	res, err := service.CreatePatientFromIntake(db, in)
	require.NoError(t, err)
	assert.Empty(t, res.AnthropometryID)
	assert.Empty(t, res.LabID)

	notes, err := service.ListNotes(db, res.PatientID, service.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	date, err := service.ParseTimestamp(notes[0].Date)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), date, 2*time.Minute)
}

func TestParseIntakeRejectsInvalidDocuments(t *testing.T) {
	t.Parallel()
	_, err := service.ParseIntake([]byte(`{"email": "x@example.com"}`))
	require.ErrorIs(t, err, service.ErrValidation)
	assert.Contains(t, err.Error(), "name: required")

	_, err = service.ParseIntake([]byte(`{"name": "X", "email": "not-an-email"}`))
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = service.ParseIntake([]byte(`{`))
	assert.ErrorIs(t, err, service.ErrValidation)
}
