package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

func TestLabLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	id, err := service.AddLab(db, pid, service.LabInput{
		Date: "2026-01-20",
		Markers: []model.LabMarker{
			{Name: "Glucosa", Value: "95", Unit: "mg/dL", Flag: "Normal"},
			{Name: "Colesterol", Value: "", Unit: "mg/dL"},
			{Name: "Triglicéridos", Value: "150", Unit: "mg/dL", Flag: "high"},
		},
		Attachments: []string{"https://example.com/lab.png"},
	})
	require.NoError(t, err)

	lab, owner, err := service.GetLab(db, id)
	require.NoError(t, err)
	assert.Equal(t, pid, owner)
	assert.Equal(t, service.DefaultLabName, lab.Name)
	require.Len(t, lab.Markers, 2, "markers without a value are dropped")
	assert.Equal(t, "normal", lab.Markers[0].Flag)
	assert.Equal(t, "Triglicéridos", lab.Markers[1].Name)
	assert.Equal(t, []string{"https://example.com/lab.png"}, lab.Attachments)

	require.NoError(t, service.UpdateLab(db, id, service.LabInput{
		Name:    "Perfil Lipídico",
		Date:    "2026-02-01",
		Markers: []model.LabMarker{{Name: "HDL", Value: "50", Unit: "mg/dL"}},
	}))
	labs, err := service.ListLabs(db, pid)
	require.NoError(t, err)
	require.Len(t, labs, 1)
	assert.Equal(t, "Perfil Lipídico", labs[0].Name)
	require.Len(t, labs[0].Markers, 1)
	assert.Empty(t, labs[0].Attachments)

	require.NoError(t, service.DeleteLab(db, id))
	assert.ErrorIs(t, service.DeleteLab(db, id), service.ErrNotFound)
}

func TestLabRejectsUnknownFlag(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	_, err := service.AddLab(db, pid, service.LabInput{Markers: []model.LabMarker{{Name: "Glucosa", Value: "300", Flag: "critical"}}})
	assert.ErrorIs(t, err, service.ErrValidation)
	_, err = service.AddLab(db, pid, service.LabInput{Markers: []model.LabMarker{{Value: "300"}}})
	assert.ErrorIs(t, err, service.ErrValidation)
}
