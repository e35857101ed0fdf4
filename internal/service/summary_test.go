package service_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/saadjs/nutri-cli/internal/service"
)

func TestPatientSummaryCSV(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	_, err := service.SeedDemo(db)
	require.NoError(t, err)
	_, err = service.AddAnthropometry(db, "p1", service.AnthropometryInput{Date: "2022-01-01", Weight: 80, Height: 165})
	require.NoError(t, err)

	rows, err := service.PatientSummaries(db, time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var buf bytes.Buffer
	require.NoError(t, service.WritePatientSummaryCSV(&buf, rows))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, service.SummaryHeader, records[0])
	assert.Equal(t, []string{"p1", "Ana García López", "ana@paciente.com", "555-0199", "37", "F", "Arquitecta", "75.5", "27.7"}, records[1],
		"the most recent measurement by date is reported")
	assert.Equal(t, "-", records[2][7])
	assert.Equal(t, "-", records[2][8])
}

func TestPatientSummaryRejectsEmptyList(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := service.WritePatientSummaryCSV(&buf, nil)
	require.ErrorIs(t, err, service.ErrNothingToExport)
	assert.Equal(t, "no patients to export", err.Error())
	assert.Zero(t, buf.Len())

	_, err = service.PatientSummaryXLSX(nil)
	assert.ErrorIs(t, err, service.ErrNothingToExport)
}

func TestPatientSummaryXLSX(t *testing.T) {
	t.Parallel()
	rows := []service.PatientSummary{{ID: "p1", Name: "Ana", Age: "36", Gender: "F", LastWeight: "70", LastIMC: "24.2"}}
	data, err := service.PatientSummaryXLSX(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Pacientes"}, f.GetSheetList())
	header, err := f.GetCellValue("Pacientes", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)
	imc, err := f.GetCellValue("Pacientes", "I2")
	require.NoError(t, err)
	assert.Equal(t, "24.2", imc)
}
