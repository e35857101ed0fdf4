package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

func TestAdherenceScoreAndLevels(t *testing.T) {
	t.Parallel()
	score := service.AdherenceScore(model.AdherenceChecks{Breakfast: true, Lunch: true, Dinner: false, Supplements: true})
	assert.Equal(t, 3, score)
	assert.Equal(t, "3/4", service.FormatScore(score))
	assert.Equal(t, 75.0, service.AdherencePercent(score))

	assert.Equal(t, service.AdherenceNone, service.LevelForScore(0))
	assert.Equal(t, service.AdherenceLow, service.LevelForScore(1))
	assert.Equal(t, service.AdherencePartial, service.LevelForScore(2))
	assert.Equal(t, service.AdherencePartial, service.LevelForScore(3))
	assert.Equal(t, service.AdherenceComplete, service.LevelForScore(4))
}

func TestMapSectionToCheck(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Desayuno":         service.CheckBreakfast,
		"Almuerzo":         service.CheckLunch,
		"Comida principal": service.CheckLunch,
		"CENA":             service.CheckDinner,
	}
	for title, want := range cases {
		got, ok := service.MapSectionToCheck(title)
		require.True(t, ok, title)
		assert.Equal(t, want, got, title)
	}
	_, ok := service.MapSectionToCheck("Colación")
	assert.False(t, ok)
}

func TestSetAndToggleAdherence(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	day, found, err := service.GetAdherence(db, pid, "2026-03-02")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, day.Completed)
	assert.Equal(t, service.AdherenceTotal, day.Total)

	rec, err := service.SetAdherence(db, pid, "2026-03-02", model.AdherenceChecks{Breakfast: true, Lunch: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Completed)

	rec, err = service.ToggleAdherence(db, pid, "2026-03-02", "lunch")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Completed)
	assert.False(t, rec.Checks.Lunch)

	rec, err = service.ToggleAdherence(db, pid, "2026-03-03", "supplements")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Completed)

	_, err = service.ToggleAdherence(db, pid, "2026-03-03", "snack")
	assert.ErrorIs(t, err, service.ErrValidation)

	items, err := service.ListAdherence(db, pid, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2026-03-02", items[0].Date)
	assert.Equal(t, "2026-03-03", items[1].Date)
}

func TestAdherenceRequiresPatient(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	_, err := service.SetAdherence(db, "missing", "2026-03-02", model.AdherenceChecks{Breakfast: true})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAdherenceTrendFillsMissingDays(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	_, err := service.SetAdherence(db, pid, "2026-03-10", model.AdherenceChecks{Breakfast: true, Lunch: true, Dinner: true, Supplements: true})
	require.NoError(t, err)
	_, err = service.SetAdherence(db, pid, "2026-03-08", model.AdherenceChecks{Dinner: true})
	require.NoError(t, err)

	end := time.Date(2026, 3, 10, 20, 0, 0, 0, time.Local)
	points, err := service.AdherenceTrend(db, pid, end, 0)
	require.NoError(t, err)
	require.Len(t, points, service.DefaultTrendDays)
	assert.Equal(t, "2026-03-01", points[0].Date)
	assert.Equal(t, 0.0, points[0].Percent)
	assert.Equal(t, 25.0, points[7].Percent)
	assert.Equal(t, 100.0, points[9].Percent)
}

func TestAdherenceCalendarCoversMonth(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{})

	_, err := service.SetAdherence(db, pid, "2026-02-14", model.AdherenceChecks{Breakfast: true, Lunch: true, Dinner: true})
	require.NoError(t, err)

	days, err := service.AdherenceCalendar(db, pid, "2026-02")
	require.NoError(t, err)
	require.Len(t, days, 28)
	assert.Equal(t, service.AdherencePartial, days[13].Level)
	assert.Equal(t, service.AdherenceNone, days[0].Level)

	_, err = service.AdherenceCalendar(db, pid, "02/2026")
	assert.ErrorIs(t, err, service.ErrValidation)
}
