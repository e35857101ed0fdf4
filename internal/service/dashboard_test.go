package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/service"
)

func TestBuildDashboard(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	a := addTestPatient(t, db, service.PatientInput{Name: "Ana"})
	b := addTestPatient(t, db, service.PatientInput{Name: "Beto"})
	c := addTestPatient(t, db, service.PatientInput{Name: "Caro"})
	for _, n := range []struct {
		patient string
		in      service.NoteInput
	}{
		{a, service.NoteInput{Date: "2026-03-09T10:00", NextAppointment: "2026-03-12T09:00", Objective: "Control"}},
		{a, service.NoteInput{Date: "2026-03-11T08:00"}},
		{b, service.NoteInput{Date: "2026-03-02T10:00", NextAppointment: "2026-03-11T16:00"}},
		{c, service.NoteInput{Date: "2026-03-10T10:00", NextAppointment: "2026-03-11T09:30"}},
	} {
		_, err := service.AddNote(db, n.patient, n.in)
		require.NoError(t, err)
	}

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.Local)
	d, err := service.BuildDashboard(db, now, "")
	require.NoError(t, err)

	assert.Equal(t, 3, d.TotalPatients)
	require.Len(t, d.Week, 7)
	assert.Equal(t, "2026-03-09", d.Week[0].Date)
	assert.Equal(t, "Lunes", d.Week[0].Label)
	assert.Equal(t, []int{1, 1, 1, 0, 0, 0, 0}, []int{d.Week[0].Count, d.Week[1].Count, d.Week[2].Count, d.Week[3].Count, d.Week[4].Count, d.Week[5].Count, d.Week[6].Count})
	assert.Equal(t, 3, d.WeeklyTotal)

	assert.Equal(t, "2026-03-11", d.AgendaDate)
	require.Len(t, d.Agenda, 2)
	assert.Equal(t, c, d.Agenda[0].PatientID, "agenda is chronological")
	assert.Equal(t, b, d.Agenda[1].PatientID)

	require.Len(t, d.Upcoming, 3)
	assert.Equal(t, []string{c, b, a}, []string{d.Upcoming[0].PatientID, d.Upcoming[1].PatientID, d.Upcoming[2].PatientID})

	require.Len(t, d.Tomorrow, 1)
	assert.Equal(t, a, d.Tomorrow[0].PatientID)
	assert.Equal(t, "Control", d.Tomorrow[0].Objective)

	require.Len(t, d.Recent, 3)
	assert.Equal(t, "2026-03-11T08:00", d.Recent[0].LastVisit)

	other, err := service.BuildDashboard(db, now, "2026-03-12")
	require.NoError(t, err)
	require.Len(t, other.Agenda, 1)
	assert.Equal(t, a, other.Agenda[0].PatientID)

	_, err = service.BuildDashboard(db, now, "12/03/2026")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestWeekStart(t *testing.T) {
	t.Parallel()
	sunday := time.Date(2026, 3, 15, 22, 0, 0, 0, time.Local)
	assert.Equal(t, "2026-03-09", service.WeekStart(sunday).Format("2006-01-02"))
	monday := time.Date(2026, 3, 16, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2026-03-16", service.WeekStart(monday).Format("2006-01-02"))
}
