package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

func TestReminderMessageUsesNearestFutureAppointment(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.Local)
	notes := []model.Note{
		{NextAppointment: "2026-03-20T09:15"},
		{NextAppointment: "2026-03-16T17:30"},
		{NextAppointment: "2026-03-01T10:00"},
		{},
	}
	assert.Equal(t, "Hola quiero recordarte tu cita para el dia lunes, 16 de marzo a las 17:30", service.ReminderMessage(notes, now))
	assert.Equal(t, service.DefaultReminderMessage, service.ReminderMessage(notes[2:], now))
}

func TestReminderLink(t *testing.T) {
	t.Parallel()
	link, err := service.ReminderLink("+52 (555) 0199", "Hola quiero recordarte tu cita para el dia lunes, 16 de marzo a las 17:30")
	require.NoError(t, err)
	assert.Equal(t, "https://api.whatsapp.com/send?phone=525550199&text=Hola%20quiero%20recordarte%20tu%20cita%20para%20el%20dia%20lunes%2C%2016%20de%20marzo%20a%20las%2017%3A30", link)

	_, err = service.ReminderLink(" - ", "Hola")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestPatientReminder(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	pid := addTestPatient(t, db, service.PatientInput{Name: "Ana", Phone: "555-0199"})
	_, err := service.AddNote(db, pid, service.NoteInput{Date: "2026-03-01T10:00", NextAppointment: "2026-03-16T17:30"})
	require.NoError(t, err)

	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.Local)
	r, err := service.PatientReminder(db, pid, "", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-16T17:30", r.Appointment)
	assert.Contains(t, r.Message, "lunes, 16 de marzo")
	assert.Contains(t, r.Link, "phone=5550199")

	custom, err := service.PatientReminder(db, pid, "Nos vemos pronto", now)
	require.NoError(t, err)
	assert.Equal(t, "Nos vemos pronto", custom.Message)

	nophone := addTestPatient(t, db, service.PatientInput{Name: "Sin Teléfono"})
	r, err = service.PatientReminder(db, nophone, "", now)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultReminderMessage, r.Message)
	assert.Empty(t, r.Link)
}
