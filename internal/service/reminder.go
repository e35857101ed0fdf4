package service

import (
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

const DefaultReminderMessage = "Hola, quiero recordarte tu próxima cita."

var (
	spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
	nonDigits       = regexp.MustCompile(`\D`)
)

// SpanishLongDate formats t as "lunes, 15 de enero".
func SpanishLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s", spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1])
}

// NextAppointment returns the earliest appointment strictly after now.
func NextAppointment(notes []model.Note, now time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, n := range notes {
		if n.NextAppointment == "" {
			continue
		}
		t, err := ParseTimestamp(n.NextAppointment)
		if err != nil || !t.After(now) {
			continue
		}
		if !found || t.Before(next) {
			next, found = t, true
		}
	}
	return next, found
}

func ReminderMessage(notes []model.Note, now time.Time) string {
	next, ok := NextAppointment(notes, now)
	if !ok {
		return DefaultReminderMessage
	}
	return fmt.Sprintf("Hola quiero recordarte tu cita para el dia %s a las %s", SpanishLongDate(next), next.Format("15:04"))
}

// ReminderLink builds the WhatsApp hand-off URL. Only the digits of phone are kept.
func ReminderLink(phone, message string) (string, error) {
	digits := nonDigits.ReplaceAllString(phone, "")
	if digits == "" {
		return "", invalidf("patient has no phone number")
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://api.whatsapp.com/send?phone=" + digits + "&text=" + text, nil
}

type Reminder struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Phone       string `json:"phone"`
	Appointment string `json:"appointment,omitempty"`
	Message     string `json:"message"`
	Link        string `json:"link,omitempty"`
}

// PatientReminder prepares the reminder for the patient's next appointment.
// A custom message replaces the generated one. Link is empty when the patient has no phone.
func PatientReminder(db *sql.DB, patientID, custom string, now time.Time) (Reminder, error) {
	p, err := loadPatientBasics(db, patientID)
	if err != nil {
		return Reminder{}, err
	}
	notes, err := listNotes(db, patientID, NoteFilter{})
	if err != nil {
		return Reminder{}, err
	}
	r := Reminder{PatientID: p.ID, PatientName: p.Name, Phone: p.Phone, Message: ReminderMessage(notes, now)}
	if next, ok := NextAppointment(notes, now); ok {
		r.Appointment = next.Format(timestampLayout)
	}
	if strings.TrimSpace(custom) != "" {
		r.Message = strings.TrimSpace(custom)
	}
	if link, err := ReminderLink(p.Phone, r.Message); err == nil {
		r.Link = link
	}
	return r, nil
}

type Appointment struct {
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Phone       string `json:"phone,omitempty"`
	Date        string `json:"date"`
	Objective   string `json:"objective,omitempty"`
}

func sortAppointments(items []Appointment) {
	sort.SliceStable(items, func(i, j int) bool {
		a, errA := ParseTimestamp(items[i].Date)
		b, errB := ParseTimestamp(items[j].Date)
		if errA != nil || errB != nil {
			return items[i].Date < items[j].Date
		}
		return a.Before(b)
	})
}
