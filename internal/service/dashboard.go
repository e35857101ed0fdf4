package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	upcomingLimit = 5
	recentLimit   = 5
)

var weekdayLabels = [7]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

type DayCount struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Dashboard struct {
	TotalPatients int               `json:"totalPatients"`
	Week          []DayCount        `json:"week"`
	WeeklyTotal   int               `json:"weeklyTotal"`
	AgendaDate    string            `json:"agendaDate"`
	Agenda        []Appointment     `json:"agenda"`
	Upcoming      []Appointment     `json:"upcoming"`
	Tomorrow      []Appointment     `json:"tomorrow"`
	Recent        []PatientListItem `json:"recent"`
}

type noteRow struct {
	patientID   string
	patientName string
	phone       string
	date        string
	next        string
	objective   string
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func BuildDashboard(db *sql.DB, now time.Time, date string) (*Dashboard, error) {
	today := now.Format(dateLayout)
	agendaDate := today
	if strings.TrimSpace(date) != "" {
		d, err := normalizeDate(date)
		if err != nil {
			return nil, err
		}
		agendaDate = d
	}
	tomorrow := now.AddDate(0, 0, 1).Format(dateLayout)

	out := &Dashboard{AgendaDate: agendaDate, Agenda: []Appointment{}, Upcoming: []Appointment{}, Tomorrow: []Appointment{}}
	total, err := CountPatients(db)
	if err != nil {
		return nil, err
	}
	out.TotalPatients = total

	rows, err := loadNoteRows(db)
	if err != nil {
		return nil, err
	}

	start := WeekStart(now)
	index := map[string]int{}
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i).Format(dateLayout)
		index[d] = i
		out.Week = append(out.Week, DayCount{Date: d, Label: weekdayLabels[i]})
	}

	seenAgenda := map[string]bool{}
	for _, r := range rows {
		if i, ok := index[DayKey(r.date)]; ok {
			out.Week[i].Count++
			out.WeeklyTotal++
		}
		if r.next == "" {
			continue
		}
		appt := Appointment{PatientID: r.patientID, PatientName: r.patientName, Phone: r.phone, Date: r.next, Objective: r.objective}
		day := DayKey(r.next)
		if day == agendaDate && !seenAgenda[r.patientID] {
			seenAgenda[r.patientID] = true
			out.Agenda = append(out.Agenda, appt)
		}
		if day != "" && day >= today {
			out.Upcoming = append(out.Upcoming, appt)
		}
		if day == tomorrow {
			out.Tomorrow = append(out.Tomorrow, appt)
		}
	}
	sortAppointments(out.Agenda)
	sortAppointments(out.Upcoming)
	sortAppointments(out.Tomorrow)
	if len(out.Upcoming) > upcomingLimit {
		out.Upcoming = out.Upcoming[:upcomingLimit]
	}

	recent, err := ListPatients(db, PatientFilter{Limit: recentLimit})
	if err != nil {
		return nil, err
	}
	out.Recent = recent
	return out, nil
}

func TomorrowReminders(db *sql.DB, now time.Time) ([]Appointment, error) {
	d, err := BuildDashboard(db, now, "")
	if err != nil {
		return nil, err
	}
	return d.Tomorrow, nil
}

func loadNoteRows(db *sql.DB) ([]noteRow, error) {
	rows, err := db.Query(`
SELECT n.patient_id, p.name, p.phone, n.date, n.next_appointment, n.objective
FROM notes n JOIN patients p ON p.id = n.patient_id
ORDER BY p.position ASC, n.date DESC`)
	if err != nil {
		return nil, fmt.Errorf("dashboard notes: %w", err)
	}
	defer rows.Close()
	out := make([]noteRow, 0)
	for rows.Next() {
		var r noteRow
		if err := rows.Scan(&r.patientID, &r.patientName, &r.phone, &r.date, &r.next, &r.objective); err != nil {
			return nil, fmt.Errorf("scan dashboard note: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dashboard notes: %w", err)
	}
	return out, nil
}
