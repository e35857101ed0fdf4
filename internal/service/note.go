package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

type NoteInput struct {
	ID              string
	Date            string
	Objective       string
	Observations    string
	Images          []string
	NextAppointment string
	Evolution       *model.Evolution
}

type NoteFilter struct {
	// Date keeps notes whose visit date or next appointment falls on this day.
	Date  string
	Limit int
}

func normalizeNoteInput(in NoteInput) (NoteInput, error) {
	if strings.TrimSpace(in.Date) == "" {
		in.Date = time.Now().Format(timestampLayout)
	} else {
		d, err := normalizeTimestamp(in.Date)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	next, err := normalizeOptionalTimestamp(in.NextAppointment)
	if err != nil {
		return in, err
	}
	in.NextAppointment = next
	in.Objective = strings.TrimSpace(in.Objective)
	in.Observations = strings.TrimSpace(in.Observations)
	in.Images = trimStrings(in.Images)
	return in, nil
}

func AddNote(db *sql.DB, patientID string, in NoteInput) (string, error) {
	in, err := normalizeNoteInput(in)
	if err != nil {
		return "", err
	}
	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin note tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := patientExists(tx, patientID); err != nil {
		return "", err
	}
	id, err := insertNote(tx, patientID, in)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit note: %w", err)
	}
	return id, nil
}

func insertNote(q querier, patientID string, in NoteInput) (string, error) {
	if in.ID == "" {
		in.ID = newID()
	}
	evolution, err := encodeEvolution(in.Evolution)
	if err != nil {
		return "", err
	}
	if _, err := q.Exec(`
INSERT INTO notes(id, patient_id, date, objective, observations, next_appointment, evolution_json)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, in.ID, patientID, in.Date, in.Objective, in.Observations, in.NextAppointment, evolution); err != nil {
		return "", fmt.Errorf("add note: %w", err)
	}
	if err := replaceNoteImages(q, in.ID, in.Images); err != nil {
		return "", err
	}
	return in.ID, nil
}

func encodeEvolution(e *model.Evolution) (string, error) {
	if e == nil {
		return "", nil
	}
	return encodeJSONDocument(e)
}

func replaceNoteImages(q querier, noteID string, images []string) error {
	if _, err := q.Exec(`DELETE FROM note_images WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("clear note images: %w", err)
	}
	for i, img := range images {
		if _, err := q.Exec(`INSERT INTO note_images(note_id, position, data_url) VALUES(?, ?, ?)`, noteID, i, img); err != nil {
			return fmt.Errorf("add note image %d: %w", i, err)
		}
	}
	return nil
}

// UpdateNote replaces every field of the note.
func UpdateNote(db *sql.DB, noteID string, in NoteInput) error {
	in, err := normalizeNoteInput(in)
	if err != nil {
		return err
	}
	evolution, err := encodeEvolution(in.Evolution)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin note tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.Exec(`
UPDATE notes SET date = ?, objective = ?, observations = ?, next_appointment = ?, evolution_json = ?
WHERE id = ?
`, in.Date, in.Objective, in.Observations, in.NextAppointment, evolution, noteID)
	if err != nil {
		return fmt.Errorf("update note %q: %w", noteID, err)
	}
	if err := requireAffected(res, "note", noteID); err != nil {
		return err
	}
	if err := replaceNoteImages(tx, noteID, in.Images); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit note: %w", err)
	}
	return nil
}

func DeleteNote(db *sql.DB, noteID string) error {
	res, err := db.Exec(`DELETE FROM notes WHERE id = ?`, noteID)
	if err != nil {
		return fmt.Errorf("delete note %q: %w", noteID, err)
	}
	return requireAffected(res, "note", noteID)
}

func GetNote(db *sql.DB, noteID string) (*model.Note, string, error) {
	var patientID string
	err := db.QueryRow(`SELECT patient_id FROM notes WHERE id = ?`, noteID).Scan(&patientID)
	if err == sql.ErrNoRows {
		return nil, "", notFound("note", noteID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("get note %q: %w", noteID, err)
	}
	notes, err := listNotesWhere(db, `n.id = ?`, []any{noteID}, 0)
	if err != nil {
		return nil, "", err
	}
	if len(notes) == 0 {
		return nil, "", notFound("note", noteID)
	}
	return &notes[0], patientID, nil
}

func ListNotes(db *sql.DB, patientID string, f NoteFilter) ([]model.Note, error) {
	if err := patientExists(db, patientID); err != nil {
		return nil, err
	}
	return listNotes(db, patientID, f)
}

func listNotes(q querier, patientID string, f NoteFilter) ([]model.Note, error) {
	where := `n.patient_id = ?`
	args := []any{patientID}
	if strings.TrimSpace(f.Date) != "" {
		day, err := normalizeDate(f.Date)
		if err != nil {
			return nil, err
		}
		where += ` AND (substr(n.date, 1, 10) = ? OR substr(n.next_appointment, 1, 10) = ?)`
		args = append(args, day, day)
	}
	return listNotesWhere(q, where, args, f.Limit)
}

func listNotesWhere(q querier, where string, args []any, limit int) ([]model.Note, error) {
	query := `SELECT n.id, n.date, n.objective, n.observations, n.next_appointment, n.evolution_json FROM notes n WHERE ` +
		where + ` ORDER BY n.date DESC, n.created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	out := make([]model.Note, 0)
	for rows.Next() {
		var n model.Note
		var evolution string
		if err := rows.Scan(&n.ID, &n.Date, &n.Objective, &n.Observations, &n.NextAppointment, &evolution); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if strings.TrimSpace(evolution) != "" {
			n.Evolution = &model.Evolution{}
			if err := decodeJSONDocument(evolution, n.Evolution); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("note %q evolution: %w", n.ID, err)
			}
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	_ = rows.Close()

	for i := range out {
		images, err := loadDataURLs(q, `SELECT data_url FROM note_images WHERE note_id = ? ORDER BY position ASC`, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("note %q images: %w", out[i].ID, err)
		}
		out[i].Images = images
	}
	return out, nil
}

func loadDataURLs(q querier, query, ownerID string) ([]string, error) {
	rows, err := q.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type NoteCalendarDay struct {
	Date        string `json:"date"`
	Visit       bool   `json:"visit"`
	Appointment bool   `json:"appointment"`
}

func NoteCalendar(db *sql.DB, patientID, month string) ([]NoteCalendarDay, error) {
	first, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	notes, err := ListNotes(db, patientID, NoteFilter{})
	if err != nil {
		return nil, err
	}
	visits := map[string]bool{}
	appointments := map[string]bool{}
	for _, n := range notes {
		visits[DayKey(n.Date)] = true
		if n.NextAppointment != "" {
			appointments[DayKey(n.NextAppointment)] = true
		}
	}
	last := first.AddDate(0, 1, -1)
	out := make([]NoteCalendarDay, 0, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		out = append(out, NoteCalendarDay{Date: key, Visit: visits[key], Appointment: appointments[key]})
	}
	return out, nil
}
