package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

const DefaultLabName = "Nuevo Análisis"

// DefaultLabMarkers is the blank panel offered when a new lab is started.
var DefaultLabMarkers = []model.LabMarker{
	{Name: "Glucosa", Unit: "mg/dL"},
	{Name: "Colesterol", Unit: "mg/dL"},
	{Name: "Triglicéridos", Unit: "mg/dL"},
	{Name: "Hemoglobina", Unit: "g/dL"},
	{Name: "Hematocrito", Unit: "%"},
}

type LabInput struct {
	ID          string
	Name        string
	Date        string
	Markers     []model.LabMarker
	Attachments []string
}

func normalizeFlag(flag string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(flag)); f {
	case "", "high", "low", "normal":
		return f, nil
	default:
		return "", invalidf("invalid marker flag %q (use high, low or normal)", flag)
	}
}

// cleanMarkers drops markers without a value.
func cleanMarkers(in []model.LabMarker) ([]model.LabMarker, error) {
	out := make([]model.LabMarker, 0, len(in))
	for _, m := range in {
		m.Name = strings.TrimSpace(m.Name)
		m.Value = strings.TrimSpace(m.Value)
		m.Unit = strings.TrimSpace(m.Unit)
		if m.Value == "" {
			continue
		}
		if m.Name == "" {
			return nil, invalidf("marker name is required for value %q", m.Value)
		}
		flag, err := normalizeFlag(m.Flag)
		if err != nil {
			return nil, err
		}
		m.Flag = flag
		out = append(out, m)
	}
	return out, nil
}

func normalizeLabInput(in LabInput) (LabInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = DefaultLabName
	}
	if strings.TrimSpace(in.Date) == "" {
		in.Date = time.Now().Format(dateLayout)
	} else {
		d, err := normalizeDate(in.Date)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	markers, err := cleanMarkers(in.Markers)
	if err != nil {
		return in, err
	}
	in.Markers = markers
	in.Attachments = trimStrings(in.Attachments)
	return in, nil
}

func AddLab(db *sql.DB, patientID string, in LabInput) (string, error) {
	in, err := normalizeLabInput(in)
	if err != nil {
		return "", err
	}
	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin lab tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := patientExists(tx, patientID); err != nil {
		return "", err
	}
	id, err := insertLab(tx, patientID, model.LabResult{ID: in.ID, Name: in.Name, Date: in.Date, Markers: in.Markers, Attachments: in.Attachments})
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit lab: %w", err)
	}
	return id, nil
}

func insertLab(q querier, patientID string, l model.LabResult) (string, error) {
	if l.ID == "" {
		l.ID = newID()
	}
	if _, err := q.Exec(`INSERT INTO labs(id, patient_id, name, date) VALUES(?, ?, ?, ?)`, l.ID, patientID, l.Name, l.Date); err != nil {
		return "", fmt.Errorf("add lab %q: %w", l.Name, err)
	}
	if err := replaceLabChildren(q, l.ID, l.Markers, l.Attachments); err != nil {
		return "", err
	}
	return l.ID, nil
}

func replaceLabChildren(q querier, labID string, markers []model.LabMarker, attachments []string) error {
	if _, err := q.Exec(`DELETE FROM lab_markers WHERE lab_id = ?`, labID); err != nil {
		return fmt.Errorf("clear lab markers: %w", err)
	}
	for i, m := range markers {
		if _, err := q.Exec(`INSERT INTO lab_markers(lab_id, position, name, value, unit, flag) VALUES(?, ?, ?, ?, ?, ?)`,
			labID, i, m.Name, m.Value, m.Unit, m.Flag); err != nil {
			return fmt.Errorf("add lab marker %q: %w", m.Name, err)
		}
	}
	if _, err := q.Exec(`DELETE FROM lab_attachments WHERE lab_id = ?`, labID); err != nil {
		return fmt.Errorf("clear lab attachments: %w", err)
	}
	for i, a := range attachments {
		if _, err := q.Exec(`INSERT INTO lab_attachments(lab_id, position, data_url) VALUES(?, ?, ?)`, labID, i, a); err != nil {
			return fmt.Errorf("add lab attachment %d: %w", i, err)
		}
	}
	return nil
}

func UpdateLab(db *sql.DB, labID string, in LabInput) error {
	in, err := normalizeLabInput(in)
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin lab tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.Exec(`UPDATE labs SET name = ?, date = ? WHERE id = ?`, in.Name, in.Date, labID)
	if err != nil {
		return fmt.Errorf("update lab %q: %w", labID, err)
	}
	if err := requireAffected(res, "lab", labID); err != nil {
		return err
	}
	if err := replaceLabChildren(tx, labID, in.Markers, in.Attachments); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lab: %w", err)
	}
	return nil
}

func DeleteLab(db *sql.DB, labID string) error {
	res, err := db.Exec(`DELETE FROM labs WHERE id = ?`, labID)
	if err != nil {
		return fmt.Errorf("delete lab %q: %w", labID, err)
	}
	return requireAffected(res, "lab", labID)
}

func GetLab(db *sql.DB, labID string) (*model.LabResult, string, error) {
	var patientID string
	err := db.QueryRow(`SELECT patient_id FROM labs WHERE id = ?`, labID).Scan(&patientID)
	if err == sql.ErrNoRows {
		return nil, "", notFound("lab", labID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("get lab %q: %w", labID, err)
	}
	labs, err := listLabs(db, patientID)
	if err != nil {
		return nil, "", err
	}
	for i := range labs {
		if labs[i].ID == labID {
			return &labs[i], patientID, nil
		}
	}
	return nil, "", notFound("lab", labID)
}

func ListLabs(db *sql.DB, patientID string) ([]model.LabResult, error) {
	if err := patientExists(db, patientID); err != nil {
		return nil, err
	}
	return listLabs(db, patientID)
}

func listLabs(q querier, patientID string) ([]model.LabResult, error) {
	rows, err := q.Query(`SELECT id, name, date FROM labs WHERE patient_id = ? ORDER BY date DESC, created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list labs: %w", err)
	}
	out := make([]model.LabResult, 0)
	for rows.Next() {
		var l model.LabResult
		if err := rows.Scan(&l.ID, &l.Name, &l.Date); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan lab: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate labs: %w", err)
	}
	_ = rows.Close()

	for i := range out {
		markers, err := listLabMarkers(q, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Markers = markers
		attachments, err := loadDataURLs(q, `SELECT data_url FROM lab_attachments WHERE lab_id = ? ORDER BY position ASC`, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("lab %q attachments: %w", out[i].ID, err)
		}
		out[i].Attachments = attachments
	}
	return out, nil
}

func listLabMarkers(q querier, labID string) ([]model.LabMarker, error) {
	rows, err := q.Query(`SELECT name, value, unit, flag FROM lab_markers WHERE lab_id = ? ORDER BY position ASC`, labID)
	if err != nil {
		return nil, fmt.Errorf("list lab markers: %w", err)
	}
	defer rows.Close()
	out := make([]model.LabMarker, 0)
	for rows.Next() {
		var m model.LabMarker
		if err := rows.Scan(&m.Name, &m.Value, &m.Unit, &m.Flag); err != nil {
			return nil, fmt.Errorf("scan lab marker: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lab markers: %w", err)
	}
	return out, nil
}
