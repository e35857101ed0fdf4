package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/nutri-cli/internal/model"
)

type PatientInput struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	DOB           string
	Gender        string
	Occupation    string
	MaritalStatus string
	Address       string
	AvatarURL     string
	Lifestyle     *model.Lifestyle
	Clinical      *model.ClinicalHistory
}

// PatientPatch updates only the non-nil fields.
type PatientPatch struct {
	Name          *string
	Email         *string
	Phone         *string
	DOB           *string
	Gender        *string
	Occupation    *string
	MaritalStatus *string
	Address       *string
	AvatarURL     *string
	Lifestyle     *model.Lifestyle
	Clinical      *model.ClinicalHistory
}

type PatientFilter struct {
	Search string
	Limit  int
}

type PatientListItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	DOB             string `json:"dob"`
	Gender          string `json:"gender"`
	Occupation      string `json:"occupation"`
	LastVisit       string `json:"lastVisit,omitempty"`
	NextAppointment string `json:"nextAppointment,omitempty"`
}

func normalizeGender(g string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(g)) {
	case "", "F":
		return "F", nil
	case "M":
		return "M", nil
	default:
		return "", invalidf("invalid gender %q (use M or F)", g)
	}
}

func normalizePatientInput(in PatientInput) (PatientInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, invalidf("patient name is required")
	}
	g, err := normalizeGender(in.Gender)
	if err != nil {
		return in, err
	}
	in.Gender = g
	if strings.TrimSpace(in.DOB) != "" {
		dob, err := normalizeDate(in.DOB)
		if err != nil {
			return in, err
		}
		in.DOB = dob
	}
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	return in, nil
}

func CreatePatient(db *sql.DB, in PatientInput) (string, error) {
	in, err := normalizePatientInput(in)
	if err != nil {
		return "", err
	}
	if in.ID == "" {
		in.ID = newID()
	}
	if err := insertPatient(db, in); err != nil {
		return "", err
	}
	return in.ID, nil
}

func insertPatient(q querier, in PatientInput) error {
	lifestyle := model.Lifestyle{}
	if in.Lifestyle != nil {
		lifestyle = *in.Lifestyle
	}
	clinical := model.ClinicalHistory{}
	if in.Clinical != nil {
		clinical = *in.Clinical
	}
	lifestyleJSON, err := encodeJSONDocument(lifestyle)
	if err != nil {
		return err
	}
	clinicalJSON, err := encodeJSONDocument(clinical)
	if err != nil {
		return err
	}
	_, err = q.Exec(`
INSERT INTO patients(id, name, email, phone, dob, gender, occupation, marital_status, address, avatar_url, lifestyle_json, clinical_json, position)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT IFNULL(MAX(position), 0) + 1 FROM patients))
`, in.ID, in.Name, in.Email, in.Phone, in.DOB, in.Gender, strings.TrimSpace(in.Occupation),
		strings.TrimSpace(in.MaritalStatus), strings.TrimSpace(in.Address), strings.TrimSpace(in.AvatarURL),
		lifestyleJSON, clinicalJSON)
	if err != nil {
		return fmt.Errorf("create patient %q: %w", in.Name, err)
	}
	return nil
}

func GetPatient(db *sql.DB, id string) (*model.Patient, error) {
	return loadPatient(db, id)
}

func loadPatient(q querier, id string) (*model.Patient, error) {
	p, err := loadPatientBasics(q, id)
	if err != nil {
		return nil, err
	}
	if p.Notes, err = listNotes(q, id, NoteFilter{}); err != nil {
		return nil, err
	}
	if p.Anthropometry, err = listAnthropometry(q, id); err != nil {
		return nil, err
	}
	if p.Labs, err = listLabs(q, id); err != nil {
		return nil, err
	}
	if p.Plans, err = listPlans(q, id); err != nil {
		return nil, err
	}
	if p.Adherence, err = listAdherence(q, id, "", ""); err != nil {
		return nil, err
	}
	return p, nil
}

func loadPatientBasics(q querier, id string) (*model.Patient, error) {
	var p model.Patient
	var lifestyleJSON, clinicalJSON string
	err := q.QueryRow(`
SELECT id, name, email, phone, dob, gender, occupation, marital_status, address, avatar_url, lifestyle_json, clinical_json
FROM patients WHERE id = ?
`, id).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.DOB, &p.Gender, &p.Occupation, &p.MaritalStatus,
		&p.Address, &p.AvatarURL, &lifestyleJSON, &clinicalJSON)
	if err == sql.ErrNoRows {
		return nil, notFound("patient", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %q: %w", id, err)
	}
	if err := decodeJSONDocument(lifestyleJSON, &p.Lifestyle); err != nil {
		return nil, fmt.Errorf("patient %q lifestyle: %w", id, err)
	}
	if err := decodeJSONDocument(clinicalJSON, &p.Clinical); err != nil {
		return nil, fmt.Errorf("patient %q clinical history: %w", id, err)
	}
	if p.Clinical.Frequencies == nil {
		p.Clinical.Frequencies = map[string]string{}
	}
	return &p, nil
}

// ListPatients returns patients in creation order; Search matches name or email case-insensitively.
func ListPatients(db *sql.DB, f PatientFilter) ([]PatientListItem, error) {
	query := `
SELECT p.id, p.name, p.email, p.phone, p.dob, p.gender, p.occupation,
  IFNULL((SELECT MAX(n.date) FROM notes n WHERE n.patient_id = p.id), ''),
  IFNULL((SELECT MAX(n.next_appointment) FROM notes n WHERE n.patient_id = p.id AND n.next_appointment <> ''), '')
FROM patients p WHERE 1=1`
	args := make([]any, 0)
	if s := strings.TrimSpace(f.Search); s != "" {
		query += ` AND (LOWER(p.name) LIKE ? OR LOWER(p.email) LIKE ?)`
		like := "%" + strings.ToLower(s) + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY p.position ASC, p.created_at ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()
	out := make([]PatientListItem, 0)
	for rows.Next() {
		var it PatientListItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Email, &it.Phone, &it.DOB, &it.Gender, &it.Occupation, &it.LastVisit, &it.NextAppointment); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return out, nil
}

func UpdatePatient(db *sql.DB, id string, patch PatientPatch) error {
	sets := make([]string, 0)
	args := make([]any, 0)
	addText := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, strings.TrimSpace(*v))
		}
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return invalidf("patient name is required")
	}
	addText("name", patch.Name)
	addText("email", patch.Email)
	addText("phone", patch.Phone)
	addText("occupation", patch.Occupation)
	addText("marital_status", patch.MaritalStatus)
	addText("address", patch.Address)
	addText("avatar_url", patch.AvatarURL)
	if patch.DOB != nil {
		dob := ""
		if strings.TrimSpace(*patch.DOB) != "" {
			var err error
			if dob, err = normalizeDate(*patch.DOB); err != nil {
				return err
			}
		}
		sets = append(sets, "dob = ?")
		args = append(args, dob)
	}
	if patch.Gender != nil {
		g, err := normalizeGender(*patch.Gender)
		if err != nil {
			return err
		}
		sets = append(sets, "gender = ?")
		args = append(args, g)
	}
	if patch.Lifestyle != nil {
		doc, err := encodeJSONDocument(patch.Lifestyle)
		if err != nil {
			return err
		}
		sets = append(sets, "lifestyle_json = ?")
		args = append(args, doc)
	}
	if patch.Clinical != nil {
		doc, err := encodeJSONDocument(patch.Clinical)
		if err != nil {
			return err
		}
		sets = append(sets, "clinical_json = ?")
		args = append(args, doc)
	}
	if len(sets) == 0 {
		return invalidf("no patient fields to update")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := db.Exec(`UPDATE patients SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update patient %q: %w", id, err)
	}
	return requireAffected(res, "patient", id)
}

func DeletePatient(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM patients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete patient %q: %w", id, err)
	}
	return requireAffected(res, "patient", id)
}

func CountPatients(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(1) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}
