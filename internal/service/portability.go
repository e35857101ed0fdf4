package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

// Snapshot is the whole-store document exchanged by export and import.
type Snapshot struct {
	Users    []model.User       `json:"users"`
	Patients []model.Patient    `json:"patients"`
	Theme    *model.ThemeConfig `json:"theme,omitempty"`
}

type ImportMode string

const (
	ImportModeReplace ImportMode = "replace"
	ImportModeMerge   ImportMode = "merge"
)

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	Mode             ImportMode `json:"mode"`
	DryRun           bool       `json:"dryRun"`
	Users            int        `json:"users"`
	Patients         int        `json:"patients"`
	Notes            int        `json:"notes"`
	Measurements     int        `json:"measurements"`
	Labs             int        `json:"labs"`
	Plans            int        `json:"plans"`
	AdherenceDays    int        `json:"adherenceDays"`
	ThemeReplaced    bool       `json:"themeReplaced"`
	UnlinkedUsers    int        `json:"unlinkedUsers,omitempty"`
	DeactivatedPlans int        `json:"deactivatedPlans,omitempty"`
	SessionCleared   bool       `json:"sessionCleared,omitempty"`
}

type snapshotSchema struct {
	Users    []userSchema    `json:"users" validate:"required,dive"`
	Patients []patientSchema `json:"patients" validate:"required,dive"`
}

type userSchema struct {
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role" validate:"required,oneof=admin patient"`
	Password     string `json:"password" validate:"required_without=PasswordHash"`
	PasswordHash string `json:"passwordHash" validate:"required_without=Password"`
}

type patientSchema struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

func invalidImport(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidImport, fmt.Sprintf(format, args...))
}

// ExportSnapshot returns every user and patient plus the stored theme. The session is not exported.
func ExportSnapshot(db *sql.DB) (*Snapshot, error) {
	users, err := listUsers(db)
	if err != nil {
		return nil, err
	}
	items, err := ListPatients(db, PatientFilter{})
	if err != nil {
		return nil, err
	}
	patients := make([]model.Patient, 0, len(items))
	for _, it := range items {
		p, err := loadPatient(db, it.ID)
		if err != nil {
			return nil, err
		}
		patients = append(patients, *p)
	}
	snap := &Snapshot{Users: users, Patients: patients}
	if _, ok, err := GetConfig(db, ConfigTheme); err != nil {
		return nil, err
	} else if ok {
		theme, err := GetTheme(db)
		if err != nil {
			return nil, err
		}
		snap.Theme = &theme
	}
	return snap, nil
}

// ParseSnapshot decodes and validates an import document. Every failure wraps ErrInvalidImport.
func ParseSnapshot(raw []byte) (*Snapshot, error) {
	var schema snapshotSchema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, invalidImport("%v", err)
	}
	if err := validateStruct(schema); err != nil {
		return nil, invalidImport("%v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, invalidImport("%v", err)
	}
	if snap.Theme != nil {
		if err := ValidateTheme(*snap.Theme); err != nil {
			return nil, invalidImport("theme: %v", err)
		}
	}
	for _, p := range snap.Patients {
		if _, err := normalizeGender(p.Gender); err != nil {
			return nil, invalidImport("patient %q: %v", p.ID, err)
		}
	}
	if err := checkRecordIDs(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// checkRecordIDs rejects documents that reuse a patient, note, measurement, lab or plan id.
// Records owned by different patients still share one key space in the store.
func checkRecordIDs(snap *Snapshot) error {
	seen := map[string]map[string]string{}
	claim := func(kind, id, owner string) error {
		if id == "" {
			return nil
		}
		if seen[kind] == nil {
			seen[kind] = map[string]string{}
		}
		if prev, ok := seen[kind][id]; ok {
			if kind == "patient" {
				return invalidImport("duplicate patient id %q", id)
			}
			if prev == owner {
				return invalidImport("duplicate %s id %q in patient %q", kind, id, owner)
			}
			return invalidImport("duplicate %s id %q in patients %q and %q", kind, id, prev, owner)
		}
		seen[kind][id] = owner
		return nil
	}
	for _, p := range snap.Patients {
		if err := claim("patient", p.ID, p.ID); err != nil {
			return err
		}
		for _, n := range p.Notes {
			if err := claim("note", n.ID, p.ID); err != nil {
				return err
			}
		}
		for _, m := range p.Anthropometry {
			if err := claim("measurement", m.ID, p.ID); err != nil {
				return err
			}
		}
		for _, l := range p.Labs {
			if err := claim("lab", l.ID, p.ID); err != nil {
				return err
			}
		}
		for _, pl := range p.Plans {
			if err := claim("plan", pl.ID, p.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureRecordFree fails when id already belongs to another patient's record in table.
func ensureRecordFree(q querier, table, kind, id, patientID string) error {
	if id == "" {
		return nil
	}
	var owner string
	err := q.QueryRow(`SELECT patient_id FROM `+table+` WHERE id = ?`, id).Scan(&owner)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check %s id %q: %w", kind, id, err)
	}
	return invalidImport("%s id %q of patient %q is already used by patient %q", kind, id, patientID, owner)
}

func normalizeImportMode(mode ImportMode) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case "", ImportModeReplace:
		return ImportModeReplace, nil
	case ImportModeMerge:
		return ImportModeMerge, nil
	default:
		return "", invalidf("invalid import mode %q (use replace or merge)", mode)
	}
}

// ImportSnapshot writes snap in a single transaction. Replace mode swaps every user and patient;
// merge mode upserts by id. Derived measurement values are kept as exported.
func ImportSnapshot(db *sql.DB, snap *Snapshot, opts ImportOptions) (ImportReport, error) {
	return importSnapshot(db, snap, opts, time.Now())
}

func importSnapshot(db *sql.DB, snap *Snapshot, opts ImportOptions, now time.Time) (ImportReport, error) {
	if snap == nil {
		return ImportReport{}, invalidImport("empty document")
	}
	mode, err := normalizeImportMode(opts.Mode)
	if err != nil {
		return ImportReport{}, err
	}
	report := ImportReport{Mode: mode, DryRun: opts.DryRun}
	if err := checkRecordIDs(snap); err != nil {
		return report, err
	}

	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if mode == ImportModeReplace {
		if _, err := tx.Exec(`DELETE FROM users`); err != nil {
			return report, fmt.Errorf("clear users: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM patients`); err != nil {
			return report, fmt.Errorf("clear patients: %w", err)
		}
	}

	for _, p := range snap.Patients {
		if err := importPatient(tx, p, mode, now, &report); err != nil {
			return report, err
		}
	}
	for _, u := range snap.Users {
		if err := importUser(tx, u, &report); err != nil {
			return report, err
		}
	}
	if snap.Theme != nil {
		if err := setTheme(tx, *snap.Theme); err != nil {
			return report, err
		}
		report.ThemeReplaced = true
	}

	if id, ok, err := getConfig(tx, ConfigSession); err != nil {
		return report, err
	} else if ok {
		if _, err := getUser(tx, id); errors.Is(err, ErrNotFound) {
			if err := deleteConfig(tx, ConfigSession); err != nil {
				return report, err
			}
			report.SessionCleared = true
		} else if err != nil {
			return report, err
		}
	}

	if opts.DryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit import: %w", err)
	}
	return report, nil
}

func importPatient(q querier, p model.Patient, mode ImportMode, now time.Time, report *ImportReport) error {
	gender, err := normalizeGender(p.Gender)
	if err != nil {
		return invalidImport("patient %q: %v", p.ID, err)
	}
	in := PatientInput{
		ID:            p.ID,
		Name:          strings.TrimSpace(p.Name),
		Email:         strings.TrimSpace(p.Email),
		Phone:         strings.TrimSpace(p.Phone),
		DOB:           lenientDate(p.DOB),
		Gender:        gender,
		Occupation:    p.Occupation,
		MaritalStatus: p.MaritalStatus,
		Address:       p.Address,
		AvatarURL:     p.AvatarURL,
		Lifestyle:     &p.Lifestyle,
		Clinical:      &p.Clinical,
	}

	exists := false
	if mode == ImportModeMerge {
		if err := patientExists(q, p.ID); err == nil {
			exists = true
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if exists {
		if err := overwritePatient(q, in); err != nil {
			return err
		}
	} else if err := insertPatient(q, in); err != nil {
		return err
	}
	report.Patients++

	for _, n := range p.Notes {
		if err := ensureRecordFree(q, "notes", "note", n.ID, p.ID); err != nil {
			return err
		}
		if _, err := insertNote(q, p.ID, NoteInput{
			ID:              n.ID,
			Date:            lenientTimestamp(n.Date),
			Objective:       n.Objective,
			Observations:    n.Observations,
			Images:          n.Images,
			NextAppointment: lenientTimestamp(n.NextAppointment),
			Evolution:       n.Evolution,
		}); err != nil {
			return err
		}
		report.Notes++
	}
	for _, m := range p.Anthropometry {
		if m.ID == "" {
			m.ID = newID()
		}
		m.Date = lenientDate(m.Date)
		if err := ensureRecordFree(q, "anthropometry", "measurement", m.ID, p.ID); err != nil {
			return err
		}
		if m.Weight < 0 || m.Height < 0 {
			return invalidImport("patient %q measurement %q has negative weight or height", p.ID, m.ID)
		}
		if err := insertAnthropometry(q, p.ID, m); err != nil {
			return err
		}
		report.Measurements++
	}
	for _, l := range p.Labs {
		if err := ensureRecordFree(q, "labs", "lab", l.ID, p.ID); err != nil {
			return err
		}
		l.Date = lenientDate(l.Date)
		for i := range l.Markers {
			if flag, err := normalizeFlag(l.Markers[i].Flag); err == nil {
				l.Markers[i].Flag = flag
			} else {
				l.Markers[i].Flag = ""
			}
		}
		if _, err := insertLab(q, p.ID, l); err != nil {
			return err
		}
		report.Labs++
	}
	activeSeen := false
	for _, pl := range p.Plans {
		if err := ensureRecordFree(q, "plans", "plan", pl.ID, p.ID); err != nil {
			return err
		}
		if pl.Active {
			if activeSeen {
				pl.Active = false
				report.DeactivatedPlans++
			}
			activeSeen = true
		}
		if strings.TrimSpace(pl.CreatedAt) == "" {
			pl.CreatedAt = now.Format(timestampLayout)
		}
		for si := range pl.Sections {
			for oi := range pl.Sections[si].Options {
				if pl.Sections[si].Options[oi].ID == "" {
					pl.Sections[si].Options[oi].ID = newID()
				}
			}
		}
		if _, err := insertPlan(q, p.ID, pl); err != nil {
			return err
		}
		report.Plans++
	}
	for _, a := range p.Adherence {
		date := lenientDate(a.Date)
		if date == "" {
			continue
		}
		if err := upsertAdherence(q, p.ID, date, a.Checks); err != nil {
			return err
		}
		report.AdherenceDays++
	}
	return nil
}

// overwritePatient replaces an existing patient's fields and drops its owned records so they can be
// reinserted. The row itself is kept so user links survive.
func overwritePatient(q querier, in PatientInput) error {
	lifestyleJSON, err := encodeJSONDocument(in.Lifestyle)
	if err != nil {
		return err
	}
	clinicalJSON, err := encodeJSONDocument(in.Clinical)
	if err != nil {
		return err
	}
	if _, err := q.Exec(`
UPDATE patients SET name = ?, email = ?, phone = ?, dob = ?, gender = ?, occupation = ?, marital_status = ?,
  address = ?, avatar_url = ?, lifestyle_json = ?, clinical_json = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, in.Name, in.Email, in.Phone, in.DOB, in.Gender, in.Occupation, in.MaritalStatus, in.Address, in.AvatarURL,
		lifestyleJSON, clinicalJSON, in.ID); err != nil {
		return fmt.Errorf("overwrite patient %q: %w", in.ID, err)
	}
	for _, table := range []string{"notes", "anthropometry", "labs", "plans", "adherence"} {
		if _, err := q.Exec(`DELETE FROM `+table+` WHERE patient_id = ?`, in.ID); err != nil {
			return fmt.Errorf("clear patient %q %s: %w", in.ID, table, err)
		}
	}
	return nil
}

func importUser(q querier, u model.User, report *ImportReport) error {
	role, err := normalizeRole(u.Role)
	if err != nil {
		return invalidImport("user %q: %v", u.Email, err)
	}
	u.Role = role
	u.Email = strings.TrimSpace(u.Email)
	if u.ID == "" {
		u.ID = newID()
	}
	if u.PasswordHash == "" {
		if u.PasswordHash, err = HashPassword(u.Password); err != nil {
			return err
		}
	}
	if u.PatientID != "" {
		if err := patientExists(q, u.PatientID); errors.Is(err, ErrNotFound) {
			u.PatientID = ""
			report.UnlinkedUsers++
		} else if err != nil {
			return err
		}
	}
	if _, err := q.Exec(`DELETE FROM users WHERE id = ? OR email = ?`, u.ID, u.Email); err != nil {
		return fmt.Errorf("replace user %q: %w", u.Email, err)
	}
	if err := insertUser(q, u); err != nil {
		return err
	}
	report.Users++
	return nil
}
