package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

type AnthropometryInput struct {
	ID            string
	Date          string
	Weight        float64
	WeightUnit    string
	Height        float64
	HeightUnit    string
	Circumference model.Circumference
	Folds         model.Folds
	Activity      float64
	Notes         string
}

func DeriveAnthropometry(m model.Anthropometry, gender, dob string, now time.Time) model.Anthropometry {
	if m.Activity <= 0 {
		m.Activity = DefaultActivityFactor
	}
	m.IMC = BMI(m.Weight, m.Height)
	m.BMR, m.TDEE = 0, 0
	if age, ok := Age(dob, now); ok {
		e := MifflinStJeor(m.Weight, m.Height, age, gender, m.Activity)
		m.BMR, m.TDEE = e.BMR, e.TDEE
	}
	return m
}

func buildAnthropometry(in AnthropometryInput) (model.Anthropometry, error) {
	weight, err := ToKg(in.Weight, in.WeightUnit)
	if err != nil {
		return model.Anthropometry{}, err
	}
	height, err := ToCm(in.Height, in.HeightUnit)
	if err != nil {
		return model.Anthropometry{}, err
	}
	if err := validateActivity(in.Activity); err != nil {
		return model.Anthropometry{}, err
	}
	c := in.Circumference
	f := in.Folds
	for name, v := range map[string]float64{
		"waist": c.Waist, "hip": c.Hip, "abdomen": c.Abdomen, "chest": c.Chest,
		"arm-r": c.ArmR, "arm-l": c.ArmL, "thigh": c.Thigh, "calf": c.Calf,
		"tricipital": f.Tricipital, "bicipital": f.Bicipital, "subscapular": f.Subscapular,
		"suprailiac": f.Suprailiac, "abdominal": f.Abdominal, "quadriceps": f.Quadriceps,
	} {
		if err := validateNonNegativeFloat(name, v); err != nil {
			return model.Anthropometry{}, err
		}
	}
	date := time.Now().Format(dateLayout)
	if strings.TrimSpace(in.Date) != "" {
		if date, err = normalizeDate(in.Date); err != nil {
			return model.Anthropometry{}, err
		}
	}
	return model.Anthropometry{
		ID:            in.ID,
		Date:          date,
		Weight:        roundTo(weight, 2),
		Height:        roundTo(height, 1),
		Circumference: c,
		Folds:         f,
		Activity:      in.Activity,
		Notes:         strings.TrimSpace(in.Notes),
	}, nil
}

func AddAnthropometry(db *sql.DB, patientID string, in AnthropometryInput) (model.Anthropometry, error) {
	m, err := buildAnthropometry(in)
	if err != nil {
		return model.Anthropometry{}, err
	}
	p, err := loadPatientBasics(db, patientID)
	if err != nil {
		return model.Anthropometry{}, err
	}
	m = DeriveAnthropometry(m, p.Gender, p.DOB, time.Now())
	if m.ID == "" {
		m.ID = newID()
	}
	if err := insertAnthropometry(db, patientID, m); err != nil {
		return model.Anthropometry{}, err
	}
	return m, nil
}

func insertAnthropometry(q querier, patientID string, m model.Anthropometry) error {
	c, f := m.Circumference, m.Folds
	_, err := q.Exec(`
INSERT INTO anthropometry(
  id, patient_id, date, weight_kg, height_cm, imc,
  waist, hip, abdomen, chest, arm_r, arm_l, thigh, calf,
  fold_tricipital, fold_bicipital, fold_subscapular, fold_suprailiac, fold_abdominal, fold_quadriceps,
  activity, bmr, tdee, notes)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, m.ID, patientID, m.Date, m.Weight, m.Height, m.IMC,
		c.Waist, c.Hip, c.Abdomen, c.Chest, c.ArmR, c.ArmL, c.Thigh, c.Calf,
		f.Tricipital, f.Bicipital, f.Subscapular, f.Suprailiac, f.Abdominal, f.Quadriceps,
		m.Activity, m.BMR, m.TDEE, m.Notes)
	if err != nil {
		return fmt.Errorf("add anthropometry: %w", err)
	}
	return nil
}

func UpdateAnthropometry(db *sql.DB, measurementID string, in AnthropometryInput) (model.Anthropometry, error) {
	_, patientID, err := GetAnthropometry(db, measurementID)
	if err != nil {
		return model.Anthropometry{}, err
	}
	m, err := buildAnthropometry(in)
	if err != nil {
		return model.Anthropometry{}, err
	}
	p, err := loadPatientBasics(db, patientID)
	if err != nil {
		return model.Anthropometry{}, err
	}
	m = DeriveAnthropometry(m, p.Gender, p.DOB, time.Now())
	m.ID = measurementID
	c, f := m.Circumference, m.Folds
	res, err := db.Exec(`
UPDATE anthropometry SET
  date = ?, weight_kg = ?, height_cm = ?, imc = ?,
  waist = ?, hip = ?, abdomen = ?, chest = ?, arm_r = ?, arm_l = ?, thigh = ?, calf = ?,
  fold_tricipital = ?, fold_bicipital = ?, fold_subscapular = ?, fold_suprailiac = ?, fold_abdominal = ?, fold_quadriceps = ?,
  activity = ?, bmr = ?, tdee = ?, notes = ?
WHERE id = ?
`, m.Date, m.Weight, m.Height, m.IMC,
		c.Waist, c.Hip, c.Abdomen, c.Chest, c.ArmR, c.ArmL, c.Thigh, c.Calf,
		f.Tricipital, f.Bicipital, f.Subscapular, f.Suprailiac, f.Abdominal, f.Quadriceps,
		m.Activity, m.BMR, m.TDEE, m.Notes, measurementID)
	if err != nil {
		return model.Anthropometry{}, fmt.Errorf("update anthropometry %q: %w", measurementID, err)
	}
	if err := requireAffected(res, "measurement", measurementID); err != nil {
		return model.Anthropometry{}, err
	}
	return m, nil
}

func DeleteAnthropometry(db *sql.DB, measurementID string) error {
	res, err := db.Exec(`DELETE FROM anthropometry WHERE id = ?`, measurementID)
	if err != nil {
		return fmt.Errorf("delete anthropometry %q: %w", measurementID, err)
	}
	return requireAffected(res, "measurement", measurementID)
}

const anthropometryColumns = `id, date, weight_kg, height_cm, imc,
  waist, hip, abdomen, chest, arm_r, arm_l, thigh, calf,
  fold_tricipital, fold_bicipital, fold_subscapular, fold_suprailiac, fold_abdominal, fold_quadriceps,
  activity, bmr, tdee, notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnthropometry(s rowScanner) (model.Anthropometry, error) {
	var m model.Anthropometry
	c, f := &m.Circumference, &m.Folds
	err := s.Scan(&m.ID, &m.Date, &m.Weight, &m.Height, &m.IMC,
		&c.Waist, &c.Hip, &c.Abdomen, &c.Chest, &c.ArmR, &c.ArmL, &c.Thigh, &c.Calf,
		&f.Tricipital, &f.Bicipital, &f.Subscapular, &f.Suprailiac, &f.Abdominal, &f.Quadriceps,
		&m.Activity, &m.BMR, &m.TDEE, &m.Notes)
	return m, err
}

// withTrailing scans the listed extra columns after the ones the wrapped scan consumes.
type withTrailing struct {
	rowScanner
	extra []any
}

func (w withTrailing) Scan(dest ...any) error {
	return w.rowScanner.Scan(append(dest, w.extra...)...)
}

func GetAnthropometry(db *sql.DB, measurementID string) (*model.Anthropometry, string, error) {
	var patientID string
	row := db.QueryRow(`SELECT `+anthropometryColumns+`, patient_id FROM anthropometry WHERE id = ?`, measurementID)
	m, err := scanAnthropometry(withTrailing{rowScanner: row, extra: []any{&patientID}})
	if err == sql.ErrNoRows {
		return nil, "", notFound("measurement", measurementID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("get anthropometry %q: %w", measurementID, err)
	}
	return &m, patientID, nil
}

func ListAnthropometry(db *sql.DB, patientID string) ([]model.Anthropometry, error) {
	if err := patientExists(db, patientID); err != nil {
		return nil, err
	}
	return listAnthropometry(db, patientID)
}

func listAnthropometry(q querier, patientID string) ([]model.Anthropometry, error) {
	rows, err := q.Query(`SELECT `+anthropometryColumns+` FROM anthropometry WHERE patient_id = ? ORDER BY date DESC, created_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list anthropometry: %w", err)
	}
	defer rows.Close()
	out := make([]model.Anthropometry, 0)
	for rows.Next() {
		m, err := scanAnthropometry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anthropometry: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anthropometry: %w", err)
	}
	return out, nil
}

// LatestAnthropometry returns the most recent measurement by date, or nil when there is none.
func LatestAnthropometry(db *sql.DB, patientID string) (*model.Anthropometry, error) {
	row := db.QueryRow(`SELECT `+anthropometryColumns+` FROM anthropometry WHERE patient_id = ? ORDER BY date DESC, created_at DESC LIMIT 1`, patientID)
	m, err := scanAnthropometry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest anthropometry: %w", err)
	}
	return &m, nil
}
