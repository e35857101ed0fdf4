package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

const (
	DefaultIntakeMeasureNotes = "Medida Inicial"
	DefaultIntakeLabName      = "Análisis Inicial"
	DefaultIntakeObjective    = "Primera visita - Ingreso"
)

// Intake is the multi-step patient creation document.
type Intake struct {
	Name          string                 `json:"name" validate:"required"`
	Email         string                 `json:"email" validate:"omitempty,email"`
	Phone         string                 `json:"phone"`
	DOB           string                 `json:"dob"`
	Gender        string                 `json:"gender" validate:"omitempty,oneof=M F"`
	Occupation    string                 `json:"occupation"`
	MaritalStatus string                 `json:"maritalStatus"`
	Address       string                 `json:"address"`
	Lifestyle     *model.Lifestyle       `json:"lifestyle"`
	Clinical      *model.ClinicalHistory `json:"clinical"`
	Anthropometry *IntakeAnthropometry   `json:"anthropometry"`
	Lab           *IntakeLab             `json:"lab"`
	Note          *IntakeNote            `json:"note"`
}

type IntakeAnthropometry struct {
	Weight        float64             `json:"weight" validate:"gte=0"`
	Height        float64             `json:"height" validate:"gte=0"`
	Circumference model.Circumference `json:"circumference"`
	Folds         model.Folds         `json:"folds"`
	Activity      float64             `json:"activity"`
	Notes         string              `json:"notes"`
}

type IntakeLab struct {
	Name    string            `json:"name"`
	Date    string            `json:"date"`
	Markers []model.LabMarker `json:"markers"`
}

type IntakeNote struct {
	Date            string           `json:"date"`
	NextAppointment string           `json:"nextAppointment"`
	Objective       string           `json:"objective"`
	Observations    string           `json:"observations"`
	Evolution       *model.Evolution `json:"evolution"`
}

type IntakeResult struct {
	PatientID       string `json:"patientId"`
	AnthropometryID string `json:"anthropometryId,omitempty"`
	LabID           string `json:"labId,omitempty"`
	NoteID          string `json:"noteId"`
}

func ParseIntake(raw []byte) (Intake, error) {
	var in Intake
	if err := json.Unmarshal(raw, &in); err != nil {
		return Intake{}, invalidf("invalid intake document: %v", err)
	}
	if err := validateStruct(in); err != nil {
		return Intake{}, invalidf("invalid intake document: %v", err)
	}
	return in, nil
}

// CreatePatientFromIntake creates the patient with its initial measurement, lab and
// evolution note in one transaction.
func CreatePatientFromIntake(db *sql.DB, in Intake) (IntakeResult, error) {
	return createPatientFromIntake(db, in, time.Now())
}

func createPatientFromIntake(db *sql.DB, in Intake, now time.Time) (IntakeResult, error) {
	patient, err := normalizePatientInput(PatientInput{
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		DOB:           in.DOB,
		Gender:        in.Gender,
		Occupation:    in.Occupation,
		MaritalStatus: in.MaritalStatus,
		Address:       in.Address,
		Lifestyle:     in.Lifestyle,
		Clinical:      in.Clinical,
	})
	if err != nil {
		return IntakeResult{}, err
	}
	patient.ID = newID()
	result := IntakeResult{PatientID: patient.ID}

	var measure *model.Anthropometry
	if a := in.Anthropometry; a != nil && (a.Weight > 0 || a.Height > 0) {
		notes := strings.TrimSpace(a.Notes)
		if notes == "" {
			notes = DefaultIntakeMeasureNotes
		}
		m, err := buildAnthropometry(AnthropometryInput{
			Date:          now.Format(dateLayout),
			Weight:        a.Weight,
			Height:        a.Height,
			Circumference: a.Circumference,
			Folds:         a.Folds,
			Activity:      a.Activity,
			Notes:         notes,
		})
		if err != nil {
			return IntakeResult{}, err
		}
		m = DeriveAnthropometry(m, patient.Gender, patient.DOB, now)
		m.ID = newID()
		measure = &m
		result.AnthropometryID = m.ID
	}

	var lab *model.LabResult
	if l := in.Lab; l != nil {
		markers, err := cleanMarkers(l.Markers)
		if err != nil {
			return IntakeResult{}, err
		}
		if strings.TrimSpace(l.Name) != "" || len(markers) > 0 {
			name := strings.TrimSpace(l.Name)
			if name == "" {
				name = DefaultIntakeLabName
			}
			date := now.Format(dateLayout)
			if strings.TrimSpace(l.Date) != "" {
				if date, err = normalizeDate(l.Date); err != nil {
					return IntakeResult{}, err
				}
			}
			lab = &model.LabResult{ID: newID(), Name: name, Date: date, Markers: markers}
			result.LabID = lab.ID
		}
	}

	noteIn := NoteInput{Date: now.Format(timestampLayout), Objective: DefaultIntakeObjective}
	if n := in.Note; n != nil {
		noteIn.NextAppointment = n.NextAppointment
		noteIn.Observations = n.Observations
		noteIn.Evolution = n.Evolution
		if strings.TrimSpace(n.Date) != "" {
			noteIn.Date = n.Date
		}
		if strings.TrimSpace(n.Objective) != "" {
			noteIn.Objective = n.Objective
		}
	}
	noteIn, err = normalizeNoteInput(noteIn)
	if err != nil {
		return IntakeResult{}, err
	}
	noteIn.ID = newID()
	result.NoteID = noteIn.ID

	tx, err := db.Begin()
	if err != nil {
		return IntakeResult{}, fmt.Errorf("begin intake tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertPatient(tx, patient); err != nil {
		return IntakeResult{}, err
	}
	if measure != nil {
		if err := insertAnthropometry(tx, patient.ID, *measure); err != nil {
			return IntakeResult{}, err
		}
	}
	if lab != nil {
		if _, err := insertLab(tx, patient.ID, *lab); err != nil {
			return IntakeResult{}, err
		}
	}
	if _, err := insertNote(tx, patient.ID, noteIn); err != nil {
		return IntakeResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return IntakeResult{}, fmt.Errorf("commit intake: %w", err)
	}
	return result, nil
}
