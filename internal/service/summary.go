package service

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Pacientes"

// SummaryHeader is the fixed column set of the patient summary exports.
var SummaryHeader = []string{"ID", "Name", "Email", "Phone", "Age", "Gender", "Occupation", "Last Weight", "Last IMC"}

var summaryColumnWidths = []float64{38, 28, 28, 16, 8, 8, 20, 12, 10}

type PatientSummary struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	Age        string
	Gender     string
	Occupation string
	LastWeight string
	LastIMC    string
}

func (s PatientSummary) record() []string {
	return []string{s.ID, s.Name, s.Email, s.Phone, s.Age, s.Gender, s.Occupation, s.LastWeight, s.LastIMC}
}

// PatientSummaries flattens every patient with the most recent measurement by date.
func PatientSummaries(db *sql.DB, now time.Time) ([]PatientSummary, error) {
	items, err := ListPatients(db, PatientFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]PatientSummary, 0, len(items))
	for _, it := range items {
		s := PatientSummary{
			ID:         it.ID,
			Name:       it.Name,
			Email:      it.Email,
			Phone:      it.Phone,
			Age:        "-",
			Gender:     it.Gender,
			Occupation: it.Occupation,
			LastWeight: "-",
			LastIMC:    "-",
		}
		if age, ok := Age(it.DOB, now); ok {
			s.Age = strconv.Itoa(age)
		}
		last, err := LatestAnthropometry(db, it.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			s.LastWeight = formatNumber(last.Weight)
			s.LastIMC = formatNumber(last.IMC)
		}
		out = append(out, s)
	}
	return out, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func WritePatientSummaryCSV(w io.Writer, rows []PatientSummary) error {
	if len(rows) == 0 {
		return ErrNothingToExport
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return fmt.Errorf("write summary csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("write summary csv row %q: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush summary csv: %w", err)
	}
	return nil
}

func PatientSummaryXLSX(rows []PatientSummary) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNothingToExport
	}
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range SummaryHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(summarySheet, cell, header); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(summarySheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(summarySheet, name, name, summaryColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, r := range rows {
		for col, v := range r.record() {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
