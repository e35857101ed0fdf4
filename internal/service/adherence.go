package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutri-cli/internal/model"
)

const AdherenceTotal = 4

const (
	CheckBreakfast   = "breakfast"
	CheckLunch       = "lunch"
	CheckDinner      = "dinner"
	CheckSupplements = "supplements"
)

type AdherenceLevel string

const (
	AdherenceNone     AdherenceLevel = "none"
	AdherenceLow      AdherenceLevel = "low"
	AdherencePartial  AdherenceLevel = "partial"
	AdherenceComplete AdherenceLevel = "complete"
)

func AdherenceScore(c model.AdherenceChecks) int {
	score := 0
	for _, v := range []bool{c.Breakfast, c.Lunch, c.Dinner, c.Supplements} {
		if v {
			score++
		}
	}
	return score
}

func LevelForScore(score int) AdherenceLevel {
	switch {
	case score >= AdherenceTotal:
		return AdherenceComplete
	case score >= 2:
		return AdherencePartial
	case score > 0:
		return AdherenceLow
	default:
		return AdherenceNone
	}
}

func AdherencePercent(score int) float64 {
	return float64(score) / AdherenceTotal * 100
}

func FormatScore(score int) string {
	return fmt.Sprintf("%d/%d", score, AdherenceTotal)
}

func MapSectionToCheck(title string) (string, bool) {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "desayuno"):
		return CheckBreakfast, true
	case strings.Contains(t, "almuerzo"), strings.Contains(t, "comida"):
		return CheckLunch, true
	case strings.Contains(t, "cena"):
		return CheckDinner, true
	default:
		return "", false
	}
}

func newAdherence(date string, checks model.AdherenceChecks) model.Adherence {
	return model.Adherence{
		Date:      date,
		Completed: AdherenceScore(checks),
		Total:     AdherenceTotal,
		Checks:    checks,
	}
}

func SetAdherence(db *sql.DB, patientID, date string, checks model.AdherenceChecks) (model.Adherence, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return model.Adherence{}, err
	}
	if err := patientExists(db, patientID); err != nil {
		return model.Adherence{}, err
	}
	if err := upsertAdherence(db, patientID, day, checks); err != nil {
		return model.Adherence{}, err
	}
	return newAdherence(day, checks), nil
}

func upsertAdherence(q querier, patientID, date string, c model.AdherenceChecks) error {
	_, err := q.Exec(`
INSERT INTO adherence(patient_id, date, breakfast, lunch, dinner, supplements, updated_at)
VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(patient_id, date) DO UPDATE SET
  breakfast=excluded.breakfast, lunch=excluded.lunch, dinner=excluded.dinner,
  supplements=excluded.supplements, updated_at=excluded.updated_at
`, patientID, date, boolToInt(c.Breakfast), boolToInt(c.Lunch), boolToInt(c.Dinner), boolToInt(c.Supplements))
	if err != nil {
		return fmt.Errorf("save adherence %s: %w", date, err)
	}
	return nil
}

func ToggleAdherence(db *sql.DB, patientID, date, item string) (model.Adherence, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return model.Adherence{}, err
	}
	current, _, err := GetAdherence(db, patientID, day)
	if err != nil {
		return model.Adherence{}, err
	}
	checks := current.Checks
	switch normalizeName(item) {
	case CheckBreakfast:
		checks.Breakfast = !checks.Breakfast
	case CheckLunch:
		checks.Lunch = !checks.Lunch
	case CheckDinner:
		checks.Dinner = !checks.Dinner
	case CheckSupplements:
		checks.Supplements = !checks.Supplements
	default:
		return model.Adherence{}, invalidf("invalid adherence item %q (use breakfast, lunch, dinner or supplements)", item)
	}
	if err := upsertAdherence(db, patientID, day, checks); err != nil {
		return model.Adherence{}, err
	}
	return newAdherence(day, checks), nil
}

// GetAdherence returns the day's record, or an empty 0/4 record and false when none is stored.
func GetAdherence(db *sql.DB, patientID, date string) (model.Adherence, bool, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return model.Adherence{}, false, err
	}
	if err := patientExists(db, patientID); err != nil {
		return model.Adherence{}, false, err
	}
	var c model.AdherenceChecks
	err = db.QueryRow(`SELECT breakfast, lunch, dinner, supplements FROM adherence WHERE patient_id = ? AND date = ?`, patientID, day).
		Scan(&c.Breakfast, &c.Lunch, &c.Dinner, &c.Supplements)
	if err == sql.ErrNoRows {
		return newAdherence(day, model.AdherenceChecks{}), false, nil
	}
	if err != nil {
		return model.Adherence{}, false, fmt.Errorf("get adherence %s: %w", day, err)
	}
	return newAdherence(day, c), true, nil
}

// ListAdherence returns stored records ordered by date; from and to are inclusive and optional.
func ListAdherence(db *sql.DB, patientID, from, to string) ([]model.Adherence, error) {
	if err := patientExists(db, patientID); err != nil {
		return nil, err
	}
	return listAdherence(db, patientID, from, to)
}

func listAdherence(q querier, patientID, from, to string) ([]model.Adherence, error) {
	query := `SELECT date, breakfast, lunch, dinner, supplements FROM adherence WHERE patient_id = ?`
	args := []any{patientID}
	if strings.TrimSpace(from) != "" {
		day, err := normalizeDate(from)
		if err != nil {
			return nil, err
		}
		query += ` AND date >= ?`
		args = append(args, day)
	}
	if strings.TrimSpace(to) != "" {
		day, err := normalizeDate(to)
		if err != nil {
			return nil, err
		}
		query += ` AND date <= ?`
		args = append(args, day)
	}
	query += ` ORDER BY date ASC`

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list adherence: %w", err)
	}
	defer rows.Close()
	out := make([]model.Adherence, 0)
	for rows.Next() {
		var date string
		var c model.AdherenceChecks
		if err := rows.Scan(&date, &c.Breakfast, &c.Lunch, &c.Dinner, &c.Supplements); err != nil {
			return nil, fmt.Errorf("scan adherence: %w", err)
		}
		out = append(out, newAdherence(date, c))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adherence: %w", err)
	}
	return out, nil
}

type TrendPoint struct {
	Date      string  `json:"date"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

const DefaultTrendDays = 10

// AdherenceTrend returns one point per day for the days ending at end; missing days are 0%.
func AdherenceTrend(db *sql.DB, patientID string, end time.Time, days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = DefaultTrendDays
	}
	start := end.AddDate(0, 0, -(days - 1))
	records, err := ListAdherence(db, patientID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]int, len(records))
	for _, r := range records {
		byDate[r.Date] = r.Completed
	}
	out := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format(dateLayout)
		score := byDate[day]
		out = append(out, TrendPoint{Date: day, Completed: score, Percent: AdherencePercent(score)})
	}
	return out, nil
}

type AdherenceDay struct {
	Date      string         `json:"date"`
	Completed int            `json:"completed"`
	Level     AdherenceLevel `json:"level"`
}

func AdherenceCalendar(db *sql.DB, patientID, month string) ([]AdherenceDay, error) {
	first, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	last := first.AddDate(0, 1, -1)
	records, err := ListAdherence(db, patientID, first.Format(dateLayout), last.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]int, len(records))
	for _, r := range records {
		byDate[r.Date] = r.Completed
	}
	out := make([]AdherenceDay, 0, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		score := byDate[key]
		out = append(out, AdherenceDay{Date: key, Completed: score, Level: LevelForScore(score)})
	}
	return out, nil
}

func parseMonth(month string) (time.Time, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local), nil
	}
	t, err := time.ParseInLocation("2006-01", month, time.Local)
	if err != nil {
		return time.Time{}, invalidf("invalid month %q, expected YYYY-MM", month)
	}
	return t, nil
}
