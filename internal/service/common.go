package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func newID() string {
	return uuid.NewString()
}

func validateNonNegativeFloat(name string, value float64) error {
	if value < 0 {
		return invalidf("%s must be >= 0", name)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// ParseTimestamp accepts YYYY-MM-DD, YYYY-MM-DDTHH:MM, YYYY-MM-DDTHH:MM:SS and RFC3339.
// Values without a zone are read in local time.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(time.Local), nil
	}
	for _, layout := range []string{timestampLayout, "2006-01-02T15:04:05", "2006-01-02 15:04", dateLayout} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalidf("invalid date %q, expected YYYY-MM-DD or YYYY-MM-DDTHH:MM", value)
}

func normalizeDate(value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

func normalizeTimestamp(value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return t.Format(timestampLayout), nil
}

// normalizeOptionalTimestamp keeps empty values empty.
func normalizeOptionalTimestamp(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return normalizeTimestamp(value)
}

// lenientTimestamp normalizes parseable values and keeps anything else verbatim.
func lenientTimestamp(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if out, err := normalizeTimestamp(value); err == nil {
		return out
	}
	return value
}

func lenientDate(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if out, err := normalizeDate(value); err == nil {
		return out
	}
	return value
}

// DayKey returns the local calendar day of a stored date or timestamp, or "" when unparseable.
func DayKey(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	t, err := ParseTimestamp(value)
	if err != nil {
		return ""
	}
	return t.Format(dateLayout)
}

func encodeJSONDocument(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json document: %w", err)
	}
	return string(b), nil
}

func decodeJSONDocument(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode json document: %w", err)
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func requireAffected(res sql.Result, kind, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if affected == 0 {
		return notFound(kind, id)
	}
	return nil
}

func patientExists(q querier, patientID string) error {
	var exists int
	err := q.QueryRow(`SELECT 1 FROM patients WHERE id = ?`, patientID).Scan(&exists)
	if err == sql.ErrNoRows {
		return notFound("patient", patientID)
	}
	if err != nil {
		return fmt.Errorf("lookup patient %q: %w", patientID, err)
	}
	return nil
}

func trimStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
