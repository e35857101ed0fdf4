package nutri

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/saadjs/nutri-cli/internal/app"
	"github.com/saadjs/nutri-cli/internal/db"
	"github.com/saadjs/nutri-cli/internal/model"
	"github.com/saadjs/nutri-cli/internal/service"
)

var errNotLoggedIn = errors.New("not logged in (run `nutri login`)")

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg != nil && cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	return app.DefaultDBPath()
}

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	logger.Debug("database opened", zap.String("path", path))
	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

// withSession runs with the logged-in user.
func withSession(run func(*sql.DB, *model.User) error) error {
	return withDB(func(sqldb *sql.DB) error {
		u, err := service.CurrentSession(sqldb)
		if err != nil {
			return err
		}
		if u == nil {
			return errNotLoggedIn
		}
		return run(sqldb, u)
	})
}

// withAdmin runs only for a logged-in clinician.
func withAdmin(run func(*sql.DB, *model.User) error) error {
	return withSession(func(sqldb *sql.DB, u *model.User) error {
		if err := service.RequireAdmin(u); err != nil {
			return err
		}
		return run(sqldb, u)
	})
}

// requireAdmin checks that the session belongs to a clinician without holding the database open.
func requireAdmin() error {
	return withAdmin(func(*sql.DB, *model.User) error { return nil })
}

// withPatientAccess runs when the session may see patientID.
func withPatientAccess(patientID string, run func(*sql.DB, *model.User) error) error {
	return withSession(func(sqldb *sql.DB, u *model.User) error {
		if err := service.CanAccessPatient(u, patientID); err != nil {
			return err
		}
		return run(sqldb, u)
	})
}

// patientArg returns the positional patient id, falling back to the patient's own record.
func patientArg(args []string, u *model.User) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if u != nil && u.Role == model.RolePatient && u.PatientID != "" {
		return u.PatientID, nil
	}
	return "", fmt.Errorf("patient id is required")
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// readJSONFile decodes path, or stdin when path is "-".
func readJSONFile(path string, v any) error {
	raw, err := readInput(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func readInput(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
