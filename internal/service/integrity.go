package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"createdAt"`
	SizeBytes int64     `json:"sizeBytes"`
}

type DoctorReport struct {
	MultipleActivePlans int `json:"multipleActivePlans"`
	DanglingUserLinks   int `json:"danglingUserLinks"`
	InvalidDocuments    int `json:"invalidDocuments"`
	EmptyAdherenceRows  int `json:"emptyAdherenceRows"`
	FixedRows           int `json:"fixedRows,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return r.MultipleActivePlans == 0 && r.DanglingUserLinks == 0 && r.InvalidDocuments == 0 && r.EmptyAdherenceRows == 0
}

func CreateBackup(dbPath, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(dbPath) == "" {
		return BackupInfo{}, fmt.Errorf("db path is required")
	}
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if err := copyFile(dbPath, outPath); err != nil {
		return BackupInfo{}, err
	}
	checksum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(checksum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	return BackupInfo{Path: outPath, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("target db already exists; use --force to overwrite")
		}
	}
	checksumFile := backupPath + ".sha256"
	if expected, err := os.ReadFile(checksumFile); err == nil {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(expected)) != actual {
			return fmt.Errorf("backup checksum mismatch")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return copyFile(backupPath, dbPath)
}

func ListBackups(dir string) ([]BackupInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	out := make([]BackupInfo, 0)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".db") {
			continue
		}
		full := filepath.Join(dir, f.Name())
		st, err := os.Stat(full)
		if err != nil {
			continue
		}
		checksum := ""
		if b, err := os.ReadFile(full + ".sha256"); err == nil {
			checksum = strings.TrimSpace(string(b))
		}
		out = append(out, BackupInfo{Path: full, Checksum: checksum, CreatedAt: st.ModTime(), SizeBytes: st.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// RunDoctor checks the store for inconsistencies. With fix, it keeps the most recently created active
// plan per patient, clears user links to missing patients, resets unreadable documents to {} and drops
// adherence rows with no checks.
func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	if err := db.QueryRow(`
SELECT COUNT(1) FROM (SELECT patient_id FROM plans WHERE active = 1 GROUP BY patient_id HAVING COUNT(1) > 1)
`).Scan(&report.MultipleActivePlans); err != nil {
		return report, fmt.Errorf("doctor active plan check: %w", err)
	}
	if err := db.QueryRow(`
SELECT COUNT(1) FROM users u LEFT JOIN patients p ON p.id = u.patient_id
WHERE u.patient_id IS NOT NULL AND p.id IS NULL
`).Scan(&report.DanglingUserLinks); err != nil {
		return report, fmt.Errorf("doctor user link check: %w", err)
	}
	if err := db.QueryRow(`
SELECT COUNT(1) FROM adherence WHERE breakfast = 0 AND lunch = 0 AND dinner = 0 AND supplements = 0
`).Scan(&report.EmptyAdherenceRows); err != nil {
		return report, fmt.Errorf("doctor adherence check: %w", err)
	}

	rows, err := db.Query(`SELECT id, lifestyle_json, clinical_json FROM patients`)
	if err != nil {
		return report, fmt.Errorf("doctor document query: %w", err)
	}
	type badDoc struct {
		id, column string
	}
	invalid := make([]badDoc, 0)
	for rows.Next() {
		var id, lifestyle, clinical string
		if err := rows.Scan(&id, &lifestyle, &clinical); err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("doctor document scan: %w", err)
		}
		if !validDocument(lifestyle) {
			invalid = append(invalid, badDoc{id, "lifestyle_json"})
		}
		if !validDocument(clinical) {
			invalid = append(invalid, badDoc{id, "clinical_json"})
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return report, fmt.Errorf("doctor document iterate: %w", err)
	}
	_ = rows.Close()
	report.InvalidDocuments = len(invalid)

	if !fix || report.Healthy() {
		return report, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("doctor fix begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.Exec(`
UPDATE plans SET active = 0
WHERE active = 1 AND id NOT IN (
  SELECT (SELECT p2.id FROM plans p2 WHERE p2.patient_id = p1.patient_id AND p2.active = 1
          ORDER BY p2.created_at DESC, p2.rowid DESC LIMIT 1)
  FROM plans p1 WHERE p1.active = 1 GROUP BY p1.patient_id
)`)
	if err != nil {
		return report, fmt.Errorf("doctor fix active plans: %w", err)
	}
	report.FixedRows += affected(res)
	res, err = tx.Exec(`UPDATE users SET patient_id = NULL WHERE patient_id IS NOT NULL AND patient_id NOT IN (SELECT id FROM patients)`)
	if err != nil {
		return report, fmt.Errorf("doctor fix user links: %w", err)
	}
	report.FixedRows += affected(res)
	for _, d := range invalid {
		if _, err := tx.Exec(`UPDATE patients SET `+d.column+` = '{}', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, d.id); err != nil {
			return report, fmt.Errorf("doctor fix patient %q %s: %w", d.id, d.column, err)
		}
		report.FixedRows++
	}
	res, err = tx.Exec(`DELETE FROM adherence WHERE breakfast = 0 AND lunch = 0 AND dinner = 0 AND supplements = 0`)
	if err != nil {
		return report, fmt.Errorf("doctor fix adherence: %w", err)
	}
	report.FixedRows += affected(res)
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("doctor fix commit: %w", err)
	}
	return report, nil
}

func validDocument(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || json.Valid([]byte(raw))
}

func affected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync destination file: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
