package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS patients (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL CHECK(length(trim(name)) > 0),
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  dob TEXT NOT NULL DEFAULT '',
  gender TEXT NOT NULL DEFAULT 'F' CHECK(gender IN ('M', 'F')),
  occupation TEXT NOT NULL DEFAULT '',
  marital_status TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  avatar_url TEXT NOT NULL DEFAULT '',
  lifestyle_json TEXT NOT NULL DEFAULT '{}',
  clinical_json TEXT NOT NULL DEFAULT '{}',
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE COLLATE NOCASE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL CHECK(role IN ('admin', 'patient')),
  patient_id TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(patient_id) REFERENCES patients(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 2,
		name:    "clinical_records",
		sql: `
CREATE TABLE IF NOT EXISTS notes (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL,
  date TEXT NOT NULL,
  objective TEXT NOT NULL DEFAULT '',
  observations TEXT NOT NULL DEFAULT '',
  next_appointment TEXT NOT NULL DEFAULT '',
  evolution_json TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(patient_id) REFERENCES patients(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_notes_patient_date ON notes(patient_id, date);
CREATE INDEX IF NOT EXISTS idx_notes_next_appointment ON notes(next_appointment);

CREATE TABLE IF NOT EXISTS note_images (
  note_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  data_url TEXT NOT NULL,
  PRIMARY KEY(note_id, position),
  FOREIGN KEY(note_id) REFERENCES notes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS anthropometry (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL,
  date TEXT NOT NULL,
  weight_kg REAL NOT NULL DEFAULT 0 CHECK(weight_kg >= 0),
  height_cm REAL NOT NULL DEFAULT 0 CHECK(height_cm >= 0),
  imc REAL NOT NULL DEFAULT 0,
  waist REAL NOT NULL DEFAULT 0,
  hip REAL NOT NULL DEFAULT 0,
  abdomen REAL NOT NULL DEFAULT 0,
  chest REAL NOT NULL DEFAULT 0,
  arm_r REAL NOT NULL DEFAULT 0,
  arm_l REAL NOT NULL DEFAULT 0,
  thigh REAL NOT NULL DEFAULT 0,
  calf REAL NOT NULL DEFAULT 0,
  fold_tricipital REAL NOT NULL DEFAULT 0,
  fold_bicipital REAL NOT NULL DEFAULT 0,
  fold_subscapular REAL NOT NULL DEFAULT 0,
  fold_suprailiac REAL NOT NULL DEFAULT 0,
  fold_abdominal REAL NOT NULL DEFAULT 0,
  fold_quadriceps REAL NOT NULL DEFAULT 0,
  activity REAL NOT NULL DEFAULT 0,
  bmr REAL NOT NULL DEFAULT 0,
  tdee REAL NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(patient_id) REFERENCES patients(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_anthropometry_patient_date ON anthropometry(patient_id, date);

CREATE TABLE IF NOT EXISTS labs (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL,
  name TEXT NOT NULL,
  date TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(patient_id) REFERENCES patients(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_labs_patient_date ON labs(patient_id, date);

CREATE TABLE IF NOT EXISTS lab_markers (
  lab_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  value TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT '',
  flag TEXT NOT NULL DEFAULT '' CHECK(flag IN ('', 'high', 'low', 'normal')),
  PRIMARY KEY(lab_id, position),
  FOREIGN KEY(lab_id) REFERENCES labs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS lab_attachments (
  lab_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  data_url TEXT NOT NULL,
  PRIMARY KEY(lab_id, position),
  FOREIGN KEY(lab_id) REFERENCES labs(id) ON DELETE CASCADE
);
`,
	},
	{
		version: 3,
		name:    "plans_and_adherence",
		sql: `
CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  patient_id TEXT NOT NULL,
  name TEXT NOT NULL,
  kcal_target INTEGER NOT NULL DEFAULT 0 CHECK(kcal_target >= 0),
  active INTEGER NOT NULL DEFAULT 0 CHECK(active IN (0, 1)),
  supplements TEXT NOT NULL DEFAULT '',
  avoid TEXT NOT NULL DEFAULT '',
  protein_g REAL,
  carbs_g REAL,
  fat_g REAL,
  created_at TEXT NOT NULL,
  FOREIGN KEY(patient_id) REFERENCES patients(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_plans_patient ON plans(patient_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_single_active ON plans(patient_id) WHERE active = 1;

CREATE TABLE IF NOT EXISTS plan_sections (
  plan_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  title TEXT NOT NULL,
  PRIMARY KEY(plan_id, position),
  FOREIGN KEY(plan_id) REFERENCES plans(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS plan_meals (
  plan_id TEXT NOT NULL,
  section_position INTEGER NOT NULL,
  position INTEGER NOT NULL,
  id TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  PRIMARY KEY(plan_id, section_position, position),
  FOREIGN KEY(plan_id, section_position) REFERENCES plan_sections(plan_id, position) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS adherence (
  patient_id TEXT NOT NULL,
  date TEXT NOT NULL,
  breakfast INTEGER NOT NULL DEFAULT 0 CHECK(breakfast IN (0, 1)),
  lunch INTEGER NOT NULL DEFAULT 0 CHECK(lunch IN (0, 1)),
  dinner INTEGER NOT NULL DEFAULT 0 CHECK(dinner IN (0, 1)),
  supplements INTEGER NOT NULL DEFAULT 0 CHECK(supplements IN (0, 1)),
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(patient_id, date),
  FOREIGN KEY(patient_id) REFERENCES patients(id) ON DELETE CASCADE
);
`,
	},
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	return nil
}

// LatestVersion reports the newest schema version this binary knows about.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}
