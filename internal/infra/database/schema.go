package database

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		telegram_id BIGINT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patients_telegram_id ON patients(telegram_id)`,
	`CREATE TABLE IF NOT EXISTS treatments (
		id               BIGSERIAL PRIMARY KEY,
		patient_id       BIGINT NOT NULL REFERENCES patients(id),
		name             TEXT NOT NULL,
		dosage           TEXT NOT NULL,
		instructions     TEXT NOT NULL DEFAULT '',
		times            TEXT NOT NULL,
		active_from      DATE NOT NULL,
		active_until     DATE NOT NULL,
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		last_notified_at TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT treatments_window_check CHECK (active_until > active_from)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_treatments_active ON treatments(is_active, active_from, active_until)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id            BIGSERIAL PRIMARY KEY,
		patient_id    BIGINT NOT NULL REFERENCES patients(id),
		doctor_name   TEXT NOT NULL,
		clinic_name   TEXT NOT NULL DEFAULT '',
		location      TEXT NOT NULL,
		notes         TEXT NOT NULL DEFAULT '',
		visit_at      TIMESTAMPTZ NOT NULL,
		status        TEXT NOT NULL DEFAULT 'scheduled',
		reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visits_due ON visits(visit_at, status, reminder_sent)`,
}

// Dates and timestamps are TEXT so the driver hands them back verbatim.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		telegram_id INTEGER,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patients_telegram_id ON patients(telegram_id)`,
	`CREATE TABLE IF NOT EXISTS treatments (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id       INTEGER NOT NULL REFERENCES patients(id),
		name             TEXT NOT NULL,
		dosage           TEXT NOT NULL,
		instructions     TEXT NOT NULL DEFAULT '',
		times            TEXT NOT NULL,
		active_from      TEXT NOT NULL,
		active_until     TEXT NOT NULL,
		is_active        INTEGER NOT NULL DEFAULT 1,
		last_notified_at TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		CHECK (active_until > active_from)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_treatments_active ON treatments(is_active, active_from, active_until)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id    INTEGER NOT NULL REFERENCES patients(id),
		doctor_name   TEXT NOT NULL,
		clinic_name   TEXT NOT NULL DEFAULT '',
		location      TEXT NOT NULL,
		notes         TEXT NOT NULL DEFAULT '',
		visit_at      TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'scheduled',
		reminder_sent INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visits_due ON visits(visit_at, status, reminder_sent)`,
}
