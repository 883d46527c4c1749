package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/domain/patient"
)

// Custom errors
var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDuplicateEmail  = errors.New("patient with this email already exists")
)

type PatientRepository struct {
	db      *sql.DB
	dialect Dialect
	loc     *time.Location
}

func NewPatientRepository(db *sql.DB, dialect Dialect, loc *time.Location) *PatientRepository {
	if loc == nil {
		loc = time.Local
	}
	return &PatientRepository{db: db, dialect: dialect, loc: loc}
}

const patientColumns = `id, name, email, telegram_id, created_at, updated_at`

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	query := `INSERT INTO patients (name, email, telegram_id, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $4)
	           RETURNING id`
	p.Email = NormalizeEmail(p.Email)
	now := time.Now().In(r.loc)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), p.Name, p.Email, p.TelegramID, r.dialect.timeArg(now)).Scan(&p.ID)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("error creating patient: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id int64) (*patient.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
}

// GetByEmail matches case-insensitively, so rows written before emails were normalized are still found.
func (r *PatientRepository) GetByEmail(ctx context.Context, email string) (*patient.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE LOWER(email) = $1 ORDER BY id LIMIT 1`, NormalizeEmail(email))
}

// NormalizeEmail is the stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *PatientRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*patient.Patient, error) {
	return r.getOne(ctx, `SELECT `+patientColumns+` FROM patients WHERE telegram_id = $1 ORDER BY id LIMIT 1`, telegramID)
}

func (r *PatientRepository) SetTelegramID(ctx context.Context, id int64, telegramID *int64) error {
	query := `UPDATE patients SET telegram_id = $1, updated_at = $2 WHERE id = $3`
	var tg sql.NullInt64
	if telegramID != nil {
		tg = sql.NullInt64{Int64: *telegramID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), tg, r.dialect.timeArg(time.Now()), id)
	if err != nil {
		return fmt.Errorf("error updating patient telegram id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) getOne(ctx context.Context, query string, arg any) (*patient.Patient, error) {
	p := &patient.Patient{}
	var createdAt, updatedAt any
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), arg).Scan(
		&p.ID, &p.Name, &p.Email, &p.TelegramID, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("error getting patient: %w", err)
	}
	if p.CreatedAt, err = mustTimestamp(createdAt, r.loc); err != nil {
		return nil, fmt.Errorf("patient %d created_at: %w", p.ID, err)
	}
	if p.UpdatedAt, err = mustTimestamp(updatedAt, r.loc); err != nil {
		return nil, fmt.Errorf("patient %d updated_at: %w", p.ID, err)
	}
	return p, nil
}
