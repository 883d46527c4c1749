// internal/infra/database/schedule_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"
)

// Custom errors specific to the schedule repository
var (
	ErrTreatmentNotFound = errors.New("treatment not found")
	ErrVisitNotFound     = errors.New("visit not found")
	ErrMarkerRegression  = errors.New("visit reminder marker cannot be reset")
)

// ScheduleRepository implements schedule.Repository on PostgreSQL or SQLite.
// Calendar dates read from the store are interpreted in loc.
type ScheduleRepository struct {
	db      *sql.DB
	dialect Dialect
	loc     *time.Location
}

func NewScheduleRepository(db *sql.DB, dialect Dialect, loc *time.Location) *ScheduleRepository {
	if loc == nil {
		loc = time.Local
	}
	return &ScheduleRepository{db: db, dialect: dialect, loc: loc}
}

const treatmentColumns = `t.id, t.patient_id, p.name, p.telegram_id, t.name, t.dosage, t.instructions, t.times,
	t.active_from, t.active_until, t.is_active, t.last_notified_at, t.created_at, t.updated_at`

const visitColumns = `v.id, v.patient_id, p.name, p.telegram_id, v.doctor_name, v.clinic_name, v.location, v.notes,
	v.visit_at, v.status, v.reminder_sent, v.created_at, v.updated_at`

// --- Candidate queries ---

func (r *ScheduleRepository) ListActiveTreatments(ctx context.Context, now time.Time) ([]*schedule.Treatment, error) {
	query := `SELECT ` + treatmentColumns + `
	           FROM treatments t JOIN patients p ON p.id = t.patient_id
	           WHERE t.is_active = TRUE AND t.active_from <= $1 AND t.active_until >= $1
	           ORDER BY t.id`
	today := dateArg(now.In(r.loc))
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), today)
	if err != nil {
		return nil, fmt.Errorf("error querying active treatments: %w", err)
	}
	defer rows.Close()
	return r.scanTreatments(rows)
}

func (r *ScheduleRepository) ListVisitsDueTomorrow(ctx context.Context, now time.Time) ([]*schedule.Visit, error) {
	query := `SELECT ` + visitColumns + `
	           FROM visits v JOIN patients p ON p.id = v.patient_id
	           WHERE v.visit_at >= $1 AND v.visit_at < $2
	             AND v.status = $3 AND v.reminder_sent = FALSE
	           ORDER BY v.visit_at, v.id`
	tomorrow := schedule.StartOfDay(now.In(r.loc)).AddDate(0, 0, 1)
	dayAfter := tomorrow.AddDate(0, 0, 1)
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query),
		r.dialect.timeArg(tomorrow), r.dialect.timeArg(dayAfter), string(schedule.VisitStatusScheduled))
	if err != nil {
		return nil, fmt.Errorf("error querying visits due tomorrow: %w", err)
	}
	defer rows.Close()
	return r.scanVisits(rows)
}

// UpdateMarker writes a single row, so the write is atomic. Visit markers only ever move to true.
func (r *ScheduleRepository) UpdateMarker(ctx context.Context, kind schedule.Kind, id int64, m schedule.Marker) error {
	now := time.Now()
	switch kind {
	case schedule.KindTreatment:
		query := `UPDATE treatments SET last_notified_at = $1, updated_at = $2 WHERE id = $3`
		return r.execOne(ctx, ErrTreatmentNotFound, query,
			r.dialect.nullTimeArg(m.LastNotifiedAt), r.dialect.timeArg(now), id)
	case schedule.KindVisit:
		if !m.ReminderSent {
			return ErrMarkerRegression
		}
		query := `UPDATE visits SET reminder_sent = TRUE, updated_at = $1 WHERE id = $2`
		return r.execOne(ctx, ErrVisitNotFound, query, r.dialect.timeArg(now), id)
	default:
		return fmt.Errorf("unknown schedule kind %q", kind)
	}
}

// --- Authoring ---

func (r *ScheduleRepository) CreateTreatment(ctx context.Context, t *schedule.Treatment) error {
	if err := t.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO treatments (patient_id, name, dosage, instructions, times, active_from, active_until,
	                                  is_active, last_notified_at, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	           RETURNING id`
	now := time.Now().In(r.loc)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query),
		t.Patient.PatientID, t.Name, t.Dosage, t.Instructions, formatTimes(t.Times),
		dateArg(t.ActiveFrom.In(r.loc)), dateArg(t.ActiveUntil.In(r.loc)),
		t.IsActive, r.dialect.nullTimeArg(t.LastNotifiedAt), r.dialect.timeArg(now),
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("error creating treatment: %w", err)
	}
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

func (r *ScheduleRepository) GetTreatmentByID(ctx context.Context, id int64) (*schedule.Treatment, error) {
	query := `SELECT ` + treatmentColumns + `
	           FROM treatments t JOIN patients p ON p.id = t.patient_id
	           WHERE t.id = $1`
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), id)
	if err != nil {
		return nil, fmt.Errorf("error getting treatment by ID: %w", err)
	}
	defer rows.Close()
	treatments, err := r.scanTreatments(rows)
	if err != nil {
		return nil, err
	}
	if len(treatments) == 0 {
		return nil, ErrTreatmentNotFound
	}
	return treatments[0], nil
}

func (r *ScheduleRepository) DeactivateTreatment(ctx context.Context, id int64) error {
	query := `UPDATE treatments SET is_active = FALSE, updated_at = $1 WHERE id = $2`
	return r.execOne(ctx, ErrTreatmentNotFound, query, r.dialect.timeArg(time.Now()), id)
}

func (r *ScheduleRepository) CreateVisit(ctx context.Context, v *schedule.Visit) error {
	if v.Status == "" {
		v.Status = schedule.VisitStatusScheduled
	}
	query := `INSERT INTO visits (patient_id, doctor_name, clinic_name, location, notes, visit_at, status,
	                              reminder_sent, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	           RETURNING id`
	now := time.Now().In(r.loc)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query),
		v.Patient.PatientID, v.DoctorName, v.ClinicName, v.Location, v.Notes,
		r.dialect.timeArg(v.VisitAt), string(v.Status), v.ReminderSent, r.dialect.timeArg(now),
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("error creating visit: %w", err)
	}
	v.CreatedAt, v.UpdatedAt = now, now
	return nil
}

func (r *ScheduleRepository) GetVisitByID(ctx context.Context, id int64) (*schedule.Visit, error) {
	query := `SELECT ` + visitColumns + `
	           FROM visits v JOIN patients p ON p.id = v.patient_id
	           WHERE v.id = $1`
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), id)
	if err != nil {
		return nil, fmt.Errorf("error getting visit by ID: %w", err)
	}
	defer rows.Close()
	visits, err := r.scanVisits(rows)
	if err != nil {
		return nil, err
	}
	if len(visits) == 0 {
		return nil, ErrVisitNotFound
	}
	return visits[0], nil
}

func (r *ScheduleRepository) CancelVisit(ctx context.Context, id int64) error {
	query := `UPDATE visits SET status = $1, updated_at = $2 WHERE id = $3`
	return r.execOne(ctx, ErrVisitNotFound, query, string(schedule.VisitStatusCancelled), r.dialect.timeArg(time.Now()), id)
}

// --- helpers ---

func (r *ScheduleRepository) execOne(ctx context.Context, notFound error, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("error executing update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (r *ScheduleRepository) scanTreatments(rows *sql.Rows) ([]*schedule.Treatment, error) {
	treatments := make([]*schedule.Treatment, 0)
	for rows.Next() {
		t := &schedule.Treatment{}
		var (
			rawTimes                string
			activeFrom, activeUntil any
			lastNotified            any
			createdAt, updatedAt    any
		)
		if err := rows.Scan(
			&t.ID, &t.Patient.PatientID, &t.Patient.Name, &t.Patient.TelegramID,
			&t.Name, &t.Dosage, &t.Instructions, &rawTimes,
			&activeFrom, &activeUntil, &t.IsActive, &lastNotified, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning treatment row: %w", err)
		}

		var err error
		if t.ActiveFrom, err = parseDate(activeFrom, r.loc); err != nil {
			return nil, fmt.Errorf("treatment %d active_from: %w", t.ID, err)
		}
		if t.ActiveUntil, err = parseDate(activeUntil, r.loc); err != nil {
			return nil, fmt.Errorf("treatment %d active_until: %w", t.ID, err)
		}
		if t.LastNotifiedAt, err = parseTimestamp(lastNotified, r.loc); err != nil {
			return nil, fmt.Errorf("treatment %d last_notified_at: %w", t.ID, err)
		}
		if t.CreatedAt, err = mustTimestamp(createdAt, r.loc); err != nil {
			return nil, fmt.Errorf("treatment %d created_at: %w", t.ID, err)
		}
		if t.UpdatedAt, err = mustTimestamp(updatedAt, r.loc); err != nil {
			return nil, fmt.Errorf("treatment %d updated_at: %w", t.ID, err)
		}
		t.Times, t.InvalidTimes = schedule.ParseClockTimes(splitTimes(rawTimes))
		treatments = append(treatments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating treatment rows: %w", err)
	}
	return treatments, nil
}

func (r *ScheduleRepository) scanVisits(rows *sql.Rows) ([]*schedule.Visit, error) {
	visits := make([]*schedule.Visit, 0)
	for rows.Next() {
		v := &schedule.Visit{}
		var visitAt, createdAt, updatedAt any
		if err := rows.Scan(
			&v.ID, &v.Patient.PatientID, &v.Patient.Name, &v.Patient.TelegramID,
			&v.DoctorName, &v.ClinicName, &v.Location, &v.Notes,
			&visitAt, &v.Status, &v.ReminderSent, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning visit row: %w", err)
		}

		var err error
		if v.VisitAt, err = mustTimestamp(visitAt, r.loc); err != nil {
			return nil, fmt.Errorf("visit %d visit_at: %w", v.ID, err)
		}
		if v.CreatedAt, err = mustTimestamp(createdAt, r.loc); err != nil {
			return nil, fmt.Errorf("visit %d created_at: %w", v.ID, err)
		}
		if v.UpdatedAt, err = mustTimestamp(updatedAt, r.loc); err != nil {
			return nil, fmt.Errorf("visit %d updated_at: %w", v.ID, err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visit rows: %w", err)
	}
	return visits, nil
}

// Clock times are stored as a comma separated list, e.g. "08:00,20:00".
func formatTimes(times []schedule.ClockTime) string {
	parts := make([]string, len(times))
	for i, ct := range times {
		parts[i] = ct.String()
	}
	return strings.Join(parts, ",")
}

func splitTimes(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
