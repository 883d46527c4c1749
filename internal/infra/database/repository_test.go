package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/domain/patient"
	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = time.FixedZone("AMT", 4*60*60)

func day(d, hour, minute int) time.Time {
	return time.Date(2024, time.March, d, hour, minute, 0, 0, testLoc)
}

func newTestStore(t *testing.T) (*ScheduleRepository, *PatientRepository) {
	t.Helper()
	db, err := NewConnection(DriverSQLite, filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialect, err := NewDialect(DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(context.Background(), db, dialect))
	// Applying the schema twice must be harmless.
	require.NoError(t, EnsureSchema(context.Background(), db, dialect))

	return NewScheduleRepository(db, dialect, testLoc), NewPatientRepository(db, dialect, testLoc)
}

func createPatient(t *testing.T, repo *PatientRepository, email string, chatID int64) *patient.Patient {
	t.Helper()
	p := &patient.Patient{Name: "Anna", Email: email}
	if chatID != 0 {
		p.TelegramID = sql.NullInt64{Int64: chatID, Valid: true}
	}
	require.NoError(t, repo.Create(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

func createTreatment(t *testing.T, repo *ScheduleRepository, patientID int64, times ...string) *schedule.Treatment {
	t.Helper()
	parsed, _ := schedule.ParseClockTimes(times)
	tr := &schedule.Treatment{
		Patient:     schedule.Recipient{PatientID: patientID},
		Name:        "Metformin",
		Dosage:      "500mg",
		Times:       parsed,
		ActiveFrom:  day(9, 0, 0),
		ActiveUntil: day(11, 0, 0),
		IsActive:    true,
	}
	require.NoError(t, repo.CreateTreatment(context.Background(), tr))
	return tr
}

func TestRebind(t *testing.T) {
	sqlite := Dialect{Driver: DriverSQLite}
	assert.Equal(t, "SELECT ?1, ?2, ?1", sqlite.Rebind("SELECT $1, $2, $1"))

	pg := Dialect{Driver: DriverPostgres}
	assert.Equal(t, "SELECT $1", pg.Rebind("SELECT $1"))

	_, err := NewDialect("mysql")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestPatientRepository(t *testing.T) {
	ctx := context.Background()
	_, patients := newTestStore(t)

	p := createPatient(t, patients, "anna@example.com", 0)

	got, err := patients.GetByEmail(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.False(t, got.Linked())

	chatID := int64(555)
	require.NoError(t, patients.SetTelegramID(ctx, p.ID, &chatID))
	got, err = patients.GetByTelegramID(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	require.NoError(t, patients.SetTelegramID(ctx, p.ID, nil))
	_, err = patients.GetByTelegramID(ctx, 555)
	assert.ErrorIs(t, err, ErrPatientNotFound)

	_, err = patients.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.ErrorIs(t, patients.SetTelegramID(ctx, 9999, nil), ErrPatientNotFound)

	err = patients.Create(ctx, &patient.Patient{Name: "Dup", Email: "anna@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestPatientEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	_, patients := newTestStore(t)

	p := createPatient(t, patients, "  Anna@Example.COM ", 0)
	assert.Equal(t, "anna@example.com", p.Email, "stored form is trimmed and lowercased")

	for _, email := range []string{"anna@example.com", "ANNA@EXAMPLE.COM", "Anna@Example.com"} {
		got, err := patients.GetByEmail(ctx, email)
		require.NoError(t, err, email)
		assert.Equal(t, p.ID, got.ID)
	}

	err := patients.Create(ctx, &patient.Patient{Name: "Dup", Email: "ANNA@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetByEmailFindsLegacyMixedCaseRow(t *testing.T) {
	ctx := context.Background()
	_, patients := newTestStore(t)

	// Insert bypassing Create, as an admin tool or an older release would have.
	_, err := patients.db.ExecContext(ctx, patients.dialect.Rebind(
		`INSERT INTO patients (name, email, created_at, updated_at) VALUES ($1, $2, $3, $3)`),
		"Legacy", "Legacy.User@Example.com", patients.dialect.timeArg(time.Now()))
	require.NoError(t, err)

	got, err := patients.GetByEmail(ctx, "legacy.user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Legacy", got.Name)
}

func TestListActiveTreatmentsWindow(t *testing.T) {
	ctx := context.Background()
	schedules, patients := newTestStore(t)
	p := createPatient(t, patients, "anna@example.com", 700)
	tr := createTreatment(t, schedules, p.ID, "20:00", "08:00", "08:00")

	for _, tc := range []struct {
		now  time.Time
		want int
	}{
		{day(8, 23, 59), 0},
		{day(9, 0, 0), 1},
		{day(11, 23, 59), 1},
		{day(12, 0, 0), 0},
	} {
		got, err := schedules.ListActiveTreatments(ctx, tc.now)
		require.NoError(t, err)
		assert.Len(t, got, tc.want, "now=%s", tc.now)
	}

	got, err := schedules.ListActiveTreatments(ctx, day(10, 8, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	loaded := got[0]
	assert.Equal(t, tr.ID, loaded.ID)
	assert.Equal(t, "Anna", loaded.Patient.Name)
	chatID, ok := loaded.Patient.ChatID()
	assert.True(t, ok)
	assert.Equal(t, int64(700), chatID)
	require.Len(t, loaded.Times, 2)
	assert.Equal(t, "08:00", loaded.Times[0].String())
	assert.Equal(t, "20:00", loaded.Times[1].String())
	assert.True(t, schedule.SameDay(loaded.ActiveFrom, day(9, 0, 0)))
	assert.False(t, loaded.LastNotifiedAt.Valid)

	require.NoError(t, schedules.DeactivateTreatment(ctx, tr.ID))
	got, err = schedules.ListActiveTreatments(ctx, day(10, 8, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTreatmentMarkerPersists(t *testing.T) {
	ctx := context.Background()
	schedules, patients := newTestStore(t)
	p := createPatient(t, patients, "anna@example.com", 700)
	tr := createTreatment(t, schedules, p.ID, "08:00")

	sentAt := day(10, 8, 1)
	marker := schedule.SatisfiedMarker(schedule.KindTreatment, sentAt)
	require.NoError(t, schedules.UpdateMarker(ctx, schedule.KindTreatment, tr.ID, marker))
	require.NoError(t, schedules.UpdateMarker(ctx, schedule.KindTreatment, tr.ID, marker), "idempotent")

	loaded, err := schedules.GetTreatmentByID(ctx, tr.ID)
	require.NoError(t, err)
	require.True(t, loaded.LastNotifiedAt.Valid)
	assert.True(t, loaded.LastNotifiedAt.Time.Equal(sentAt))
	assert.True(t, schedule.AlreadySatisfied(loaded.Marker(), day(10, 20, 0)))

	err = schedules.UpdateMarker(ctx, schedule.KindTreatment, 9999, marker)
	assert.ErrorIs(t, err, ErrTreatmentNotFound)
	_, err = schedules.GetTreatmentByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrTreatmentNotFound)
}

func TestCreateTreatmentRejectsInvalidWindow(t *testing.T) {
	schedules, patients := newTestStore(t)
	p := createPatient(t, patients, "anna@example.com", 0)
	parsed, _ := schedule.ParseClockTimes([]string{"08:00"})

	err := schedules.CreateTreatment(context.Background(), &schedule.Treatment{
		Patient:     schedule.Recipient{PatientID: p.ID},
		Name:        "Aspirin",
		Times:       parsed,
		ActiveFrom:  day(10, 0, 0),
		ActiveUntil: day(10, 0, 0),
		IsActive:    true,
	})
	assert.ErrorIs(t, err, schedule.ErrInvalidActiveWindow)
}

func TestListVisitsDueTomorrow(t *testing.T) {
	ctx := context.Background()
	schedules, patients := newTestStore(t)
	p := createPatient(t, patients, "anna@example.com", 700)

	newVisit := func(at time.Time) *schedule.Visit {
		v := &schedule.Visit{
			Patient:    schedule.Recipient{PatientID: p.ID},
			DoctorName: "Dr. Petrosyan",
			Location:   "Room 4",
			VisitAt:    at,
		}
		require.NoError(t, schedules.CreateVisit(ctx, v))
		return v
	}
	early := newVisit(day(15, 0, 0))
	late := newVisit(day(15, 23, 59))
	newVisit(day(16, 0, 0))
	newVisit(day(14, 23, 59))
	cancelled := newVisit(day(15, 12, 0))
	require.NoError(t, schedules.CancelVisit(ctx, cancelled.ID))

	got, err := schedules.ListVisitsDueTomorrow(ctx, day(14, 9, 0))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
	assert.Equal(t, schedule.VisitStatusScheduled, got[0].Status)
	assert.True(t, got[0].VisitAt.Equal(day(15, 0, 0)))

	require.NoError(t, schedules.UpdateMarker(ctx, schedule.KindVisit, early.ID, schedule.SatisfiedMarker(schedule.KindVisit, day(14, 9, 0))))
	got, err = schedules.ListVisitsDueTomorrow(ctx, day(14, 9, 5))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, late.ID, got[0].ID)

	loaded, err := schedules.GetVisitByID(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, loaded.ReminderSent)

	err = schedules.UpdateMarker(ctx, schedule.KindVisit, early.ID, schedule.Marker{Kind: schedule.KindVisit})
	assert.ErrorIs(t, err, ErrMarkerRegression)

	loaded, err = schedules.GetVisitByID(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.VisitStatusCancelled, loaded.Status)

	assert.ErrorIs(t, schedules.CancelVisit(ctx, 9999), ErrVisitNotFound)
}
