package app

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/domain/patient"
	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"
	idb "github.com/aacc1on/medreminder-bolt/internal/infra/database"
)

// fakeScheduleRepo filters candidates the way the SQL store does and applies markers in place.
type fakeScheduleRepo struct {
	mu         sync.Mutex
	treatments []*schedule.Treatment
	visits     []*schedule.Visit

	listErr   error
	markerErr error
	markers   []int64
}

func (r *fakeScheduleRepo) ListActiveTreatments(_ context.Context, now time.Time) ([]*schedule.Treatment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*schedule.Treatment
	for _, t := range r.treatments {
		if t.InWindow(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) ListVisitsDueTomorrow(_ context.Context, now time.Time) ([]*schedule.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	tomorrow := schedule.StartOfDay(now).AddDate(0, 0, 1)
	var out []*schedule.Visit
	for _, v := range r.visits {
		if v.Status == schedule.VisitStatusScheduled && !v.ReminderSent && schedule.SameDay(v.VisitAt, tomorrow) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) UpdateMarker(_ context.Context, kind schedule.Kind, id int64, m schedule.Marker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markerErr != nil {
		return r.markerErr
	}
	r.markers = append(r.markers, id)
	switch kind {
	case schedule.KindTreatment:
		for _, t := range r.treatments {
			if t.ID == id {
				t.LastNotifiedAt = m.LastNotifiedAt
				return nil
			}
		}
		return idb.ErrTreatmentNotFound
	case schedule.KindVisit:
		for _, v := range r.visits {
			if v.ID == id {
				v.ReminderSent = m.ReminderSent
				return nil
			}
		}
		return idb.ErrVisitNotFound
	}
	return ErrUnknownKind
}

func (r *fakeScheduleRepo) CreateTreatment(context.Context, *schedule.Treatment) error {
	return errors.New("not implemented")
}
func (r *fakeScheduleRepo) GetTreatmentByID(context.Context, int64) (*schedule.Treatment, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeScheduleRepo) DeactivateTreatment(context.Context, int64) error {
	return errors.New("not implemented")
}
func (r *fakeScheduleRepo) CreateVisit(context.Context, *schedule.Visit) error {
	return errors.New("not implemented")
}
func (r *fakeScheduleRepo) GetVisitByID(context.Context, int64) (*schedule.Visit, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeScheduleRepo) CancelVisit(context.Context, int64) error {
	return errors.New("not implemented")
}

type sentReminder struct {
	chatID int64
	kind   schedule.Kind
	itemID int64
}

// fakeNotifier records sends. Behaviour per item id can be overridden with failFor, panicFor
// and blockFor (blocks until release is closed).
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentReminder
	failFor  map[int64]error
	panicFor map[int64]bool
	blockFor map[int64]bool
	release  chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		failFor:  map[int64]error{},
		panicFor: map[int64]bool{},
		blockFor: map[int64]bool{},
		release:  make(chan struct{}),
	}
}

func (n *fakeNotifier) SendReminder(_ context.Context, chatID int64, item schedule.Item) error {
	id := item.ItemID()
	n.mu.Lock()
	err, fail := n.failFor[id]
	shouldPanic := n.panicFor[id]
	block := n.blockFor[id]
	n.mu.Unlock()

	if block {
		<-n.release
	}
	if shouldPanic {
		panic("telegram exploded")
	}
	if fail {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentReminder{chatID: chatID, kind: item.ItemKind(), itemID: id})
	return nil
}

func (n *fakeNotifier) sends() []sentReminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentReminder(nil), n.sent...)
}

type fakePatientRepo struct {
	patients []*patient.Patient
	setErr   error
}

func (r *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	p.ID = int64(len(r.patients) + 1)
	r.patients = append(r.patients, p)
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id int64) (*patient.Patient, error) {
	for _, p := range r.patients {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, idb.ErrPatientNotFound
}

func (r *fakePatientRepo) GetByEmail(_ context.Context, email string) (*patient.Patient, error) {
	for _, p := range r.patients {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, idb.ErrPatientNotFound
}

func (r *fakePatientRepo) GetByTelegramID(_ context.Context, telegramID int64) (*patient.Patient, error) {
	for _, p := range r.patients {
		if p.TelegramID.Valid && p.TelegramID.Int64 == telegramID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, idb.ErrPatientNotFound
}

func (r *fakePatientRepo) SetTelegramID(_ context.Context, id int64, telegramID *int64) error {
	if r.setErr != nil {
		return r.setErr
	}
	for _, p := range r.patients {
		if p.ID == id {
			p.TelegramID = sql.NullInt64{}
			if telegramID != nil {
				p.TelegramID = sql.NullInt64{Int64: *telegramID, Valid: true}
			}
			return nil
		}
	}
	return idb.ErrPatientNotFound
}
