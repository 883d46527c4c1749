// internal/domain/schedule/treatment.go
package schedule

import (
	"database/sql"
	"errors"
	"time"
)

var ErrInvalidActiveWindow = errors.New("treatment active_until must be after active_from")

// Treatment is a medication prescription with daily reminder times.
// Corresponds to the 'treatments' table.
type Treatment struct {
	ID             int64
	Patient        Recipient
	Name           string
	Dosage         string
	Instructions   string
	Times          []ClockTime // sorted, unique
	InvalidTimes   []string    // stored entries that failed ParseClockTime; never matched
	ActiveFrom     time.Time   // calendar day, inclusive
	ActiveUntil    time.Time   // calendar day, inclusive
	IsActive       bool
	LastNotifiedAt sql.NullTime // marker: when the last reminder for this treatment was sent
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *Treatment) ItemID() int64        { return t.ID }
func (t *Treatment) ItemKind() Kind       { return KindTreatment }
func (t *Treatment) Recipient() Recipient { return t.Patient }

func (t *Treatment) Marker() Marker {
	return Marker{Kind: KindTreatment, LastNotifiedAt: t.LastNotifiedAt}
}

// Validate checks the rules enforced when a treatment is authored.
func (t *Treatment) Validate() error {
	if !StartOfDay(t.ActiveUntil).After(StartOfDay(t.ActiveFrom)) {
		return ErrInvalidActiveWindow
	}
	if len(t.Times) == 0 {
		return ErrInvalidClockTime
	}
	return nil
}

// InWindow reports whether now's calendar day lies within [ActiveFrom, ActiveUntil].
func (t *Treatment) InWindow(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	today := StartOfDay(now)
	from := StartOfDay(t.ActiveFrom.In(now.Location()))
	until := StartOfDay(t.ActiveUntil.In(now.Location()))
	return !today.Before(from) && !today.After(until)
}
