package schedule

import (
	"database/sql"
	"time"
)

// Marker is the persisted record of whether an item's current obligation is already met.
type Marker struct {
	Kind           Kind
	LastNotifiedAt sql.NullTime // treatments
	ReminderSent   bool         // visits
}

// AlreadySatisfied is the dedup guard.
//
// Treatments dedup per calendar day, not per clock time: once any reminder went out today no
// other listed time fires until tomorrow. Visits are satisfied once the flag is set.
func AlreadySatisfied(m Marker, now time.Time) bool {
	switch m.Kind {
	case KindTreatment:
		return m.LastNotifiedAt.Valid && SameDay(m.LastNotifiedAt.Time, now)
	case KindVisit:
		return m.ReminderSent
	default:
		return false
	}
}

// SatisfiedMarker is the marker to persist after a confirmed send at now.
func SatisfiedMarker(kind Kind, now time.Time) Marker {
	switch kind {
	case KindTreatment:
		return Marker{Kind: kind, LastNotifiedAt: sql.NullTime{Time: now, Valid: true}}
	default:
		return Marker{Kind: kind, ReminderSent: true}
	}
}
