// internal/domain/schedule/shared_types.go
package schedule

import "database/sql"

// Kind identifies which variant of schedulable item a tick works on.
type Kind string

const (
	KindTreatment Kind = "TREATMENT" // daily medication clock times
	KindVisit     Kind = "VISIT"     // one-off appointment, reminded the day before
)

// VisitStatus mirrors the appointment lifecycle owned by the authoring flow.
type VisitStatus string

const (
	VisitStatusScheduled   VisitStatus = "scheduled"
	VisitStatusCompleted   VisitStatus = "completed"
	VisitStatusCancelled   VisitStatus = "cancelled"
	VisitStatusRescheduled VisitStatus = "rescheduled"
)

// Recipient is the patient an item belongs to, resolved by the store together with the item.
type Recipient struct {
	PatientID  int64
	Name       string
	TelegramID sql.NullInt64 // NULL until the patient links a chat via /connect
}

// ChatID returns the delivery-channel identity, or false when the patient has not linked one.
func (r Recipient) ChatID() (int64, bool) {
	if !r.TelegramID.Valid || r.TelegramID.Int64 == 0 {
		return 0, false
	}
	return r.TelegramID.Int64, true
}

// Item is implemented by *Treatment and *Visit.
type Item interface {
	ItemID() int64
	ItemKind() Kind
	Recipient() Recipient
	Marker() Marker
}
