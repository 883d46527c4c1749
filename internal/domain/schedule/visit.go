// internal/domain/schedule/visit.go
package schedule

import "time"

// VisitLeadDays is how many calendar days before the visit the reminder is due.
const VisitLeadDays = 1

// Visit is a single appointment with a doctor.
// Corresponds to the 'visits' table.
type Visit struct {
	ID           int64
	Patient      Recipient
	DoctorName   string
	ClinicName   string
	Location     string
	Notes        string
	VisitAt      time.Time
	Status       VisitStatus
	ReminderSent bool // marker: write-once, false -> true
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (v *Visit) ItemID() int64        { return v.ID }
func (v *Visit) ItemKind() Kind       { return KindVisit }
func (v *Visit) Recipient() Recipient { return v.Patient }

func (v *Visit) Marker() Marker {
	return Marker{Kind: KindVisit, ReminderSent: v.ReminderSent}
}
