// internal/app/summary.go
package app

import (
	"fmt"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DispatchFailure records one item whose reminder could not be delivered in a tick.
type DispatchFailure struct {
	Kind      schedule.Kind
	ItemID    int64
	PatientID int64
	Err       error
}

func (f DispatchFailure) String() string {
	return fmt.Sprintf("%s #%d (patient %d): %v", f.Kind, f.ItemID, f.PatientID, f.Err)
}

// TickSummary is the operator-facing outcome of one tick.
type TickSummary struct {
	TickID           uuid.UUID
	Kind             schedule.Kind
	StartedAt        time.Time // the tick's logical "now"
	Duration         time.Duration
	Scanned          int
	Ineligible       int // no linked chat
	NotDue           int
	AlreadySatisfied int
	Sent             int
	Failures         []DispatchFailure
	Err              error // set when the tick was aborted by a store failure or cancellation

	wallStart time.Time
}

func newTickSummary(kind schedule.Kind, now time.Time) *TickSummary {
	return &TickSummary{
		TickID:    uuid.New(),
		Kind:      kind,
		StartedAt: now,
		wallStart: time.Now(),
	}
}

func (s *TickSummary) addFailure(item schedule.Item, err error) {
	s.Failures = append(s.Failures, DispatchFailure{
		Kind:      item.ItemKind(),
		ItemID:    item.ItemID(),
		PatientID: item.Recipient().PatientID,
		Err:       err,
	})
}

func (s *TickSummary) finish(err error) {
	s.Err = err
	s.Duration = time.Since(s.wallStart)
}

// Aborted reports whether the tick stopped before evaluating every candidate.
func (s *TickSummary) Aborted() bool { return s.Err != nil }

// Fields flattens the summary for structured logging.
func (s *TickSummary) Fields() logrus.Fields {
	f := logrus.Fields{
		"tick_id":           s.TickID.String(),
		"kind":              s.Kind,
		"tick_at":           s.StartedAt.Format(time.RFC3339),
		"duration_ms":       s.Duration.Milliseconds(),
		"scanned":           s.Scanned,
		"ineligible":        s.Ineligible,
		"not_due":           s.NotDue,
		"already_satisfied": s.AlreadySatisfied,
		"sent":              s.Sent,
		"failed":            len(s.Failures),
	}
	if s.Err != nil {
		f["aborted"] = s.Err.Error()
	}
	return f
}
