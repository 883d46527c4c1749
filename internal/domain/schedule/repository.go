// internal/domain/schedule/repository.go
package schedule

import (
	"context"
	"time"
)

// Repository is the candidate store for the reminder engine plus the authoring operations
// that create and retire items.
type Repository interface {
	// ListActiveTreatments returns active treatments whose window contains now's calendar day,
	// with the patient inlined.
	ListActiveTreatments(ctx context.Context, now time.Time) ([]*Treatment, error)
	// ListVisitsDueTomorrow returns scheduled, not yet reminded visits on the day after now.
	ListVisitsDueTomorrow(ctx context.Context, now time.Time) ([]*Visit, error)
	// UpdateMarker writes the marker of a single item. Writing the same value twice is a no-op.
	UpdateMarker(ctx context.Context, kind Kind, id int64, m Marker) error

	CreateTreatment(ctx context.Context, t *Treatment) error
	GetTreatmentByID(ctx context.Context, id int64) (*Treatment, error)
	DeactivateTreatment(ctx context.Context, id int64) error

	CreateVisit(ctx context.Context, v *Visit) error
	GetVisitByID(ctx context.Context, id int64) (*Visit, error)
	CancelVisit(ctx context.Context, id int64) error
}
