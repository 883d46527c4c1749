// internal/app/reminder_engine.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownKind = errors.New("unknown schedule kind")
	ErrSendTimeout = errors.New("reminder send timed out")
)

// Notifier delivers a reminder for item to a Telegram chat. Message rendering is up to the
// implementation.
type Notifier interface {
	SendReminder(ctx context.Context, chatID int64, item schedule.Item) error
}

// ReminderEngine evaluates one kind of schedulable item per tick and sends the reminders that
// are due. It keeps no state between ticks: everything it needs is re-read from the store.
type ReminderEngine struct {
	repo        schedule.Repository
	notifier    Notifier
	logger      *logrus.Entry
	sendTimeout time.Duration
}

func NewReminderEngine(
	repo schedule.Repository,
	notifier Notifier,
	logger *logrus.Entry,
	sendTimeout time.Duration,
) *ReminderEngine {
	return &ReminderEngine{
		repo:        repo,
		notifier:    notifier,
		logger:      logger,
		sendTimeout: sendTimeout,
	}
}

// RunTick scans the candidates of kind at now and dispatches every due, unsatisfied reminder.
//
// A failed dispatch is recorded in the summary and does not stop the tick. A store failure
// (listing candidates or saving a marker) or a cancelled ctx aborts the tick; the partial
// summary is returned together with the error.
func (e *ReminderEngine) RunTick(ctx context.Context, kind schedule.Kind, now time.Time) (*TickSummary, error) {
	summary := newTickSummary(kind, now)
	tickLogger := e.logger.WithFields(logrus.Fields{
		"kind":    kind,
		"tick_id": summary.TickID.String(),
	})

	items, err := e.loadCandidates(ctx, kind, now)
	if err != nil {
		err = fmt.Errorf("failed to load %s candidates: %w", kind, err)
		summary.finish(err)
		return summary, err
	}
	summary.Scanned = len(items)
	tickLogger.WithField("candidates", len(items)).Debug("Loaded reminder candidates")

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			err = fmt.Errorf("tick interrupted: %w", err)
			summary.finish(err)
			return summary, err
		}
		if err := e.processItem(ctx, item, now, summary, tickLogger); err != nil {
			summary.finish(err)
			return summary, err
		}
	}

	summary.finish(nil)
	return summary, nil
}

func (e *ReminderEngine) loadCandidates(ctx context.Context, kind schedule.Kind, now time.Time) ([]schedule.Item, error) {
	switch kind {
	case schedule.KindTreatment:
		treatments, err := e.repo.ListActiveTreatments(ctx, now)
		if err != nil {
			return nil, err
		}
		items := make([]schedule.Item, 0, len(treatments))
		for _, t := range treatments {
			items = append(items, t)
		}
		return items, nil
	case schedule.KindVisit:
		visits, err := e.repo.ListVisitsDueTomorrow(ctx, now)
		if err != nil {
			return nil, err
		}
		items := make([]schedule.Item, 0, len(visits))
		for _, v := range visits {
			items = append(items, v)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// processItem returns an error only for store failures; everything else lands in the summary.
func (e *ReminderEngine) processItem(ctx context.Context, item schedule.Item, now time.Time, summary *TickSummary, tickLogger *logrus.Entry) error {
	recipient := item.Recipient()
	itemLogger := tickLogger.WithFields(logrus.Fields{
		"item_id":    item.ItemID(),
		"patient_id": recipient.PatientID,
	})

	chatID, ok := recipient.ChatID()
	if !ok {
		summary.Ineligible++
		itemLogger.Debug("Patient has no linked Telegram chat, skipping")
		return nil
	}

	if t, isTreatment := item.(*schedule.Treatment); isTreatment && len(t.InvalidTimes) > 0 {
		itemLogger.WithField("invalid_times", t.InvalidTimes).Debug("Treatment has malformed clock times that will never match")
	}

	if !schedule.IsDue(item, now) {
		summary.NotDue++
		return nil
	}
	if schedule.AlreadySatisfied(item.Marker(), now) {
		summary.AlreadySatisfied++
		itemLogger.Debug("Reminder already sent for this period, skipping")
		return nil
	}

	if err := e.dispatch(ctx, chatID, item); err != nil {
		summary.addFailure(item, err)
		return nil
	}
	summary.Sent++

	marker := schedule.SatisfiedMarker(item.ItemKind(), now)
	if err := e.repo.UpdateMarker(ctx, item.ItemKind(), item.ItemID(), marker); err != nil {
		itemLogger.WithError(err).Error("Reminder sent but marker not saved; it may be sent again next tick")
		return fmt.Errorf("failed to save marker for %s %d: %w", item.ItemKind(), item.ItemID(), err)
	}
	itemLogger.Info("Reminder sent")
	return nil
}

// dispatch bounds the notifier call by sendTimeout and turns a panic into an error.
func (e *ReminderEngine) dispatch(ctx context.Context, chatID int64, item schedule.Item) error {
	sendCtx, cancel := context.WithTimeout(ctx, e.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic while sending reminder: %v", r)
			}
		}()
		done <- e.notifier.SendReminder(sendCtx, chatID, item)
	}()

	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		if ctx.Err() == nil {
			return fmt.Errorf("%w after %s", ErrSendTimeout, e.sendTimeout)
		}
		return sendCtx.Err()
	}
}
