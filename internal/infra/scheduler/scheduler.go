package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/app"
	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const reportTimeout = 5 * time.Second

var ErrUnknownCadence = errors.New("no cadence registered for kind")

// TickRunner is implemented by app.ReminderEngine.
type TickRunner interface {
	RunTick(ctx context.Context, kind schedule.Kind, now time.Time) (*app.TickSummary, error)
}

// Specs holds the cron expressions (standard 5-field syntax) for each cadence.
type Specs struct {
	Treatments string // e.g. "*/5 * * * *"
	Visits     string // e.g. "0 9 * * *"
	Heartbeat  string // e.g. "0 * * * *"
}

type ReminderScheduler struct {
	cronEngine  *cron.Cron
	runner      TickRunner
	reporter    app.TickReporter
	logger      *logrus.Entry
	loc         *time.Location
	specs       Specs
	tickTimeout time.Duration
	now         func() time.Time

	// One slot per kind: a tick waits for the previous tick of the same kind to finish.
	guards map[schedule.Kind]chan struct{}

	mu   sync.RWMutex
	last map[schedule.Kind]*app.TickSummary
}

func NewReminderScheduler(
	runner TickRunner,
	reporter app.TickReporter,
	logger *logrus.Entry,
	loc *time.Location,
	specs Specs,
	tickTimeout time.Duration,
) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger))),
		),
		runner:      runner,
		reporter:    reporter,
		logger:      logger,
		loc:         loc,
		specs:       specs,
		tickTimeout: tickTimeout,
		now:         time.Now,
		guards: map[schedule.Kind]chan struct{}{
			schedule.KindTreatment: make(chan struct{}, 1),
			schedule.KindVisit:     make(chan struct{}, 1),
		},
		last: make(map[schedule.Kind]*app.TickSummary),
	}
}

// Start registers every cadence and starts the cron engine. A malformed spec is returned
// as an error and nothing is started.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"treatments", s.specs.Treatments, func() { s.runScheduled(schedule.KindTreatment) }},
		{"visits", s.specs.Visits, func() { s.runScheduled(schedule.KindVisit) }},
		{"heartbeat", s.specs.Heartbeat, s.heartbeat},
	}
	for _, job := range jobs {
		if _, err := s.cronEngine.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("could not add %s cron job (%q): %w", job.name, job.spec, err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"treatments": s.specs.Treatments,
		"visits":     s.specs.Visits,
		"heartbeat":  s.specs.Heartbeat,
		"timezone":   s.loc.String(),
	}).Info("Reminder scheduler started with jobs.")
	return nil
}

// Stop stops firing new ticks and waits for running ones.
func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}

// RunNow runs a tick of kind immediately, waiting for a running tick of the same kind first.
func (s *ReminderScheduler) RunNow(ctx context.Context, kind schedule.Kind) (*app.TickSummary, error) {
	return s.runTick(ctx, kind)
}

// LastSummary returns the most recent completed tick of kind, if any.
func (s *ReminderScheduler) LastSummary(kind schedule.Kind) (*app.TickSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.last[kind]
	return summary, ok
}

func (s *ReminderScheduler) runScheduled(kind schedule.Kind) {
	s.logger.WithField("kind", kind).Debug("Cron job triggered for reminder tick.")
	if _, err := s.runTick(context.Background(), kind); err != nil {
		s.logger.WithField("kind", kind).WithError(err).Error("Error during reminder tick")
	}
}

func (s *ReminderScheduler) runTick(ctx context.Context, kind schedule.Kind) (*app.TickSummary, error) {
	guard, ok := s.guards[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCadence, kind)
	}
	select {
	case guard <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for running %s tick: %w", kind, ctx.Err())
	}
	defer func() { <-guard }()

	tickCtx, cancel := context.WithTimeout(ctx, s.tickTimeout)
	defer cancel()

	summary, err := s.runner.RunTick(tickCtx, kind, s.now().In(s.loc))
	if summary != nil {
		reportCtx, reportCancel := context.WithTimeout(context.Background(), reportTimeout)
		s.reporter.ReportTick(reportCtx, summary)
		reportCancel()

		s.mu.Lock()
		s.last[kind] = summary
		s.mu.Unlock()
	}
	return summary, err
}

func (s *ReminderScheduler) heartbeat() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	s.reporter.ReportHeartbeat(ctx, s.now().In(s.loc))
}
