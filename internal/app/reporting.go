package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// TickReporter publishes tick summaries and heartbeats for operators.
type TickReporter interface {
	ReportTick(ctx context.Context, s *TickSummary)
	ReportHeartbeat(ctx context.Context, at time.Time)
}

// LogReporter writes summaries to the structured log.
type LogReporter struct {
	logger *logrus.Entry
}

func NewLogReporter(logger *logrus.Entry) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReportTick(_ context.Context, s *TickSummary) {
	entry := r.logger.WithFields(s.Fields())
	for _, f := range s.Failures {
		entry.WithFields(logrus.Fields{
			"item_id":    f.ItemID,
			"patient_id": f.PatientID,
		}).WithError(f.Err).Warn("Reminder dispatch failed, will retry next tick")
	}
	switch {
	case s.Aborted():
		entry.Error("Reminder tick aborted")
	case s.Sent > 0 || len(s.Failures) > 0:
		entry.Info("Reminder tick finished")
	default:
		entry.Debug("Reminder tick finished, nothing to send")
	}
}

func (r *LogReporter) ReportHeartbeat(_ context.Context, at time.Time) {
	r.logger.WithField("at", at.Format(time.RFC3339)).Info("Scheduler heartbeat")
}

// MultiReporter fans out to every reporter in order.
type MultiReporter []TickReporter

func (m MultiReporter) ReportTick(ctx context.Context, s *TickSummary) {
	for _, r := range m {
		r.ReportTick(ctx, s)
	}
}

func (m MultiReporter) ReportHeartbeat(ctx context.Context, at time.Time) {
	for _, r := range m {
		r.ReportHeartbeat(ctx, at)
	}
}
