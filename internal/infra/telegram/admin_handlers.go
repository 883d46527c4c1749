package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/app"
	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// ReminderOperator is implemented by scheduler.ReminderScheduler.
type ReminderOperator interface {
	RunNow(ctx context.Context, kind schedule.Kind) (*app.TickSummary, error)
	LastSummary(kind schedule.Kind) (*app.TickSummary, bool)
}

var kindArgs = map[string]schedule.Kind{
	"treatments": schedule.KindTreatment,
	"visits":     schedule.KindVisit,
}

// RegisterAdminHandlers registers the operator commands. They answer only adminTelegramID.
func RegisterAdminHandlers(ctx context.Context, b Handler, operator ReminderOperator, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/reminder_status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/reminder_status",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgAdminOnly)
		}

		var response strings.Builder
		for _, kind := range []schedule.Kind{schedule.KindTreatment, schedule.KindVisit} {
			summary, ok := operator.LastSummary(kind)
			if !ok {
				fmt.Fprintf(&response, "%s: no tick yet\n\n", kind)
				continue
			}
			response.WriteString(FormatSummary(summary))
			response.WriteString("\n\n")
		}
		return c.Send(strings.TrimSpace(response.String()))
	})

	b.Handle("/run_reminders", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run_reminders",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgAdminOnly)
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send(msgRunRemindersUsage)
		}
		kind, ok := kindArgs[strings.ToLower(args[0])]
		if !ok {
			return c.Send(msgRunRemindersUsage)
		}
		handlerLogger = handlerLogger.WithField("kind", kind)

		summary, err := operator.RunNow(ctx, kind)
		if summary == nil {
			handlerLogger.WithError(err).Error("Manual reminder tick did not run")
			return c.Send(fmt.Sprintf("Tick did not run: %v", err))
		}
		if err != nil {
			handlerLogger.WithError(err).Warn("Manual reminder tick aborted")
		} else {
			handlerLogger.Info("Manual reminder tick finished")
		}
		return c.Send(FormatSummary(summary))
	})
}

// FormatSummary renders a tick summary for the operator chat.
func FormatSummary(s *app.TickSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s tick at %s (%s)\n", s.Kind, s.StartedAt.Format("2006-01-02 15:04"), s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "scanned %d, sent %d, failed %d\n", s.Scanned, s.Sent, len(s.Failures))
	fmt.Fprintf(&b, "not due %d, already sent %d, no chat %d", s.NotDue, s.AlreadySatisfied, s.Ineligible)
	for _, f := range s.Failures {
		fmt.Fprintf(&b, "\n- %s", f.String())
	}
	if s.Aborted() {
		fmt.Fprintf(&b, "\naborted: %v", s.Err)
	}
	return b.String()
}
