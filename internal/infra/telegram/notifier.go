package telegram

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"
	domaintg "github.com/aacc1on/medreminder-bolt/internal/domain/telegram"

	"golang.org/x/time/rate"
)

var ErrUnsupportedItem = errors.New("no message template for item")

// ReminderNotifier renders reminders and sends them through a Client, throttled so a large
// tick stays under Telegram's bot rate limit.
type ReminderNotifier struct {
	client  domaintg.Client
	limiter *rate.Limiter
	loc     *time.Location
	now     func() time.Time
}

func NewReminderNotifier(client domaintg.Client, ratePerSec float64, loc *time.Location) *ReminderNotifier {
	if loc == nil {
		loc = time.Local
	}
	burst := int(math.Ceil(ratePerSec))
	if burst < 1 {
		burst = 1
	}
	return &ReminderNotifier{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		loc:     loc,
		now:     time.Now,
	}
}

// SendReminder implements app.Notifier.
func (n *ReminderNotifier) SendReminder(ctx context.Context, chatID int64, item schedule.Item) error {
	text, err := n.render(item)
	if err != nil {
		return err
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.client.SendMessage(chatID, text, nil); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", chatID, err)
	}
	return nil
}

func (n *ReminderNotifier) render(item schedule.Item) (string, error) {
	switch v := item.(type) {
	case *schedule.Treatment:
		return TreatmentMessage(v, n.now().In(n.loc)), nil
	case *schedule.Visit:
		return VisitMessage(v, n.loc), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedItem, item)
	}
}
