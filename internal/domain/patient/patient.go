package patient

import (
	"database/sql"
	"time"
)

// Patient is a reminder recipient. Accounts are created by the clinic's web flow; the bot only
// links and unlinks the Telegram chat.
type Patient struct {
	ID         int64
	Name       string
	Email      string
	TelegramID sql.NullInt64 // set by /connect, cleared by /disconnect
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Linked reports whether the patient has a chat to receive reminders in.
func (p *Patient) Linked() bool {
	return p.TelegramID.Valid && p.TelegramID.Int64 != 0
}
