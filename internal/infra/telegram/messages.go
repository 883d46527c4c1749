package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/aacc1on/medreminder-bolt/internal/domain/patient"
	"github.com/aacc1on/medreminder-bolt/internal/domain/schedule"
)

const (
	msgWelcome = `🏥 Welcome to MediRemind Bot!

I'll help you remember your medications and appointments.

To connect your account, please use the command:
/connect your_email@example.com

Replace "your_email@example.com" with the email you used to register on MediRemind.`

	msgHelp = `🤖 MediRemind Bot Commands:

/start - Start the bot and see welcome message
/connect <email> - Connect your MediRemind account
/status - Check your connection status
/disconnect - Disconnect your account
/help - Show this help message

📱 What I do:
• Send medication reminders at scheduled times
• Remind you about doctor appointments (1 day before)
• Help you stay on track with your treatment

For support, contact your doctor or visit the MediRemind website.`

	msgConnectUsage      = "Usage: /connect your_email@example.com"
	msgInvalidEmail      = "❌ Please provide a valid email address."
	msgPatientNotFound   = "❌ No patient account found with this email. Please register first on the MediRemind website."
	msgAccountLinked     = "⚠️ This account is already connected to another Telegram account."
	msgChatLinked        = "⚠️ This chat is already connected to another patient account. Use /disconnect first."
	msgNotConnected      = "❌ No account connected. Use /connect your_email@example.com to connect your account."
	msgNothingToUnlink   = "❌ No account is currently connected."
	msgDisconnected      = "✅ Account disconnected successfully. You will no longer receive reminders."
	msgGenericError      = "❌ An error occurred. Please try again later."
	msgAdminOnly         = "⛔ This command is available to the administrator only."
	msgRunRemindersUsage = "Usage: /run_reminders treatments|visits"
)

func connectedMessage(p *patient.Patient) string {
	return fmt.Sprintf(`✅ Successfully connected!

Welcome %s!

I'll now send you reminders for:
💊 Medication times
🏥 Doctor appointments (1 day before)

You can use /status to check your connection anytime.`, p.Name)
}

func statusMessage(p *patient.Patient) string {
	return fmt.Sprintf(`✅ Account Status: Connected
👤 Name: %s
📧 Email: %s

Your account is successfully connected! I'll send you reminders as scheduled by your doctor.`, p.Name, p.Email)
}

// TreatmentMessage renders a medication reminder. The scheduled time is the listed clock time
// that matched now; if none matches (manual resend) the current time is shown.
func TreatmentMessage(t *schedule.Treatment, now time.Time) string {
	scheduled := now.Format("15:04")
	if ct, ok := schedule.MatchedTime(t, now); ok {
		scheduled = ct.String()
	}

	var b strings.Builder
	b.WriteString("💊 Medication Reminder\n\n")
	fmt.Fprintf(&b, "🔔 Time to take: %s\n", t.Name)
	fmt.Fprintf(&b, "💉 Dosage: %s\n", t.Dosage)
	fmt.Fprintf(&b, "⏰ Scheduled time: %s\n", scheduled)
	if t.Instructions != "" {
		fmt.Fprintf(&b, "\n📝 Instructions: %s\n", t.Instructions)
	}
	b.WriteString("\nTake care! 🌟")
	return b.String()
}

// VisitMessage renders an appointment reminder; VisitAt is shown in loc.
func VisitMessage(v *schedule.Visit, loc *time.Location) string {
	at := v.VisitAt.In(loc)

	var b strings.Builder
	b.WriteString("🏥 Appointment Reminder\n\n")
	b.WriteString("📅 You have a doctor visit tomorrow!\n")
	fmt.Fprintf(&b, "👨‍⚕️ Doctor: %s\n", v.DoctorName)
	if v.ClinicName != "" {
		fmt.Fprintf(&b, "🏢 Clinic: %s\n", v.ClinicName)
	}
	fmt.Fprintf(&b, "⏰ Time: %s\n", at.Format("15:04"))
	if v.Location != "" {
		fmt.Fprintf(&b, "📍 Location: %s\n", v.Location)
	}
	fmt.Fprintf(&b, "📅 Date: %s\n", at.Format("Monday, January 2, 2006"))
	if v.Notes != "" {
		fmt.Fprintf(&b, "\n📝 Notes: %s\n", v.Notes)
	}
	b.WriteString("\nDon't forget! 📋")
	return b.String()
}
