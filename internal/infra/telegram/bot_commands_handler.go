// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/aacc1on/medreminder-bolt/internal/app"
	"github.com/aacc1on/medreminder-bolt/internal/domain/patient"
	idb "github.com/aacc1on/medreminder-bolt/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// PatientLinker is implemented by app.PatientService.
type PatientLinker interface {
	Connect(ctx context.Context, chatID int64, email string) (*patient.Patient, error)
	Disconnect(ctx context.Context, chatID int64) (*patient.Patient, error)
	Status(ctx context.Context, chatID int64) (*patient.Patient, error)
}

// Handler is the subset of *telebot.Bot the command registration needs.
type Handler interface {
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
}

func RegisterBotCommands(
	ctx context.Context,
	b Handler,
	patients PatientLinker,
	baseLogger *logrus.Entry,
) {
	h := &patientCommands{ctx: ctx, patients: patients, logger: baseLogger.WithField("handler_group", "patient")}

	b.Handle("/start", h.start)
	b.Handle("/help", h.help)
	b.Handle("/connect", h.connect)
	b.Handle("/status", h.status)
	b.Handle("/disconnect", h.disconnect)
}

type patientCommands struct {
	ctx      context.Context
	patients PatientLinker
	logger   *logrus.Entry
}

func (h *patientCommands) commandLogger(c telebot.Context, command string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"command": command,
		"chat_id": c.Chat().ID,
	})
}

func (h *patientCommands) start(c telebot.Context) error {
	h.commandLogger(c, "/start").Info("Processing /start command")
	return c.Send(msgWelcome)
}

func (h *patientCommands) help(c telebot.Context) error {
	h.commandLogger(c, "/help").Info("Processing /help command")
	return c.Send(msgHelp)
}

func (h *patientCommands) connect(c telebot.Context) error {
	logCtx := h.commandLogger(c, "/connect")
	logCtx.Info("Processing /connect command")

	email := strings.TrimSpace(c.Message().Payload)
	if email == "" {
		return c.Send(msgConnectUsage)
	}

	p, err := h.patients.Connect(h.ctx, c.Chat().ID, email)
	switch {
	case err == nil:
		logCtx.WithField("patient_id", p.ID).Info("Chat connected to patient account")
		return c.Send(connectedMessage(p))
	case errors.Is(err, app.ErrInvalidEmail):
		return c.Send(msgInvalidEmail)
	case errors.Is(err, idb.ErrPatientNotFound):
		logCtx.Info("No patient account for email")
		return c.Send(msgPatientNotFound)
	case errors.Is(err, app.ErrAccountAlreadyLinked):
		logCtx.Warn("Patient account already linked to another chat")
		return c.Send(msgAccountLinked)
	case errors.Is(err, app.ErrChatAlreadyLinked):
		logCtx.Warn("Chat already linked to another patient account")
		return c.Send(msgChatLinked)
	default:
		logCtx.WithError(err).Error("Failed to connect chat")
		return c.Send(msgGenericError)
	}
}

func (h *patientCommands) status(c telebot.Context) error {
	logCtx := h.commandLogger(c, "/status")
	logCtx.Info("Processing /status command")

	p, err := h.patients.Status(h.ctx, c.Chat().ID)
	switch {
	case err == nil:
		return c.Send(statusMessage(p))
	case errors.Is(err, app.ErrChatNotLinked):
		return c.Send(msgNotConnected)
	default:
		logCtx.WithError(err).Error("Failed to get connection status")
		return c.Send(msgGenericError)
	}
}

func (h *patientCommands) disconnect(c telebot.Context) error {
	logCtx := h.commandLogger(c, "/disconnect")
	logCtx.Info("Processing /disconnect command")

	p, err := h.patients.Disconnect(h.ctx, c.Chat().ID)
	switch {
	case err == nil:
		logCtx.WithField("patient_id", p.ID).Info("Chat disconnected from patient account")
		return c.Send(msgDisconnected)
	case errors.Is(err, app.ErrChatNotLinked):
		return c.Send(msgNothingToUnlink)
	default:
		logCtx.WithError(err).Error("Failed to disconnect chat")
		return c.Send(msgGenericError)
	}
}
