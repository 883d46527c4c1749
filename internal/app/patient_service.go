package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/aacc1on/medreminder-bolt/internal/domain/patient"
	idb "github.com/aacc1on/medreminder-bolt/internal/infra/database"
)

// Application-level errors for the chat linking flow.
var (
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrAccountAlreadyLinked = errors.New("patient account is already connected to a Telegram chat")
	ErrChatAlreadyLinked    = errors.New("this chat is already connected to another patient account")
	ErrChatNotLinked        = errors.New("no patient account is connected to this chat")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PatientService links Telegram chats to patient accounts so reminders have somewhere to go.
type PatientService struct {
	patientRepo patient.Repository
}

func NewPatientService(pr patient.Repository) *PatientService {
	return &PatientService{patientRepo: pr}
}

// Connect links chatID to the patient registered with email.
func (s *PatientService) Connect(ctx context.Context, chatID int64, email string) (*patient.Patient, error) {
	email = idb.NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	p, err := s.patientRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, idb.ErrPatientNotFound) {
			return nil, idb.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to look up patient by email: %w", err)
	}
	if p.Linked() {
		if p.TelegramID.Int64 == chatID {
			return p, nil
		}
		return nil, ErrAccountAlreadyLinked
	}

	// One chat receives reminders for one account only.
	other, err := s.patientRepo.GetByTelegramID(ctx, chatID)
	if err == nil && other.ID != p.ID {
		return nil, ErrChatAlreadyLinked
	}
	if err != nil && !errors.Is(err, idb.ErrPatientNotFound) {
		return nil, fmt.Errorf("failed to check existing chat link: %w", err)
	}

	if err := s.patientRepo.SetTelegramID(ctx, p.ID, &chatID); err != nil {
		return nil, fmt.Errorf("failed to link chat to patient: %w", err)
	}
	p.TelegramID.Int64, p.TelegramID.Valid = chatID, true
	return p, nil
}

// Disconnect removes the link for chatID; the patient stops receiving reminders.
func (s *PatientService) Disconnect(ctx context.Context, chatID int64) (*patient.Patient, error) {
	p, err := s.Status(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := s.patientRepo.SetTelegramID(ctx, p.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to unlink chat from patient: %w", err)
	}
	p.TelegramID.Int64, p.TelegramID.Valid = 0, false
	return p, nil
}

// Status returns the patient linked to chatID.
func (s *PatientService) Status(ctx context.Context, chatID int64) (*patient.Patient, error) {
	p, err := s.patientRepo.GetByTelegramID(ctx, chatID)
	if err != nil {
		if errors.Is(err, idb.ErrPatientNotFound) {
			return nil, ErrChatNotLinked
		}
		return nil, fmt.Errorf("failed to get patient by Telegram ID: %w", err)
	}
	return p, nil
}
