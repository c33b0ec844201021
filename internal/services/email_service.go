package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"billing-functions-api/internal/adapters/mailer"
	"billing-functions-api/internal/models"
)

// emailService implements the EmailService interface
type emailService struct {
	mailer mailer.Mailer
}

// NewEmailService creates a new email service instance
func NewEmailService(m mailer.Mailer) EmailService {
	return &emailService{mailer: m}
}

// Send validates the event and hands it to the mailer. Provider errors are returned wrapped.
func (s *emailService) Send(ctx context.Context, event *models.EmailEvent) (*models.EmailResponse, error) {
	if err := models.Validate(event); err != nil {
		return nil, err
	}

	recipients := event.Recipients()
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: to has no addresses", models.ErrValidation)
	}

	id, err := s.mailer.Send(ctx, &mailer.Message{
		From:    event.From,
		To:      recipients,
		Subject: event.Subject,
		Text:    event.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"message_id": id,
		"recipients": len(recipients),
	}).Info("Email sent")

	return &models.EmailResponse{Success: true, Message: models.EmailSentMessage}, nil
}
