// Package mailer sends transactional email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mailgun/mailgun-go/v4"
)

// Message is a plain-text email
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
}

// Mailer delivers messages and returns the provider's message id
type Mailer interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// ErrNoRecipients is returned when a message has no To addresses
var ErrNoRecipients = errors.New("message has no recipients")

// MailgunConfig holds Mailgun credentials. An empty APIBase uses the Mailgun default.
type MailgunConfig struct {
	APIKey  string
	Domain  string
	APIBase string
}

// MailgunMailer sends through the Mailgun HTTP API
type MailgunMailer struct {
	client mailgun.Mailgun
}

var (
	_ Mailer = (*MailgunMailer)(nil)
	_ Mailer = (*MockMailer)(nil)
)

// NewMailgunMailer creates a Mailgun-backed mailer. Credentials are not checked
// here; missing ones surface as the API's error on Send.
func NewMailgunMailer(cfg MailgunConfig) *MailgunMailer {
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}
	return &MailgunMailer{client: mg}
}

// Send implements Mailer.Send
func (m *MailgunMailer) Send(ctx context.Context, msg *Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}

	message := m.client.NewMessage(msg.From, msg.Subject, msg.Text, msg.To...)

	_, id, err := m.client.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("mailgun send: %w", err)
	}
	return id, nil
}

// MockMailer records messages instead of sending them
type MockMailer struct {
	mu   sync.Mutex
	sent []Message

	// SendErr, when set, is returned by Send
	SendErr error
}

// NewMockMailer creates a MockMailer
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// Send implements Mailer.Send
func (m *MockMailer) Send(ctx context.Context, msg *Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendErr != nil {
		return "", m.SendErr
	}
	m.sent = append(m.sent, *msg)
	return fmt.Sprintf("<mock-%d@localhost>", len(m.sent)), nil
}

// Sent returns the messages accepted so far
func (m *MockMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
