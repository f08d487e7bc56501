// Package mailer delivers outcome emails through Mailgun.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/domain/model"
)

// MailgunOptions configures a MailgunSender.
type MailgunOptions struct {
	Config     config.EmailConfig
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// MailgunSender sends plain-text email through the Mailgun API.
type MailgunSender struct {
	client *mailgun.MailgunImpl
	from   string
	logger *slog.Logger
}

// NewMailgunSender constructs a MailgunSender. Domain and API key are required.
func NewMailgunSender(opts MailgunOptions) (*MailgunSender, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if cfg.Domain == "" || cfg.APIKey == "" {
		return nil, errors.New("MAILGUN_DOMAIN and MAILGUN_API_KEY are required")
	}
	if cfg.From == "" {
		return nil, errors.New("EMAIL_FROM is required")
	}

	client := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		client.SetAPIBase(cfg.APIBase)
	}
	if opts.HTTPClient != nil {
		client.SetClient(opts.HTTPClient)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MailgunSender{
		client: client,
		from:   cfg.From,
		logger: logger.With("component", "mailgun_sender"),
	}, nil
}

// Send delivers msg.
func (s *MailgunSender) Send(ctx context.Context, msg model.EmailMessage) error {
	if msg.To == "" {
		return errors.New("recipient is required")
	}
	m := s.client.NewMessage(s.from, msg.Subject, msg.Body, msg.To)

	_, id, err := s.client.Send(ctx, m)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	s.logger.DebugContext(ctx, "email accepted by mailgun", "to", msg.To, "message_id", id)
	return nil
}
