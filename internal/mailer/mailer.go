package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/config"
)

// Message is one outbound transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
	ReplyTo string
}

// DeliveryResult reports the outcome of a send. Simulated is set when no
// provider credential is configured, so a no-op send is never mistaken for
// a real one.
type DeliveryResult struct {
	Simulated  bool
	ProviderID string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) (DeliveryResult, error)
}

// New selects the provider-backed mailer, or the simulated one when no API
// key is configured.
func New(cfg config.MailerConfig, logger *zap.Logger) Mailer {
	if cfg.Simulated() {
		logger.Warn("MAILER_API_KEY not provided; outbound email runs in simulation mode")
		return &simulatedMailer{cfg: cfg, logger: logger}
	}
	return &providerMailer{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type simulatedMailer struct {
	cfg    config.MailerConfig
	logger *zap.Logger
}

func (m *simulatedMailer) Send(_ context.Context, msg Message) (DeliveryResult, error) {
	m.logger.Info("simulated email send",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return DeliveryResult{Simulated: true}, nil
}

// providerMailer posts messages to an HTTP transactional-email API.
type providerMailer struct {
	cfg    config.MailerConfig
	logger *zap.Logger
	client *http.Client
}

type providerRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type providerResponse struct {
	ID string `json:"id"`
}

func (m *providerMailer) Send(ctx context.Context, msg Message) (DeliveryResult, error) {
	payload := providerRequest{
		From:    fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress),
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return DeliveryResult{}, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(detail))
	}

	var parsed providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// delivery succeeded; the provider id is informational
		m.logger.Debug("unparseable provider response", zap.Error(err))
	}
	return DeliveryResult{ProviderID: parsed.ID}, nil
}
