package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/config"
	"github.com/spec-kit/ticket-mailroom/internal/domain"
	"github.com/spec-kit/ticket-mailroom/internal/events"
	"github.com/spec-kit/ticket-mailroom/internal/mailer"
	"github.com/spec-kit/ticket-mailroom/internal/observability"
)

// NotificationService turns domain events into outbound email. Delivery is
// best-effort: a failed send is logged and never rolls back the mutation
// that triggered it.
type NotificationService struct {
	dispatcher events.Dispatcher
	mail       mailer.Mailer
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.MailerConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mail mailer.Mailer, logger *zap.Logger, metrics *observability.Metrics, cfg config.MailerConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mail:       mail,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketReplied, n.handleTicketReplied)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventFeedbackReceived, n.handleFeedback)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	n.send(ctx, mailer.Message{
		To:      payload.Email,
		Subject: confirmationSubject(event.Reference),
		HTML:    ticketConfirmationHTML(payload.Name, payload.Title, event.Reference),
		ReplyTo: n.cfg.SupportInbox,
	})
	return nil
}

func (n *NotificationService) handleTicketReplied(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRepliedPayload)
	if !ok {
		return nil
	}
	n.send(ctx, mailer.Message{
		To:      payload.Email,
		Subject: replySubject(event.Reference),
		HTML:    adminReplyHTML(payload.Name, payload.Title, payload.Body, event.Reference),
		ReplyTo: n.cfg.SupportInbox,
	})
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return nil
	}
	// only the resolution is announced; intermediate moves are internal
	if payload.NewStatus != domain.TicketStatusResolved {
		return nil
	}
	n.send(ctx, mailer.Message{
		To:      payload.Email,
		Subject: resolutionSubject(event.Reference),
		HTML:    resolutionHTML(payload.Name, payload.Title, event.Reference),
		ReplyTo: n.cfg.SupportInbox,
	})
	return nil
}

func (n *NotificationService) handleFeedback(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FeedbackPayload)
	if !ok {
		return nil
	}
	n.send(ctx, mailer.Message{
		To:      payload.Email,
		Subject: "Thanks for your feedback",
		HTML:    feedbackConfirmationHTML(payload.Name),
	})
	n.send(ctx, mailer.Message{
		To:      n.cfg.SupportInbox,
		Subject: "New site feedback",
		HTML:    feedbackNotificationHTML(payload.Name, payload.Email, payload.Message),
		ReplyTo: payload.Email,
	})
	return nil
}

func (n *NotificationService) send(ctx context.Context, msg mailer.Message) {
	result, err := n.mail.Send(ctx, msg)
	if err != nil {
		n.logger.Error("notification delivery failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return
	}
	n.metrics.RecordDelivery(result.Simulated)
	n.logger.Info("notification sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Bool("simulated", result.Simulated),
	)
}
