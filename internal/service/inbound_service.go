package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/domain"
	"github.com/spec-kit/ticket-mailroom/internal/events"
	"github.com/spec-kit/ticket-mailroom/internal/mailparse"
	"github.com/spec-kit/ticket-mailroom/internal/repository"
	apperrors "github.com/spec-kit/ticket-mailroom/pkg/util"
)

// InboundEmail is one raw inbound message, channel-independent.
type InboundEmail struct {
	From      string
	Subject   string
	Text      string
	HTML      string
	MessageID string
}

// InboundResult reports what a processed inbound email did.
type InboundResult struct {
	Reference string
	Reopened  bool
	Duplicate bool
}

// InboundService correlates inbound email replies to tickets: extract the
// reference from the subject, resolve the ticket, verify the sender,
// sanitize the body, append the message, and reopen resolved tickets.
// Steps run in order and any failure before the append leaves no trace.
type InboundService struct {
	tickets  repository.TicketRepository
	messages repository.TicketMessageRepository

	dispatcher events.Dispatcher
	dedup      DedupIndex
	logger     *zap.Logger
}

// InboundServiceDeps bundles constructor dependencies. Dedup may be nil,
// in which case a replayed email appends a second message.
type InboundServiceDeps struct {
	Tickets    repository.TicketRepository
	Messages   repository.TicketMessageRepository
	Dispatcher events.Dispatcher
	Dedup      DedupIndex
	Logger     *zap.Logger
}

// NewInboundService constructs the correlator.
func NewInboundService(deps InboundServiceDeps) *InboundService {
	return &InboundService{
		tickets:    deps.Tickets,
		messages:   deps.Messages,
		dispatcher: deps.Dispatcher,
		dedup:      deps.Dedup,
		logger:     deps.Logger,
	}
}

// Process runs the correlation pipeline for one inbound email.
func (s *InboundService) Process(ctx context.Context, in InboundEmail, via domain.MessageOrigin) (*InboundResult, error) {
	reference, err := mailparse.ExtractReference(in.Subject)
	if err != nil {
		return nil, apperrors.NewCorrelationFailed("no ticket reference in subject")
	}

	ticket, err := s.tickets.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewCorrelationFailed("ticket not found")
		}
		return nil, apperrors.NewInternalError(err)
	}

	from := mailparse.NormalizeAddress(in.From)
	registered := strings.ToLower(strings.TrimSpace(ticket.Email))
	if from != registered {
		s.logger.Warn("inbound sender mismatch",
			zap.String("reference", ticket.Reference),
			zap.String("from", from),
			zap.String("registered", registered),
		)
		return nil, apperrors.NewSenderMismatch(from, registered)
	}

	body := in.Text
	if strings.TrimSpace(body) == "" {
		body = in.HTML
	}
	cleaned, err := mailparse.CleanReply(body)
	if err != nil {
		return nil, apperrors.NewEmptyReply()
	}

	// webhooks deliver the Message-Id header verbatim while the poller gets
	// the parsed form; strip the angle brackets so both channels agree
	messageID := strings.Trim(strings.TrimSpace(in.MessageID), "<>")
	if messageID == "" {
		messageID = domain.UnknownEmailMessageID
	}
	if s.dedup != nil && messageID != domain.UnknownEmailMessageID && s.dedup.Seen(ctx, messageID) {
		s.logger.Info("duplicate inbound email skipped",
			zap.String("reference", ticket.Reference),
			zap.String("email_message_id", messageID),
		)
		return &InboundResult{Reference: ticket.Reference, Duplicate: true}, nil
	}

	msg := &domain.TicketMessage{
		TicketID:       ticket.ID,
		Body:           cleaned,
		IsAdmin:        false,
		SenderName:     ticket.Name,
		SenderEmail:    ticket.Email,
		AddedVia:       via,
		EmailMessageID: messageID,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	// recorded only once the message is durable; a failed append leaves the
	// id unmarked so the next cycle's retry is not skipped
	if s.dedup != nil && messageID != domain.UnknownEmailMessageID {
		s.dedup.Record(ctx, messageID)
	}

	reopened := false
	if ticket.Status.ReopensOnReply() {
		if err := s.tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusOpen, nil); err != nil {
			// the message is already durable; report the reopen failure
			return nil, apperrors.NewInternalError(err)
		}
		reopened = true
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventInboundReply,
			Reference: ticket.Reference,
			Timestamp: time.Now().UTC(),
			Payload:   events.InboundReplyPayload{Channel: via, Reopened: reopened},
		})
	}

	return &InboundResult{Reference: ticket.Reference, Reopened: reopened}, nil
}
