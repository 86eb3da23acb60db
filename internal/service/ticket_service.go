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

// TicketService owns ticket intake, admin actions, and the status state
// machine, including the terminal cascading close.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	adminName  string
	adminEmail string
}

// TicketServiceDeps bundles constructor dependencies.
type TicketServiceDeps struct {
	Tickets    repository.TicketRepository
	Messages   repository.TicketMessageRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	AdminName  string
	AdminEmail string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketServiceDeps) *TicketService {
	return &TicketService{
		tickets:    deps.Tickets,
		messages:   deps.Messages,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		adminName:  deps.AdminName,
		adminEmail: deps.AdminEmail,
	}
}

// TicketCreateInput carries intake form fields.
type TicketCreateInput struct {
	Email   string
	Name    string
	Title   string
	Message string
}

// StatusUpdateResult distinguishes the destructive close from an ordinary
// status write.
type StatusUpdateResult struct {
	Status  domain.TicketStatus
	Deleted bool
}

// CreateTicket opens a new ticket with a fresh reference and records the
// requester's first message.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Message) == "" {
		return nil, apperrors.NewValidationError("email, title, message required", nil)
	}

	ticket := &domain.Ticket{
		Reference: mailparse.NewReference(),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Name:      strings.TrimSpace(input.Name),
		Title:     strings.TrimSpace(input.Title),
		Status:    domain.TicketStatusOpen,
		LastReply: input.Message,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	msg := &domain.TicketMessage{
		TicketID:       ticket.ID,
		Body:           input.Message,
		IsAdmin:        false,
		SenderName:     ticket.Name,
		SenderEmail:    ticket.Email,
		AddedVia:       domain.OriginWeb,
		EmailMessageID: domain.UnknownEmailMessageID,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventTicketCreated, ticket.Reference, events.TicketCreatedPayload{
		Email: ticket.Email,
		Name:  ticket.Name,
		Title: ticket.Title,
	})
	return ticket, nil
}

// AddAdminReply appends an admin message and parks the ticket in
// awaiting_response until the requester answers.
func (s *TicketService) AddAdminReply(ctx context.Context, reference, body string) (*domain.TicketMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}
	ticket, err := s.findByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	msg := &domain.TicketMessage{
		TicketID:       ticket.ID,
		Body:           body,
		IsAdmin:        true,
		SenderName:     s.adminName,
		SenderEmail:    s.adminEmail,
		AddedVia:       domain.OriginWeb,
		EmailMessageID: domain.UnknownEmailMessageID,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if ticket.Status != domain.TicketStatusAwaitingResponse {
		if err := s.tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusAwaitingResponse, ticket.ResolvedAt); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	s.publish(ctx, events.EventTicketReplied, ticket.Reference, events.TicketRepliedPayload{
		Email: ticket.Email,
		Name:  ticket.Name,
		Title: ticket.Title,
		Body:  body,
	})
	return msg, nil
}

// AddUserWebReply appends a requester message posted through the web UI.
// No notification is sent; the requester is talking to us.
func (s *TicketService) AddUserWebReply(ctx context.Context, reference, body string) (*domain.TicketMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}
	ticket, err := s.findByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	msg := &domain.TicketMessage{
		TicketID:       ticket.ID,
		Body:           body,
		IsAdmin:        false,
		SenderName:     ticket.Name,
		SenderEmail:    ticket.Email,
		AddedVia:       domain.OriginWeb,
		EmailMessageID: domain.UnknownEmailMessageID,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return msg, nil
}

// UpdateStatus applies an admin status transition. closed cascades the
// delete and reports deleted:true; everything else is a plain write.
func (s *TicketService) UpdateStatus(ctx context.Context, reference, rawStatus string) (*StatusUpdateResult, error) {
	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	ticket, err := s.findByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if status.IsTerminal() {
		if err := s.tickets.CloseCascade(ctx, ticket.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("ticket", map[string]any{"ticketId": reference})
			}
			return nil, apperrors.NewPartialDeleteFailure(err)
		}
		s.logger.Info("ticket closed and deleted", zap.String("reference", ticket.Reference))
		return &StatusUpdateResult{Status: status, Deleted: true}, nil
	}

	var resolvedAt *time.Time
	if status == domain.TicketStatusResolved {
		now := time.Now().UTC()
		resolvedAt = &now
	}
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, status, resolvedAt); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventTicketStatusChanged, ticket.Reference, events.StatusChangedPayload{
		Email:     ticket.Email,
		Name:      ticket.Name,
		Title:     ticket.Title,
		OldStatus: ticket.Status,
		NewStatus: status,
	})
	return &StatusUpdateResult{Status: status, Deleted: false}, nil
}

// Conversation returns a ticket's messages in chronological order.
func (s *TicketService) Conversation(ctx context.Context, reference string) ([]domain.TicketMessage, error) {
	ticket, err := s.findByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return msgs, nil
}

// SubmitFeedback publishes site feedback for the notification pair. Nothing
// is persisted.
func (s *TicketService) SubmitFeedback(ctx context.Context, email, name, message string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(message) == "" {
		return apperrors.NewValidationError("email, message required", nil)
	}
	s.publish(ctx, events.EventFeedbackReceived, "", events.FeedbackPayload{
		Email:   strings.TrimSpace(email),
		Name:    strings.TrimSpace(name),
		Message: message,
	})
	return nil
}

func (s *TicketService) findByReference(ctx context.Context, reference string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticketId": reference})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, reference string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Reference: reference,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
