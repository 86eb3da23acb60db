package events

import (
	"time"

	"github.com/spec-kit/ticket-mailroom/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketReplied       EventType = "ticket_replied"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventInboundReply        EventType = "inbound_reply_received"
	EventFeedbackReceived    EventType = "feedback_received"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Reference string    `json:"reference"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload accompanies EventTicketCreated.
type TicketCreatedPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// TicketRepliedPayload accompanies EventTicketReplied.
type TicketRepliedPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// StatusChangedPayload accompanies EventTicketStatusChanged.
type StatusChangedPayload struct {
	Email     string              `json:"email"`
	Name      string              `json:"name"`
	Title     string              `json:"title"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// InboundReplyPayload accompanies EventInboundReply.
type InboundReplyPayload struct {
	Channel  domain.MessageOrigin `json:"channel"`
	Reopened bool                 `json:"reopened"`
}

// FeedbackPayload accompanies EventFeedbackReceived.
type FeedbackPayload struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}
