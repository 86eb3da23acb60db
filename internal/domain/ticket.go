package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen             TicketStatus = "open"
	TicketStatusInProgress       TicketStatus = "in_progress"
	TicketStatusAwaitingResponse TicketStatus = "awaiting_response"
	TicketStatusResolved         TicketStatus = "resolved"
	// TicketStatusClosed is terminal: it is never stored, because closing a
	// ticket deletes the ticket and its conversation.
	TicketStatusClosed TicketStatus = "closed"
)

// Ticket is the aggregate for support requests. Reference is the
// human-correlatable identifier embedded in outbound email subjects; it is
// the only channel by which an inbound reply finds its way back here.
type Ticket struct {
	ID         string
	Reference  string
	Email      string
	Name       string
	Title      string
	Status     TicketStatus
	LastReply  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}
