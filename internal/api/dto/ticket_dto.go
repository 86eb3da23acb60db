package dto

import "time"

// CreateTicketRequest is the intake form payload.
type CreateTicketRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	TicketID   string     `json:"ticketId"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	LastReply  string     `json:"lastReply"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// ReplyRequest appends a message to a ticket's conversation.
type ReplyRequest struct {
	Message string `json:"message"`
	IsAdmin bool   `json:"isAdmin"`
}

// StatusUpdateRequest changes a ticket's status.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// StatusUpdateResponse distinguishes the destructive close from an
// ordinary status write.
type StatusUpdateResponse struct {
	Success bool   `json:"success"`
	Deleted bool   `json:"deleted"`
	Status  string `json:"status,omitempty"`
}

// MessageResponse is one conversation entry.
type MessageResponse struct {
	ID             string    `json:"id"`
	Message        string    `json:"message"`
	IsAdmin        bool      `json:"isAdmin"`
	SenderName     string    `json:"senderName"`
	SenderEmail    string    `json:"senderEmail"`
	AddedVia       string    `json:"addedVia"`
	EmailMessageID string    `json:"emailMessageId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConversationResponse lists a ticket's messages in ascending order.
type ConversationResponse struct {
	Success  bool              `json:"success"`
	TicketID string            `json:"ticketId"`
	Messages []MessageResponse `json:"messages"`
}

// InboundEmailRequest is the mail provider's webhook payload.
type InboundEmailRequest struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Text    string            `json:"text"`
	HTML    string            `json:"html"`
	Headers map[string]string `json:"headers"`
}

// InboundEmailResponse acknowledges a webhook delivery. Failures are
// reported in-band so the sending server does not retry forever.
type InboundEmailResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	TicketID string `json:"ticketId,omitempty"`
}

// FeedbackRequest is the site feedback payload.
type FeedbackRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// PollResponse reports one poll cycle's outcome.
type PollResponse struct {
	Processed int `json:"processed"`
}
