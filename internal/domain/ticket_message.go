package domain

import "time"

// MessageOrigin records which channel delivered a message.
type MessageOrigin string

const (
	OriginWeb          MessageOrigin = "web"
	OriginEmailWebhook MessageOrigin = "email_webhook"
	OriginEmailPoll    MessageOrigin = "email_poll"
)

// UnknownEmailMessageID is stored when an inbound email carries no
// Message-Id header.
const UnknownEmailMessageID = "unknown"

// TicketMessage is one entry in a ticket's conversation. Messages are
// append-only and ordered by CreatedAt; a non-admin message is always
// attributed to the ticket's registered sender.
type TicketMessage struct {
	ID             string
	TicketID       string
	Body           string
	IsAdmin        bool
	SenderName     string
	SenderEmail    string
	AddedVia       MessageOrigin
	EmailMessageID string
	CreatedAt      time.Time
}
