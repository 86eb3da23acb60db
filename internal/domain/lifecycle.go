package domain

import "fmt"

// adminSelectable lists the statuses an admin may request directly.
// awaiting_response is reached only as a side effect of an admin reply, and
// closed is the cascading-delete transition rather than a stored value.
var adminSelectable = map[TicketStatus]bool{
	TicketStatusOpen:       true,
	TicketStatusInProgress: true,
	TicketStatusResolved:   true,
	TicketStatusClosed:     true,
}

// ParseStatus validates an admin-supplied status value.
func ParseStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(raw)
	if !adminSelectable[status] {
		return "", fmt.Errorf("invalid status %q", raw)
	}
	return status, nil
}

// IsTerminal reports whether a transition to the given status destroys the
// ticket.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed
}

// ReopensOnReply reports whether a verified inbound reply must move the
// ticket back to open. A closed ticket only reaches this check if its
// cascading delete has not completed yet.
func (s TicketStatus) ReopensOnReply() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}
