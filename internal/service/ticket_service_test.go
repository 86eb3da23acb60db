package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/domain"
	"github.com/spec-kit/ticket-mailroom/internal/events"
	apperrors "github.com/spec-kit/ticket-mailroom/pkg/util"
)

func newTicketService(tickets *fakeTicketRepo, messages *fakeMessageRepo) (*TicketService, *fakeDispatcher) {
	dispatcher := &fakeDispatcher{}
	svc := NewTicketService(TicketServiceDeps{
		Tickets:    tickets,
		Messages:   messages,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		AdminName:  "Support Team",
		AdminEmail: "support@example.com",
	})
	return svc, dispatcher
}

func openTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:        "t-1",
		Reference: "TT-ABC123-XYZ789",
		Email:     "jane@example.com",
		Name:      "Jane Doe",
		Title:     "Broken export",
		Status:    domain.TicketStatusOpen,
	}
}

func TestCreateTicketAssignsReferenceAndFirstMessage(t *testing.T) {
	tickets := newFakeTicketRepo()
	messages := &fakeMessageRepo{}
	svc, dispatcher := newTicketService(tickets, messages)

	ticket, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Email:   "Jane@Example.com",
		Name:    "Jane Doe",
		Title:   "Broken export",
		Message: "The export button does nothing.",
	})
	require.NoError(t, err)
	require.Regexp(t, `^TT-[A-Z0-9]{6}-[A-Z0-9]{6}$`, ticket.Reference)
	require.Equal(t, "jane@example.com", ticket.Email)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)

	require.Len(t, messages.appended, 1)
	require.False(t, messages.appended[0].IsAdmin)
	require.Equal(t, domain.OriginWeb, messages.appended[0].AddedVia)

	require.Equal(t, []events.EventType{events.EventTicketCreated}, dispatcher.typesPublished())
}

func TestCreateTicketValidation(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), &fakeMessageRepo{})
	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{Email: "jane@example.com"})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestAdminReplySetsAwaitingResponse(t *testing.T) {
	tickets := newFakeTicketRepo(openTicket())
	messages := &fakeMessageRepo{}
	svc, dispatcher := newTicketService(tickets, messages)

	msg, err := svc.AddAdminReply(context.Background(), "TT-ABC123-XYZ789", "We are looking into it.")
	require.NoError(t, err)
	require.True(t, msg.IsAdmin)
	require.Equal(t, "Support Team", msg.SenderName)

	require.Len(t, tickets.statusWrites, 1)
	require.Equal(t, domain.TicketStatusAwaitingResponse, tickets.statusWrites[0].status)
	require.Equal(t, []events.EventType{events.EventTicketReplied}, dispatcher.typesPublished())
}

func TestAdminReplyUnknownTicket(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(), &fakeMessageRepo{})
	_, err := svc.AddAdminReply(context.Background(), "TT-ABC123-XYZ789", "hello?")
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestUserWebReplyAttributedToRequester(t *testing.T) {
	tickets := newFakeTicketRepo(openTicket())
	messages := &fakeMessageRepo{}
	svc, _ := newTicketService(tickets, messages)

	msg, err := svc.AddUserWebReply(context.Background(), "TT-ABC123-XYZ789", "More details attached.")
	require.NoError(t, err)
	require.False(t, msg.IsAdmin)
	require.Equal(t, "jane@example.com", msg.SenderEmail)
	require.Empty(t, tickets.statusWrites)
}

func TestUpdateStatusResolvedStampsResolvedAt(t *testing.T) {
	tickets := newFakeTicketRepo(openTicket())
	svc, dispatcher := newTicketService(tickets, &fakeMessageRepo{})

	result, err := svc.UpdateStatus(context.Background(), "TT-ABC123-XYZ789", "resolved")
	require.NoError(t, err)
	require.False(t, result.Deleted)
	require.Equal(t, domain.TicketStatusResolved, result.Status)

	require.Len(t, tickets.statusWrites, 1)
	require.NotNil(t, tickets.statusWrites[0].resolvedAt)
	require.Equal(t, []events.EventType{events.EventTicketStatusChanged}, dispatcher.typesPublished())
}

func TestUpdateStatusClosedCascadesDelete(t *testing.T) {
	tickets := newFakeTicketRepo(openTicket())
	svc, _ := newTicketService(tickets, &fakeMessageRepo{})

	result, err := svc.UpdateStatus(context.Background(), "TT-ABC123-XYZ789", "closed")
	require.NoError(t, err)
	require.True(t, result.Deleted)
	require.Equal(t, []string{"t-1"}, tickets.closed)
	require.Empty(t, tickets.statusWrites)

	// the ticket is gone afterwards
	_, err = svc.Conversation(context.Background(), "TT-ABC123-XYZ789")
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestUpdateStatusCloseFailureKeepsTicket(t *testing.T) {
	tickets := newFakeTicketRepo(openTicket())
	tickets.closeErr = context.DeadlineExceeded
	svc, _ := newTicketService(tickets, &fakeMessageRepo{})

	_, err := svc.UpdateStatus(context.Background(), "TT-ABC123-XYZ789", "closed")
	require.True(t, apperrors.IsCode(err, "PARTIAL_DELETE_FAILURE"))

	// still resolvable
	_, err = svc.Conversation(context.Background(), "TT-ABC123-XYZ789")
	require.NoError(t, err)
}

func TestUpdateStatusRejectsInvalidValues(t *testing.T) {
	svc, _ := newTicketService(newFakeTicketRepo(openTicket()), &fakeMessageRepo{})
	for _, raw := range []string{"", "deleted", "awaiting_response", "CLOSED"} {
		_, err := svc.UpdateStatus(context.Background(), "TT-ABC123-XYZ789", raw)
		require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "status %q", raw)
	}
}

func TestConversationOrderPassthrough(t *testing.T) {
	tickets := newFakeTicketRepo(openTicket())
	messages := &fakeMessageRepo{list: []domain.TicketMessage{
		{ID: "msg-1", Body: "first"},
		{ID: "msg-2", Body: "second"},
	}}
	svc, _ := newTicketService(tickets, messages)

	msgs, err := svc.Conversation(context.Background(), "tt-abc123-xyz789")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Body)
	require.Equal(t, "second", msgs[1].Body)
}

func TestSubmitFeedbackPublishesEvent(t *testing.T) {
	svc, dispatcher := newTicketService(newFakeTicketRepo(), &fakeMessageRepo{})
	require.NoError(t, svc.SubmitFeedback(context.Background(), "jane@example.com", "Jane", "Love the new editor."))
	require.Equal(t, []events.EventType{events.EventFeedbackReceived}, dispatcher.typesPublished())

	err := svc.SubmitFeedback(context.Background(), "", "", "")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
