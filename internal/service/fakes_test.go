package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-mailroom/internal/domain"
	"github.com/spec-kit/ticket-mailroom/internal/events"
)

type statusWrite struct {
	id         string
	status     domain.TicketStatus
	resolvedAt *time.Time
}

type fakeTicketRepo struct {
	byID         map[string]*domain.Ticket
	statusWrites []statusWrite
	closed       []string
	closeErr     error
	nextID       int
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{byID: make(map[string]*domain.Ticket)}
	for _, ticket := range tickets {
		repo.byID[ticket.ID] = ticket
	}
	return repo
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("id-%d", r.nextID)
	ticket.CreatedAt = time.Now().UTC()
	ticket.UpdatedAt = ticket.CreatedAt
	r.byID[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket, nil
}

func (r *fakeTicketRepo) GetByReference(_ context.Context, reference string) (*domain.Ticket, error) {
	for _, ticket := range r.byID {
		if strings.EqualFold(ticket.Reference, reference) {
			return ticket, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus, resolvedAt *time.Time) error {
	ticket, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	r.statusWrites = append(r.statusWrites, statusWrite{id: id, status: status, resolvedAt: resolvedAt})
	ticket.Status = status
	ticket.ResolvedAt = resolvedAt
	return nil
}

func (r *fakeTicketRepo) CloseCascade(_ context.Context, id string) error {
	if r.closeErr != nil {
		return r.closeErr
	}
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	r.closed = append(r.closed, id)
	delete(r.byID, id)
	return nil
}

type fakeMessageRepo struct {
	appended  []domain.TicketMessage
	list      []domain.TicketMessage
	appendErr error
}

func (r *fakeMessageRepo) Append(_ context.Context, msg *domain.TicketMessage) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	msg.ID = fmt.Sprintf("msg-%d", len(r.appended)+1)
	msg.CreatedAt = time.Now().UTC()
	r.appended = append(r.appended, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, _ string) ([]domain.TicketMessage, error) {
	return r.list, nil
}

type fakeDispatcher struct {
	published []events.Event
}

func (d *fakeDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *fakeDispatcher) typesPublished() []events.EventType {
	var out []events.EventType
	for _, event := range d.published {
		out = append(out, event.Type)
	}
	return out
}

type fakeDedup struct {
	seen map[string]bool
}

func (d *fakeDedup) Seen(_ context.Context, messageID string) bool {
	return d.seen[messageID]
}

func (d *fakeDedup) Record(_ context.Context, messageID string) {
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	d.seen[messageID] = true
}
