package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-mailroom/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByReference(ctx context.Context, reference string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, resolvedAt *time.Time) error
	CloseCascade(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reference, email, name, title, status, last_reply)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Reference,
		ticket.Email,
		ticket.Name,
		ticket.Title,
		ticket.Status,
		ticket.LastReply,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, reference, email, name, title, status, last_reply, created_at, updated_at, resolved_at
        FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByReference(ctx context.Context, reference string) (*domain.Ticket, error) {
	const query = `
        SELECT id, reference, email, name, title, status, last_reply, created_at, updated_at, resolved_at
        FROM tickets WHERE UPPER(reference)=UPPER($1)`
	return r.fetchSingle(ctx, query, reference)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.Reference,
		&ticket.Email,
		&ticket.Name,
		&ticket.Title,
		&ticket.Status,
		&ticket.LastReply,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, resolvedAt *time.Time) error {
	const query = `
        UPDATE tickets SET status=$1, resolved_at=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, resolvedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CloseCascade removes a ticket and its conversation, children strictly
// before parent, in one transaction. The ticket row is locked first so no
// message can be appended once the delete has begun; any failure before the
// parent delete rolls back and leaves the ticket intact.
func (r *ticketRepository) CloseCascade(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin close: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var locked string
	if err := tx.QueryRow(ctx, `SELECT id FROM tickets WHERE id=$1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ticket_messages WHERE ticket_id=$1`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit close: %w", err)
	}
	return nil
}
