package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-mailroom/internal/domain"
)

// TicketMessageRepository manages ticket conversation messages.
type TicketMessageRepository interface {
	Append(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

// Append inserts a message and touches the parent ticket's last_reply and
// updated_at in the same transaction. The foreign key on ticket_id makes
// the insert wait behind an in-flight CloseCascade and fail once the ticket
// row is gone.
func (r *ticketMessageRepository) Append(ctx context.Context, msg *domain.TicketMessage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO ticket_messages (ticket_id, body, is_admin, sender_name, sender_email, added_via, email_message_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		msg.TicketID,
		msg.Body,
		msg.IsAdmin,
		msg.SenderName,
		msg.SenderEmail,
		msg.AddedVia,
		msg.EmailMessageID,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return err
	}

	const touch = `UPDATE tickets SET last_reply=$1, updated_at=NOW() WHERE id=$2`
	if _, err := tx.Exec(ctx, touch, previewOf(msg.Body), msg.TicketID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, body, is_admin, sender_name, sender_email, added_via, email_message_id, created_at
        FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.Body,
			&msg.IsAdmin,
			&msg.SenderName,
			&msg.SenderEmail,
			&msg.AddedVia,
			&msg.EmailMessageID,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func previewOf(body string) string {
	const max = 160
	if len(body) <= max {
		return body
	}
	return body[:max]
}
