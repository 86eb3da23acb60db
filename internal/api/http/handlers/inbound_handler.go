package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-mailroom/internal/api/dto"
	"github.com/spec-kit/ticket-mailroom/internal/domain"
	"github.com/spec-kit/ticket-mailroom/internal/mailbox"
	"github.com/spec-kit/ticket-mailroom/internal/observability"
	"github.com/spec-kit/ticket-mailroom/internal/service"
	apperrors "github.com/spec-kit/ticket-mailroom/pkg/util"
)

// InboundProcessor correlates one inbound email to a ticket.
type InboundProcessor interface {
	Process(ctx context.Context, in service.InboundEmail, via domain.MessageOrigin) (*service.InboundResult, error)
}

// PollRunner runs one mailbox poll cycle.
type PollRunner interface {
	Poll(ctx context.Context) (int, error)
}

// InboundHandler receives webhook deliveries and poll triggers.
type InboundHandler struct {
	correlator  InboundProcessor
	poller      PollRunner
	metrics     *observability.Metrics
	logger      *zap.Logger
	pollTimeout func() (context.Context, context.CancelFunc)
}

// NewInboundHandler constructs handler.
func NewInboundHandler(correlator InboundProcessor, poller PollRunner, metrics *observability.Metrics, logger *zap.Logger, pollTimeout func() (context.Context, context.CancelFunc)) *InboundHandler {
	return &InboundHandler{
		correlator:  correlator,
		poller:      poller,
		metrics:     metrics,
		logger:      logger,
		pollTimeout: pollTimeout,
	}
}

// Webhook POST /inbound/email. Correlation-level failures are acknowledged
// with success:false and HTTP 200 so the sending mail server does not
// retry indefinitely; only infrastructure failures surface as errors.
func (h *InboundHandler) Webhook(c *fiber.Ctx) error {
	var req dto.InboundEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	in := service.InboundEmail{
		From:      req.From,
		Subject:   req.Subject,
		Text:      req.Text,
		HTML:      req.HTML,
		MessageID: messageIDFromHeaders(req.Headers),
	}
	result, err := h.correlator.Process(c.UserContext(), in, domain.OriginEmailWebhook)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		switch domainErr.Code {
		case "CORRELATION_FAILED", "SENDER_MISMATCH", "EMPTY_REPLY":
			h.metrics.RecordInbound(string(domain.OriginEmailWebhook), domainErr.Code)
			h.logger.Info("inbound webhook rejected",
				zap.String("code", domainErr.Code),
				zap.String("subject", req.Subject),
			)
			return c.JSON(dto.InboundEmailResponse{Success: false, Error: domainErr.Message})
		}
		return err
	}

	h.metrics.RecordInbound(string(domain.OriginEmailWebhook), "accepted")
	return c.JSON(dto.InboundEmailResponse{Success: true, TicketID: result.Reference})
}

// PollNow POST /admin/inbound/poll. Runs one cycle synchronously.
func (h *InboundHandler) PollNow(c *fiber.Ctx) error {
	ctx, cancel := h.pollTimeout()
	defer cancel()

	processed, err := h.poller.Poll(ctx)
	if err != nil {
		if errors.Is(err, mailbox.ErrNotConfigured) {
			return apperrors.NewDomainError("MAILBOX_DISABLED", "mailbox polling not configured", fiber.StatusServiceUnavailable, nil)
		}
		return apperrors.NewInternalError(err)
	}
	h.metrics.RecordPollCycle(processed)
	return c.JSON(dto.PollResponse{Processed: processed})
}

func messageIDFromHeaders(headers map[string]string) string {
	for _, key := range []string{"Message-Id", "Message-ID", "message-id"} {
		if v, ok := headers[key]; ok && v != "" {
			return v
		}
	}
	return ""
}
