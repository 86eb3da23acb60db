package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-mailroom/internal/api/dto"
	"github.com/spec-kit/ticket-mailroom/internal/domain"
	"github.com/spec-kit/ticket-mailroom/internal/service"
	apperrors "github.com/spec-kit/ticket-mailroom/pkg/util"
)

// TicketsHandler manages ticket intake, admin actions, and conversation
// reads.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Email:   req.Email,
		Name:    req.Name,
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": ticketResponse(ticket)})
}

// Reply POST /admin/tickets/:ticketId/reply.
func (h *TicketsHandler) Reply(c *fiber.Ctx) error {
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reference := c.Params("ticketId")
	var err error
	var msg *domain.TicketMessage
	if req.IsAdmin {
		msg, err = h.service.AddAdminReply(c.UserContext(), reference, req.Message)
	} else {
		msg, err = h.service.AddUserWebReply(c.UserContext(), reference, req.Message)
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": messageResponse(msg)})
}

// UpdateStatus POST /admin/tickets/:ticketId/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.UpdateStatus(c.UserContext(), c.Params("ticketId"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.StatusUpdateResponse{
		Success: true,
		Deleted: result.Deleted,
		Status:  string(result.Status),
	})
}

// GetConversation GET /tickets/:ticketId/messages (also mounted with a
// ticketId query param for the legacy admin UI).
func (h *TicketsHandler) GetConversation(c *fiber.Ctx) error {
	reference := c.Params("ticketId")
	if reference == "" {
		reference = c.Query("ticketId")
	}
	if reference == "" {
		return apperrors.NewValidationError("ticketId required", nil)
	}
	msgs, err := h.service.Conversation(c.UserContext(), reference)
	if err != nil {
		return err
	}
	resp := dto.ConversationResponse{
		Success:  true,
		TicketID: reference,
		Messages: make([]dto.MessageResponse, 0, len(msgs)),
	}
	for i := range msgs {
		resp.Messages = append(resp.Messages, messageResponse(&msgs[i]))
	}
	return c.JSON(resp)
}

// SubmitFeedback POST /feedback.
func (h *TicketsHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.SubmitFeedback(c.UserContext(), req.Email, req.Name, req.Message); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		TicketID:   ticket.Reference,
		Email:      ticket.Email,
		Name:       ticket.Name,
		Title:      ticket.Title,
		Status:     string(ticket.Status),
		LastReply:  ticket.LastReply,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
		ResolvedAt: ticket.ResolvedAt,
	}
}

func messageResponse(msg *domain.TicketMessage) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             msg.ID,
		Message:        msg.Body,
		IsAdmin:        msg.IsAdmin,
		SenderName:     msg.SenderName,
		SenderEmail:    msg.SenderEmail,
		AddedVia:       string(msg.AddedVia),
		EmailMessageID: msg.EmailMessageID,
		CreatedAt:      msg.CreatedAt,
	}
}
