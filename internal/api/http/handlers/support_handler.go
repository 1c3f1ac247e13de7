package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// SupportHandler serves the support-agent routes. Every lookup is scoped
// to the agent's support category.
type SupportHandler struct {
	tickets *service.TicketService
}

// NewSupportHandler constructs the handler.
func NewSupportHandler(tickets *service.TicketService) *SupportHandler {
	return &SupportHandler{tickets: tickets}
}

// ListCategory returns the tickets in the agent's category.
func (h *SupportHandler) ListCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no token provided")
	}

	tickets, err := h.tickets.ListForCategory(c.Context(), principal)
	if err != nil {
		return err
	}

	views := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		views = append(views, dto.NewTicketResponse(ticket, h.tickets.AssigneeUsername(c.Context(), ticket)))
	}
	return c.JSON(views)
}

// UpdateTicket applies a status change plus optional notes and
// resolution comment to a ticket in the agent's category.
func (h *SupportHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no token provided")
	}

	var req dto.AgentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	if _, err := h.tickets.UpdateByAgent(c.Context(), principal, c.Params("id"), service.AgentUpdateInput{
		Status:            req.Status,
		Notes:             req.Notes,
		ResolutionComment: req.ResolutionComment,
	}); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "ticket updated"})
}
