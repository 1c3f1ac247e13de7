package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler serves the end-user ticket routes.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create files a new ticket owned by the caller.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no token provided")
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.Create(c.Context(), principal.ID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(ticket, nil))
}

// ListOwned returns the caller's tickets with assignee usernames resolved.
func (h *TicketsHandler) ListOwned(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no token provided")
	}

	tickets, err := h.tickets.ListOwned(c.Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(h.ticketViews(c, tickets))
}

// Cancel withdraws one of the caller's open tickets.
func (h *TicketsHandler) Cancel(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no token provided")
	}

	if err := h.tickets.Cancel(c.Context(), principal.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "ticket cancelled"})
}

// GenerateTicket is a legacy categorization stub kept for older clients.
// It fabricates a preview payload without persisting anything.
func (h *TicketsHandler) GenerateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	return c.JSON(dto.GenerateTicketResponse{
		TicketID:    "TICK-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Description: req.Description,
		Category:    "General",
		Priority:    string(domain.TicketPriorityMedium),
		Status:      string(domain.TicketStatusOpen),
	})
}

func (h *TicketsHandler) ticketViews(c *fiber.Ctx, tickets []domain.Ticket) []dto.TicketResponse {
	views := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		views = append(views, dto.NewTicketResponse(ticket, h.tickets.AssigneeUsername(c.Context(), ticket)))
	}
	return views
}
