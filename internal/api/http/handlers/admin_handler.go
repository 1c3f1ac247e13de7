package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AdminHandler serves the admin routes: user management, the global
// ticket view, status overrides, assignment and stats.
type AdminHandler struct {
	users       *service.UserService
	tickets     *service.TicketService
	assignments *service.AssignmentService
	statsCache  *service.StatsCache
}

// AdminDependencies bundles collaborators for the admin handler.
type AdminDependencies struct {
	UserService       *service.UserService
	TicketService     *service.TicketService
	AssignmentService *service.AssignmentService
	StatsCache        *service.StatsCache
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	return &AdminHandler{
		users:       deps.UserService,
		tickets:     deps.TicketService,
		assignments: deps.AssignmentService,
		statsCache:  deps.StatsCache,
	}
}

// ListUsers returns every account, timestamps included.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.Context())
	if err != nil {
		return err
	}
	views := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		views = append(views, dto.NewUserResponseFull(&users[i]))
	}
	return c.JSON(views)
}

// CreateUser adds an account with any role.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	user, err := h.users.Create(c.Context(), service.CreateUserInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		Role:            req.Role,
		SupportCategory: req.SupportCategory,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(user))
}

// UpdateUser edits an account's email, role and support category.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	user, err := h.users.Update(c.Context(), c.Params("id"), service.UpdateUserInput{
		Email:           req.Email,
		Role:            req.Role,
		SupportCategory: req.SupportCategory,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// DeleteUser removes an account. Deleting your own account is refused.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no token provided")
	}
	if err := h.users.Delete(c.Context(), principal.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "user deleted"})
}

// ListTickets returns the global ticket view, filtered and sorted by
// query parameters.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListAll(c.Context(), service.ListFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	})
	if err != nil {
		return err
	}

	views := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		view := dto.NewTicketResponse(ticket, h.tickets.AssigneeUsername(c.Context(), ticket))
		view.Owner = h.tickets.OwnerUsername(c.Context(), ticket)
		views = append(views, view)
	}
	return c.JSON(views)
}

// UpdateTicketStatus sets any ticket status; resolving requires a
// resolution comment.
func (h *AdminHandler) UpdateTicketStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no token provided")
	}

	var req dto.AdminStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.UpdateStatusAsAdmin(c.Context(), principal.ID, c.Params("id"), req.Status, req.ResolutionComment)
	if err != nil {
		return err
	}
	return c.JSON(dto.StatusUpdateResponse{
		Message: "ticket status updated",
		Ticket: dto.StatusTicket{
			TicketID:          ticket.TicketID,
			Status:            string(ticket.Status),
			UpdatedAt:         ticket.UpdatedAt,
			ResolvedAt:        ticket.ResolvedAt,
			ResolutionComment: ticket.ResolutionComment,
		},
	})
}

// AssignTicket binds a ticket to a support agent and moves it to
// in_progress.
func (h *AdminHandler) AssignTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("no token provided")
	}

	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, target, err := h.assignments.Assign(c.Context(), principal.ID, c.Params("id"), req.AssignedToID)
	if err != nil {
		return err
	}

	var category *string
	if target.SupportCategory != nil {
		s := string(*target.SupportCategory)
		category = &s
	}
	return c.JSON(dto.AssignResponse{
		Message: "ticket assigned",
		AssignedTo: dto.AssignedUser{
			ID:              target.ID,
			Username:        target.Username,
			SupportCategory: category,
		},
		TicketID: ticket.TicketID,
		Status:   string(ticket.Status),
	})
}

// Stats returns the ticket aggregate, served from the short-TTL cache
// when fresh.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	if cached := h.statsCache.Get(c.Context()); cached != nil {
		return c.JSON(cached)
	}
	stats, err := h.tickets.ComputeStats(c.Context())
	if err != nil {
		return err
	}
	h.statsCache.Set(c.Context(), stats)
	return c.JSON(stats)
}
