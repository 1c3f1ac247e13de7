package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload. Category and priority are optional; the
// external categorization collaborator normally supplies them.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// AgentUpdateRequest is the support ticket-update payload.
type AgentUpdateRequest struct {
	Status            string  `json:"status"`
	Notes             *string `json:"notes"`
	ResolutionComment *string `json:"resolutionComment"`
}

// AdminStatusRequest is the admin status-update payload.
type AdminStatusRequest struct {
	Status            string `json:"status"`
	ResolutionComment string `json:"resolution_comment"`
}

// AssignRequest is the admin assignment payload.
type AssignRequest struct {
	AssignedToID string `json:"assigned_to_id"`
}

// TicketResponse is the outward ticket view.
type TicketResponse struct {
	TicketID           string     `json:"ticket_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Category           string     `json:"category"`
	Priority           string     `json:"priority"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Owner              string     `json:"owner,omitempty"`
	AssignedToUsername *string    `json:"assigned_to_username"`
	Notes              string     `json:"notes,omitempty"`
	ResolutionComment  string     `json:"resolution_comment,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
}

// MessageResponse is the generic success body.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusUpdateResponse confirms an admin status change.
type StatusUpdateResponse struct {
	Message string       `json:"message"`
	Ticket  StatusTicket `json:"ticket"`
}

// StatusTicket is the trimmed ticket view inside a status update
// confirmation; resolution fields appear only when resolved.
type StatusTicket struct {
	TicketID          string     `json:"ticket_id"`
	Status            string     `json:"status"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	ResolutionComment string     `json:"resolution_comment,omitempty"`
}

// AssignResponse confirms a ticket assignment.
type AssignResponse struct {
	Message    string       `json:"message"`
	AssignedTo AssignedUser `json:"assigned_to"`
	TicketID   string       `json:"ticket_id"`
	Status     string       `json:"status"`
}

// AssignedUser identifies the agent a ticket was assigned to.
type AssignedUser struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	SupportCategory *string `json:"supportCategory,omitempty"`
}

// GenerateTicketResponse is the legacy categorization stub body.
type GenerateTicketResponse struct {
	TicketID    string `json:"ticket_id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

// NewTicketResponse shapes a ticket view. assignedToUsername may be nil
// for unassigned tickets; owner is filled by callers that resolve it.
func NewTicketResponse(ticket *domain.Ticket, assignedToUsername *string) TicketResponse {
	return TicketResponse{
		TicketID:           ticket.TicketID,
		Title:              ticket.Title,
		Description:        ticket.Description,
		Category:           ticket.Category,
		Priority:           string(ticket.Priority),
		Status:             string(ticket.Status),
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
		AssignedToUsername: assignedToUsername,
		Notes:              ticket.Notes,
		ResolutionComment:  ticket.ResolutionComment,
		ResolvedAt:         ticket.ResolvedAt,
	}
}
