package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AssignmentService binds tickets to support agents.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(tickets repository.TicketRepository, users repository.UserRepository, dispatcher events.Dispatcher) *AssignmentService {
	return &AssignmentService{tickets: tickets, users: users, dispatcher: dispatcher}
}

// Assign sets the ticket's assignee and forces the status to
// in_progress, overwriting any prior status. The target must hold the
// support role; a category match between agent and ticket is not
// required, an admin may assign across categories.
func (s *AssignmentService) Assign(ctx context.Context, actorID, ticketID, targetUserID string) (*domain.Ticket, *domain.User, error) {
	target, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewValidationError("invalid support user", nil)
		}
		return nil, nil, apperrors.MapError(err)
	}
	if target.Role != domain.RoleSupport {
		return nil, nil, apperrors.NewValidationError("invalid support user", nil)
	}

	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket")
		}
		return nil, nil, apperrors.MapError(err)
	}

	ticket.AssignedToID = &target.ID
	ticket.Status = domain.TicketStatusInProgress
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketAssigned,
			TicketID:  ticket.TicketID,
			ActorID:   actorID,
			Timestamp: time.Now(),
			Payload:   events.TicketAssignedPayload{AssigneeID: target.ID},
		})
	}
	return ticket, target, nil
}
