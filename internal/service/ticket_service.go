package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/categorize"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const (
	defaultCategory = "Software"
	defaultPriority = domain.TicketPriorityMedium

	// Attempts at regenerating a ticket id after a unique-index
	// collision before giving up.
	ticketIDRetries = 3
)

// Sort options for admin ticket listing.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortPriority = "priority"
)

// TicketService owns ticket records: creation, field mutation, status
// transitions and the list/aggregate views.
type TicketService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	categorizer *categorize.Client
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	Categorizer *categorize.Client
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes the ticket creation payload. Category and
// Priority are optional; the external categorization collaborator or
// the service defaults fill them in.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// ListFilter describes admin listing parameters.
type ListFilter struct {
	Status   string
	Priority string
	Search   string
	Sort     string
}

// AgentUpdateInput describes a support agent's ticket update.
type AgentUpdateInput struct {
	Status            string
	Notes             *string
	ResolutionComment *string
}

// Stats aggregates ticket counts. Values with zero tickets are omitted.
type Stats struct {
	TotalTickets      int64            `json:"total_tickets"`
	TicketsByStatus   map[string]int64 `json:"tickets_by_status"`
	TicketsByCategory map[string]int64 `json:"tickets_by_category"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		categorizer: deps.Categorizer,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// Create files a new ticket for the owner. The ticket id is generated
// here, before the store write, and the store's unique index backs it
// up: on a collision the id is regenerated and the insert retried.
func (s *TicketService) Create(ctx context.Context, ownerID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}

	category := strings.TrimSpace(input.Category)
	priority := domain.TicketPriority(strings.TrimSpace(input.Priority))
	if input.Priority != "" && !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	if category == "" && s.categorizer != nil {
		if suggestion, err := s.categorizer.Suggest(ctx, title, description); err == nil {
			category = suggestion.Category
			if priority == "" && domain.TicketPriority(suggestion.Priority).Valid() {
				priority = domain.TicketPriority(suggestion.Priority)
			}
		} else {
			s.logger.Warn("categorizer unavailable, using defaults", zap.Error(err))
		}
	}
	if category == "" {
		category = defaultCategory
	}
	if priority == "" {
		priority = defaultPriority
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		OwnerID:     ownerID,
	}

	for attempt := 0; ; attempt++ {
		ticket.TicketID = generateTicketID()
		err := s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if apperrors.IsUniqueViolation(err) && attempt < ticketIDRetries {
			continue
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.TicketID,
		ActorID:  ownerID,
		Payload: events.TicketCreatedPayload{
			Category: ticket.Category,
			Priority: ticket.Priority,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// ListOwned returns the tickets owned by the principal.
func (s *TicketService) ListOwned(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListForCategory returns tickets in the support principal's category.
// Only support principals hold a category scope.
func (s *TicketService) ListForCategory(ctx context.Context, principal *auth.Principal) ([]domain.Ticket, error) {
	if principal == nil || principal.Role != domain.RoleSupport {
		return nil, apperrors.NewForbidden("support role required")
	}
	tickets, err := s.tickets.ListByCategory(ctx, principal.Category())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListAll returns all tickets matching the filter, admin view. Status
// and priority filters are exact, search matches substrings of title or
// ticket id case-insensitively, and the priority sort is stable with
// rank High > Medium > Low.
func (s *TicketService) ListAll(ctx context.Context, filter ListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		OldestFirst: filter.Sort == SortOldest,
	}
	if filter.Status != "" {
		status := domain.TicketStatus(filter.Status)
		repoFilter.Status = &status
	}
	if filter.Priority != "" {
		priority := domain.TicketPriority(filter.Priority)
		repoFilter.Priority = &priority
	}
	if filter.Search != "" {
		search := filter.Search
		repoFilter.Search = &search
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if filter.Sort == SortPriority {
		SortByPriority(tickets)
	}
	return tickets, nil
}

// SortByPriority orders tickets by descending priority rank. The sort
// is stable: tickets of equal priority keep their relative order.
func SortByPriority(tickets []domain.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].Priority.Rank() > tickets[j].Priority.Rank()
	})
}

// Cancel withdraws an owned ticket. Only tickets still in their initial
// unclaimed state can be cancelled.
func (s *TicketService) Cancel(ctx context.Context, ownerID, ticketID string) error {
	ticket, err := s.tickets.GetByTicketIDOwned(ctx, ticketID, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket")
		}
		return apperrors.MapError(err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		return apperrors.NewInvalidTransition("can only cancel open tickets")
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusCancelled
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCancelled,
		TicketID: ticket.TicketID,
		ActorID:  ownerID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})
	return nil
}

// UpdateStatusAsAdmin sets any of the five statuses. The state machine
// is deliberately permissive for admins; the only constraint is that a
// transition to resolved carries a resolution comment and stamps
// resolvedAt.
func (s *TicketService) UpdateStatusAsAdmin(ctx context.Context, actorID, ticketID, status, resolutionComment string) (*domain.Ticket, error) {
	newStatus := domain.TicketStatus(status)
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}

	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.MapError(err)
	}

	if err := applyStatus(ticket, newStatus, resolutionComment); err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.TicketID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// UpdateByAgent applies a support agent's update. The lookup is scoped
// to the agent's category: a ticket outside it is reported as not
// found, never as forbidden.
func (s *TicketService) UpdateByAgent(ctx context.Context, principal *auth.Principal, ticketID string, input AgentUpdateInput) (*domain.Ticket, error) {
	newStatus := domain.TicketStatus(input.Status)
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": input.Status})
	}

	ticket, err := s.tickets.GetByTicketIDInCategory(ctx, ticketID, principal.Category())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.MapError(err)
	}

	var comment string
	if input.ResolutionComment != nil {
		comment = *input.ResolutionComment
	}
	if err := applyStatus(ticket, newStatus, comment); err != nil {
		return nil, err
	}
	if input.Notes != nil {
		ticket.Notes = *input.Notes
	}
	if input.ResolutionComment != nil {
		ticket.ResolutionComment = strings.TrimSpace(*input.ResolutionComment)
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.TicketID,
		ActorID:  principal.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// applyStatus enforces the resolved invariant: a ticket can only become
// resolved with a non-empty resolution comment, and resolvedAt is
// stamped on that transition.
func applyStatus(ticket *domain.Ticket, newStatus domain.TicketStatus, resolutionComment string) error {
	if newStatus != domain.TicketStatusResolved {
		return nil
	}
	if strings.TrimSpace(resolutionComment) == "" {
		return apperrors.NewValidationError("resolution comment is required to resolve a ticket", nil)
	}
	now := time.Now()
	ticket.ResolutionComment = strings.TrimSpace(resolutionComment)
	ticket.ResolvedAt = &now
	return nil
}

// ComputeStats aggregates ticket counts by status and category.
func (s *TicketService) ComputeStats(ctx context.Context) (*Stats, error) {
	total, err := s.tickets.CountAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byStatus, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byCategory, err := s.tickets.CountByCategory(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Stats{
		TotalTickets:      total,
		TicketsByStatus:   byStatus,
		TicketsByCategory: byCategory,
	}, nil
}

// AssigneeUsername resolves the username behind an assignment, or nil
// when the ticket is unassigned or the account is gone.
func (s *TicketService) AssigneeUsername(ctx context.Context, ticket *domain.Ticket) *string {
	if ticket.AssignedToID == nil {
		return nil
	}
	user, err := s.users.GetByID(ctx, *ticket.AssignedToID)
	if err != nil {
		return nil
	}
	return &user.Username
}

// OwnerUsername resolves the owner's username, or "" when the account
// is gone.
func (s *TicketService) OwnerUsername(ctx context.Context, ticket *domain.Ticket) string {
	user, err := s.users.GetByID(ctx, ticket.OwnerID)
	if err != nil {
		return ""
	}
	return user.Username
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// generateTicketID builds a human-readable, statistically unique ticket
// identifier from the creation time and a random suffix.
func generateTicketID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:5])
	return "TICK-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + suffix
}
