package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// In-memory implementations backing local development when no
// POSTGRES_DSN is configured, and the service-level tests. They honor
// the same contract as the pgx repositories: pgx.ErrNoRows for misses
// and a 23505 PgError for unique-index violations.

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

// MemoryUserRepository is a mutex-guarded in-memory UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	order []string
}

// NewMemoryUserRepository constructs an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return uniqueViolation("users_username_key")
		}
		if existing.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return uniqueViolation("users_email_key")
		}
	}
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	stored.Role = user.Role
	stored.SupportCategory = user.SupportCategory
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = stored
	*user = stored
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	for i, stored := range r.order {
		if stored == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryUserRepository) GetByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		user := r.users[id]
		if user.Username == username || user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryUserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.users[id])
	}
	return result, nil
}

// MemoryTicketRepository is a mutex-guarded in-memory TicketRepository.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	order   []string
}

// NewMemoryTicketRepository constructs an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[string]domain.Ticket)}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tickets {
		if existing.TicketID == ticket.TicketID {
			return uniqueViolation("tickets_ticket_id_key")
		}
	}
	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *MemoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = ticket.Status
	stored.AssignedToID = ticket.AssignedToID
	stored.Notes = ticket.Notes
	stored.ResolutionComment = ticket.ResolutionComment
	stored.ResolvedAt = ticket.ResolvedAt
	stored.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = stored
	*ticket = stored
	return nil
}

func (r *MemoryTicketRepository) GetByTicketID(_ context.Context, ticketID string) (*domain.Ticket, error) {
	return r.find(func(t domain.Ticket) bool { return t.TicketID == ticketID })
}

func (r *MemoryTicketRepository) GetByTicketIDOwned(_ context.Context, ticketID, ownerID string) (*domain.Ticket, error) {
	return r.find(func(t domain.Ticket) bool { return t.TicketID == ticketID && t.OwnerID == ownerID })
}

func (r *MemoryTicketRepository) GetByTicketIDInCategory(_ context.Context, ticketID string, category domain.SupportCategory) (*domain.Ticket, error) {
	return r.find(func(t domain.Ticket) bool {
		return t.TicketID == ticketID && t.Category == string(category)
	})
}

func (r *MemoryTicketRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	return r.collect(func(t domain.Ticket) bool { return t.OwnerID == ownerID }, false), nil
}

func (r *MemoryTicketRepository) ListByCategory(_ context.Context, category domain.SupportCategory) ([]domain.Ticket, error) {
	return r.collect(func(t domain.Ticket) bool { return t.Category == string(category) }, false), nil
}

func (r *MemoryTicketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	match := func(t domain.Ticket) bool {
		if filter.Status != nil && t.Status != *filter.Status {
			return false
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			return false
		}
		if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
			needle := strings.ToLower(strings.TrimSpace(*filter.Search))
			if !strings.Contains(strings.ToLower(t.Title), needle) &&
				!strings.Contains(strings.ToLower(t.TicketID), needle) {
				return false
			}
		}
		return true
	}
	return r.collect(match, filter.OldestFirst), nil
}

func (r *MemoryTicketRepository) ClearAssignee(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ticket := range r.tickets {
		if ticket.AssignedToID != nil && *ticket.AssignedToID == userID {
			ticket.AssignedToID = nil
			ticket.UpdatedAt = time.Now()
			r.tickets[id] = ticket
		}
	}
	return nil
}

func (r *MemoryTicketRepository) CountAll(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.tickets)), nil
}

func (r *MemoryTicketRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	return r.tally(func(t domain.Ticket) string { return string(t.Status) }), nil
}

func (r *MemoryTicketRepository) CountByCategory(_ context.Context) (map[string]int64, error) {
	return r.tally(func(t domain.Ticket) string { return t.Category }), nil
}

func (r *MemoryTicketRepository) find(match func(domain.Ticket) bool) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ticket := range r.tickets {
		if match(ticket) {
			copied := ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryTicketRepository) collect(match func(domain.Ticket) bool, oldestFirst bool) []domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(r.order))
	for _, id := range r.order {
		if ticket := r.tickets[id]; match(ticket) {
			result = append(result, ticket)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if oldestFirst {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *MemoryTicketRepository) tally(key func(domain.Ticket) string) map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, ticket := range r.tickets {
		counts[key(ticket)]++
	}
	return counts
}
