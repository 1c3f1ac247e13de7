package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures admin search parameters. Status and Priority
// are exact matches, Search is a case-insensitive substring match over
// title OR ticket id. Filters combine conjunctively.
type TicketFilter struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Search      *string
	OldestFirst bool
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	GetByTicketIDOwned(ctx context.Context, ticketID, ownerID string) (*domain.Ticket, error)
	GetByTicketIDInCategory(ctx context.Context, ticketID string, category domain.SupportCategory) (*domain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	ListByCategory(ctx context.Context, category domain.SupportCategory) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ClearAssignee(ctx context.Context, userID string) error
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_id, title, description, category, priority, status,
               owner_id, assigned_to_id, notes, resolution_comment,
               created_at, updated_at, resolved_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_id, title, description, category, priority, status,
                             owner_id, assigned_to_id, notes, resolution_comment, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.OwnerID,
		ticket.AssignedToID,
		ticket.Notes,
		ticket.ResolutionComment,
		ticket.ResolvedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, assigned_to_id=$2, notes=$3, resolution_comment=$4,
            resolved_at=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.AssignedToID,
		ticket.Notes,
		ticket.ResolutionComment,
		ticket.ResolvedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *ticketRepository) GetByTicketIDOwned(ctx context.Context, ticketID, ownerID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_id=$1 AND owner_id=$2`, ticketColumns)
	return r.fetchSingle(ctx, query, ticketID, ownerID)
}

func (r *ticketRepository) GetByTicketIDInCategory(ctx context.Context, ticketID string, category domain.SupportCategory) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_id=$1 AND category=$2`, ticketColumns)
	return r.fetchSingle(ctx, query, ticketID, string(category))
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE owner_id=$1 ORDER BY created_at DESC`, ticketColumns)
	return r.fetchMany(ctx, query, ownerID)
}

func (r *ticketRepository) ListByCategory(ctx context.Context, category domain.SupportCategory) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE category=$1 ORDER BY created_at DESC`, ticketColumns)
	return r.fetchMany(ctx, query, string(category))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+escapeLike(strings.TrimSpace(*filter.Search))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(title ILIKE %s OR ticket_id ILIKE %s)", placeholder, placeholder))
	}

	order := "DESC"
	if filter.OldestFirst {
		order = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at %s`,
		ticketColumns, strings.Join(clauses, " AND "), order)
	return r.fetchMany(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so user-supplied search
// text always matches as a literal substring.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ClearAssignee nulls assigned_to_id on every ticket referencing the
// user, used when an account is deleted.
func (r *ticketRepository) ClearAssignee(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE tickets SET assigned_to_id=NULL, updated_at=NOW() WHERE assigned_to_id=$1`, userID)
	return err
}

func (r *ticketRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&total)
	return total, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupCount(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
}

func (r *ticketRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	return r.groupCount(ctx, `SELECT category, COUNT(*) FROM tickets GROUP BY category`)
}

func (r *ticketRepository) groupCount(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, args...).Scan, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) fetchMany(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows.Scan, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(scan func(...any) error, ticket *domain.Ticket) error {
	return scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.OwnerID,
		&ticket.AssignedToID,
		&ticket.Notes,
		&ticket.ResolutionComment,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	)
}
