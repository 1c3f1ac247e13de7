package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

func newTicketService() (*TicketService, *repository.MemoryTicketRepository, *repository.MemoryUserRepository) {
	ticketRepo := repository.NewMemoryTicketRepository()
	userRepo := repository.NewMemoryUserRepository()
	svc := NewTicketService(TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Logger:     zap.NewNop(),
	})
	return svc, ticketRepo, userRepo
}

func supportPrincipal(category domain.SupportCategory) *auth.Principal {
	return &auth.Principal{
		ID:              "agent-1",
		Username:        "agent",
		Role:            domain.RoleSupport,
		SupportCategory: &category,
	}
}

func mustCreate(t *testing.T, svc *TicketService, ownerID string, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	ticket, err := svc.Create(context.Background(), ownerID, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _, _ := newTicketService()

	ticket := mustCreate(t, svc, "owner-1", TicketCreateInput{
		Title:       "  VPN broken  ",
		Description: "cannot connect",
	})

	if ticket.Title != "VPN broken" {
		t.Fatalf("title not trimmed: %q", ticket.Title)
	}
	if ticket.Category != "Software" {
		t.Fatalf("default category: got %q", ticket.Category)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("default priority: got %q", ticket.Priority)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("new tickets start open, got %q", ticket.Status)
	}
	if !strings.HasPrefix(ticket.TicketID, "TICK-") {
		t.Fatalf("unexpected ticket id %q", ticket.TicketID)
	}
	if ticket.OwnerID != "owner-1" {
		t.Fatalf("owner: got %q", ticket.OwnerID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "owner-1", TicketCreateInput{Title: "   ", Description: "x"}); err == nil {
		t.Fatal("blank title should be rejected")
	}
	if _, err := svc.Create(ctx, "owner-1", TicketCreateInput{Title: "x", Description: ""}); err == nil {
		t.Fatal("empty description should be rejected")
	}
	if _, err := svc.Create(ctx, "owner-1", TicketCreateInput{Title: "x", Description: "y", Priority: "Urgent"}); err == nil {
		t.Fatal("unknown priority should be rejected")
	}
}

func TestCreateGeneratesUniqueIDs(t *testing.T) {
	svc, _, _ := newTicketService()

	const n = 40
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, err := svc.Create(context.Background(), "owner-1", TicketCreateInput{
				Title:       "burst",
				Description: "burst",
			})
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			ids <- ticket.TicketID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate ticket id %q", id)
		}
		seen[id] = true
	}
}

func TestCancel(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, "owner-1", TicketCreateInput{Title: "t", Description: "d"})

	// Another owner's lookup must miss entirely.
	err := svc.Cancel(ctx, "someone-else", ticket.TicketID)
	if got := domainStatus(t, err); got.HTTPStatus != 404 {
		t.Fatalf("foreign cancel: expected 404, got %d", got.HTTPStatus)
	}

	if err := svc.Cancel(ctx, "owner-1", ticket.TicketID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	stored, err := svc.tickets.GetByTicketID(ctx, ticket.TicketID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != domain.TicketStatusCancelled {
		t.Fatalf("status after cancel: %q", stored.Status)
	}

	// Cancelled is terminal; a second cancel is a state error, not a
	// no-op.
	err = svc.Cancel(ctx, "owner-1", ticket.TicketID)
	if got := domainStatus(t, err); got.HTTPStatus != 400 {
		t.Fatalf("double cancel: expected 400, got %d", got.HTTPStatus)
	}
}

func TestCancelOnlyFromOpen(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, "owner-1", TicketCreateInput{Title: "t", Description: "d"})
	if _, err := svc.UpdateStatusAsAdmin(ctx, "admin-1", ticket.TicketID, "in_progress", ""); err != nil {
		t.Fatalf("move to in_progress: %v", err)
	}

	err := svc.Cancel(ctx, "owner-1", ticket.TicketID)
	if got := domainStatus(t, err); got.HTTPStatus != 400 {
		t.Fatalf("expected 400 for non-open cancel, got %d", got.HTTPStatus)
	}
}

func TestAdminStatusUpdate(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, "owner-1", TicketCreateInput{Title: "t", Description: "d"})

	if _, err := svc.UpdateStatusAsAdmin(ctx, "admin-1", ticket.TicketID, "bogus", ""); err == nil {
		t.Fatal("unknown status should be rejected")
	}
	_, err := svc.UpdateStatusAsAdmin(ctx, "admin-1", "TICK-does-not-exist", "closed", "")
	if got := domainStatus(t, err); got.HTTPStatus != 404 {
		t.Fatalf("missing ticket: expected 404, got %d", got.HTTPStatus)
	}

	// Resolving without a comment is refused.
	_, err = svc.UpdateStatusAsAdmin(ctx, "admin-1", ticket.TicketID, "resolved", "   ")
	if got := domainStatus(t, err); got.HTTPStatus != 400 {
		t.Fatalf("resolve without comment: expected 400, got %d", got.HTTPStatus)
	}

	updated, err := svc.UpdateStatusAsAdmin(ctx, "admin-1", ticket.TicketID, "resolved", " rebooted the router ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if updated.Status != domain.TicketStatusResolved {
		t.Fatalf("status: %q", updated.Status)
	}
	if updated.ResolutionComment != "rebooted the router" {
		t.Fatalf("comment: %q", updated.ResolutionComment)
	}
	if updated.ResolvedAt == nil {
		t.Fatal("resolvedAt must be stamped on resolution")
	}
}

func TestAgentUpdateScopedToCategory(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	ticket := mustCreate(t, svc, "owner-1", TicketCreateInput{Title: "t", Description: "d", Category: "Software"})

	// An agent outside the category must not learn the ticket exists.
	_, err := svc.UpdateByAgent(ctx, supportPrincipal(domain.CategoryHardware), ticket.TicketID, AgentUpdateInput{Status: "in_progress"})
	if got := domainStatus(t, err); got.HTTPStatus != 404 {
		t.Fatalf("cross-category update: expected 404, got %d", got.HTTPStatus)
	}

	notes := "checked logs"
	updated, err := svc.UpdateByAgent(ctx, supportPrincipal(domain.CategorySoftware), ticket.TicketID, AgentUpdateInput{
		Status: "in_progress",
		Notes:  &notes,
	})
	if err != nil {
		t.Fatalf("in-category update: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress || updated.Notes != "checked logs" {
		t.Fatalf("unexpected ticket: %+v", updated)
	}
}

func TestAgentResolveRequiresComment(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()
	principal := supportPrincipal(domain.CategorySoftware)

	ticket := mustCreate(t, svc, "owner-1", TicketCreateInput{Title: "t", Description: "d", Category: "Software"})

	_, err := svc.UpdateByAgent(ctx, principal, ticket.TicketID, AgentUpdateInput{Status: "resolved"})
	if got := domainStatus(t, err); got.HTTPStatus != 400 {
		t.Fatalf("resolve without comment: expected 400, got %d", got.HTTPStatus)
	}

	// Surrounding whitespace never reaches the store, same as the
	// admin path.
	comment := "  replaced license key  "
	updated, err := svc.UpdateByAgent(ctx, principal, ticket.TicketID, AgentUpdateInput{
		Status:            "resolved",
		ResolutionComment: &comment,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if updated.ResolvedAt == nil || updated.ResolutionComment != "replaced license key" {
		t.Fatalf("resolution fields not stamped: %+v", updated)
	}
}

func TestListForCategoryRequiresSupportRole(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	mustCreate(t, svc, "owner-1", TicketCreateInput{Title: "hw", Description: "d", Category: "Hardware"})
	mustCreate(t, svc, "owner-1", TicketCreateInput{Title: "sw", Description: "d", Category: "Software"})

	for _, role := range []domain.Role{domain.RoleUser, domain.RoleAdmin} {
		_, err := svc.ListForCategory(ctx, &auth.Principal{ID: "x", Role: role})
		if got := domainStatus(t, err); got.HTTPStatus != 403 {
			t.Fatalf("role %s: expected 403, got %d", role, got.HTTPStatus)
		}
	}

	tickets, err := svc.ListForCategory(ctx, supportPrincipal(domain.CategoryHardware))
	if err != nil {
		t.Fatalf("ListForCategory: %v", err)
	}
	if len(tickets) != 1 || tickets[0].Category != "Hardware" {
		t.Fatalf("expected the single Hardware ticket, got %+v", tickets)
	}
}

func TestListAllFilters(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	printer := mustCreate(t, svc, "o1", TicketCreateInput{Title: "Printer jam", Description: "d", Priority: "Low"})
	mustCreate(t, svc, "o2", TicketCreateInput{Title: "Email outage", Description: "d", Priority: "High"})
	if err := svc.Cancel(ctx, "o1", printer.TicketID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	byStatus, err := svc.ListAll(ctx, ListFilter{Status: "cancelled"})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].TicketID != printer.TicketID {
		t.Fatalf("status filter: got %+v", byStatus)
	}

	byPriority, err := svc.ListAll(ctx, ListFilter{Priority: "High"})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(byPriority) != 1 || byPriority[0].Title != "Email outage" {
		t.Fatalf("priority filter: got %+v", byPriority)
	}
}

func TestListAllSearch(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	jam := mustCreate(t, svc, "o1", TicketCreateInput{Title: "Printer JAM on floor 3", Description: "d"})
	mustCreate(t, svc, "o1", TicketCreateInput{Title: "Email outage", Description: "d"})

	// Case-insensitive substring over the title.
	found, err := svc.ListAll(ctx, ListFilter{Search: "printer jam"})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(found) != 1 || found[0].TicketID != jam.TicketID {
		t.Fatalf("title search: got %+v", found)
	}

	// The ticket id is searchable too.
	found, err = svc.ListAll(ctx, ListFilter{Search: strings.ToLower(jam.TicketID)})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(found) != 1 || found[0].TicketID != jam.TicketID {
		t.Fatalf("ticket id search: got %+v", found)
	}

	if found, _ = svc.ListAll(ctx, ListFilter{Search: "no such thing"}); len(found) != 0 {
		t.Fatalf("expected no matches, got %+v", found)
	}
}

func TestSortByPriorityStable(t *testing.T) {
	tickets := []domain.Ticket{
		{TicketID: "a", Priority: domain.TicketPriorityLow},
		{TicketID: "b", Priority: domain.TicketPriorityHigh},
		{TicketID: "c", Priority: domain.TicketPriorityMedium},
		{TicketID: "d", Priority: domain.TicketPriorityHigh},
		{TicketID: "e", Priority: domain.TicketPriorityMedium},
	}
	SortByPriority(tickets)

	got := make([]string, len(tickets))
	for i, ticket := range tickets {
		got[i] = ticket.TicketID
	}
	want := []string{"b", "d", "c", "e", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: got %v, want %v", got, want)
		}
	}
}

func TestComputeStats(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	first := mustCreate(t, svc, "o1", TicketCreateInput{Title: "a", Description: "d", Category: "HR"})
	mustCreate(t, svc, "o1", TicketCreateInput{Title: "b", Description: "d", Category: "HR"})
	mustCreate(t, svc, "o2", TicketCreateInput{Title: "c", Description: "d", Category: "Hardware"})
	if err := svc.Cancel(ctx, "o1", first.TicketID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	stats, err := svc.ComputeStats(ctx)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if stats.TotalTickets != 3 {
		t.Fatalf("total: got %d", stats.TotalTickets)
	}
	if stats.TicketsByStatus["open"] != 2 || stats.TicketsByStatus["cancelled"] != 1 {
		t.Fatalf("by status: %+v", stats.TicketsByStatus)
	}
	if _, ok := stats.TicketsByStatus["resolved"]; ok {
		t.Fatal("zero-count statuses must be omitted")
	}
	if stats.TicketsByCategory["HR"] != 2 || stats.TicketsByCategory["Hardware"] != 1 {
		t.Fatalf("by category: %+v", stats.TicketsByCategory)
	}

	var statusSum, categorySum int64
	for _, n := range stats.TicketsByStatus {
		statusSum += n
	}
	for _, n := range stats.TicketsByCategory {
		categorySum += n
	}
	if statusSum != stats.TotalTickets || categorySum != stats.TotalTickets {
		t.Fatalf("aggregates disagree: status=%d category=%d total=%d", statusSum, categorySum, stats.TotalTickets)
	}
}

func TestListAllSortOldest(t *testing.T) {
	svc, _, _ := newTicketService()
	ctx := context.Background()

	first := mustCreate(t, svc, "o1", TicketCreateInput{Title: "first", Description: "d"})
	time.Sleep(2 * time.Millisecond)
	second := mustCreate(t, svc, "o1", TicketCreateInput{Title: "second", Description: "d"})

	oldest, err := svc.ListAll(ctx, ListFilter{Sort: SortOldest})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if oldest[0].TicketID != first.TicketID {
		t.Fatalf("oldest first: got %q", oldest[0].TicketID)
	}

	newest, err := svc.ListAll(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if newest[0].TicketID != second.TicketID {
		t.Fatalf("newest first by default: got %q", newest[0].TicketID)
	}
}
