package service

import (
	"context"
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

func newUserFixture() (*UserService, *repository.MemoryUserRepository, *repository.MemoryTicketRepository) {
	userRepo := repository.NewMemoryUserRepository()
	ticketRepo := repository.NewMemoryTicketRepository()
	return NewUserService(testConfig(), userRepo, ticketRepo), userRepo, ticketRepo
}

func TestCreateUserRoles(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	agent, err := svc.Create(ctx, CreateUserInput{
		Username:        "agent",
		Email:           "agent@example.com",
		Password:        "secret1",
		Role:            "support",
		SupportCategory: "Hardware",
	})
	if err != nil {
		t.Fatalf("create support: %v", err)
	}
	if agent.SupportCategory == nil || *agent.SupportCategory != domain.CategoryHardware {
		t.Fatalf("support category: %+v", agent.SupportCategory)
	}

	// A category supplied for a non-support role is discarded.
	admin, err := svc.Create(ctx, CreateUserInput{
		Username:        "boss",
		Email:           "boss@example.com",
		Password:        "secret1",
		Role:            "admin",
		SupportCategory: "HR",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if admin.SupportCategory != nil {
		t.Fatal("non-support accounts must not carry a category")
	}
}

func TestCreateSupportRequiresCategory(t *testing.T) {
	svc, _, _ := newUserFixture()

	_, err := svc.Create(context.Background(), CreateUserInput{
		Username: "agent",
		Email:    "agent@example.com",
		Password: "secret1",
		Role:     "support",
	})
	if got := domainStatus(t, err); got.HTTPStatus != 400 {
		t.Fatalf("expected 400, got %d", got.HTTPStatus)
	}
}

func TestCreateUserRejectsUnknownEnums(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateUserInput{
		Username: "x1", Email: "x1@example.com", Password: "secret1", Role: "superuser",
	}); err == nil {
		t.Fatal("unknown role should be rejected")
	}
	if _, err := svc.Create(ctx, CreateUserInput{
		Username: "x2", Email: "x2@example.com", Password: "secret1", Role: "support", SupportCategory: "Plumbing",
	}); err == nil {
		t.Fatal("unknown category should be rejected")
	}
}

func TestUpdateUserDropsCategoryOffSupport(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	agent, err := svc.Create(ctx, CreateUserInput{
		Username: "agent", Email: "agent@example.com", Password: "secret1",
		Role: "support", SupportCategory: "HR",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	role := "user"
	updated, err := svc.Update(ctx, agent.ID, UpdateUserInput{Role: &role})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != domain.RoleUser || updated.SupportCategory != nil {
		t.Fatalf("category must be dropped with the support role: %+v", updated)
	}
}

func TestDeleteUser(t *testing.T) {
	svc, users, tickets := newUserFixture()
	ctx := context.Background()

	agent, err := svc.Create(ctx, CreateUserInput{
		Username: "agent", Email: "agent@example.com", Password: "secret1",
		Role: "support", SupportCategory: "HR",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ticket := &domain.Ticket{
		TicketID: "TICK-1", Title: "t", Description: "d", Category: "HR",
		Priority: domain.TicketPriorityMedium, Status: domain.TicketStatusInProgress,
		OwnerID: "owner-1", AssignedToID: &agent.ID,
	}
	if err := tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	// Self-deletion is refused before any lookup.
	err = svc.Delete(ctx, agent.ID, agent.ID)
	if got := domainStatus(t, err); got.HTTPStatus != 400 {
		t.Fatalf("self delete: expected 400, got %d", got.HTTPStatus)
	}

	if err := svc.Delete(ctx, "admin-1", agent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := users.GetByID(ctx, agent.ID); err == nil {
		t.Fatal("user should be gone")
	}

	stored, err := tickets.GetByTicketID(ctx, "TICK-1")
	if err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	if stored.AssignedToID != nil {
		t.Fatal("assignments referencing a deleted user must be cleared")
	}

	err = svc.Delete(ctx, "admin-1", agent.ID)
	if got := domainStatus(t, err); got.HTTPStatus != 404 {
		t.Fatalf("second delete: expected 404, got %d", got.HTTPStatus)
	}
}

func TestDeleteUserKeepsOwnedTickets(t *testing.T) {
	svc, _, tickets := newUserFixture()
	ctx := context.Background()

	owner, err := svc.Create(ctx, CreateUserInput{
		Username: "bob", Email: "bob@example.com", Password: "secret1", Role: "user",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ticket := &domain.Ticket{
		TicketID: "TICK-1", Title: "t", Description: "d", Category: "HR",
		Priority: domain.TicketPriorityMedium, Status: domain.TicketStatusOpen,
		OwnerID: owner.ID,
	}
	if err := tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	if err := svc.Delete(ctx, "admin-1", owner.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Tickets outlive their owner's account; only assignments are
	// cleared.
	stored, err := tickets.GetByTicketID(ctx, "TICK-1")
	if err != nil {
		t.Fatalf("owned ticket gone after owner deletion: %v", err)
	}
	if stored.OwnerID != owner.ID {
		t.Fatalf("owner id rewritten: %q", stored.OwnerID)
	}
	if total, _ := tickets.CountAll(ctx); total != 1 {
		t.Fatalf("ticket count after owner deletion: %d", total)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	input := CreateUserInput{Username: "dup", Email: "dup@example.com", Password: "secret1", Role: "user"}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, input)
	if got := domainStatus(t, err); got.Code != "CONFLICT" || got.HTTPStatus != 400 {
		t.Fatalf("expected 400 conflict, got %+v", got)
	}
}
