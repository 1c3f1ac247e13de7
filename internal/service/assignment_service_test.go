package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

func newAssignmentFixture(t *testing.T) (*AssignmentService, *TicketService, *repository.MemoryUserRepository) {
	t.Helper()
	ticketRepo := repository.NewMemoryTicketRepository()
	userRepo := repository.NewMemoryUserRepository()
	tickets := NewTicketService(TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Logger:     zap.NewNop(),
	})
	return NewAssignmentService(ticketRepo, userRepo, nil), tickets, userRepo
}

func addUser(t *testing.T, repo *repository.MemoryUserRepository, username string, role domain.Role, category *domain.SupportCategory) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:        username,
		Email:           username + "@example.com",
		PasswordHash:    "x",
		Role:            role,
		SupportCategory: category,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func TestAssignForcesInProgress(t *testing.T) {
	assignments, tickets, users := newAssignmentFixture(t)
	ctx := context.Background()

	hw := domain.CategoryHardware
	agent := addUser(t, users, "agent", domain.RoleSupport, &hw)
	ticket := mustCreate(t, tickets, "owner-1", TicketCreateInput{Title: "t", Description: "d", Category: "Software"})

	// Category mismatch between agent and ticket is allowed here.
	updated, target, err := assignments.Assign(ctx, "admin-1", ticket.TicketID, agent.ID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if updated.AssignedToID == nil || *updated.AssignedToID != agent.ID {
		t.Fatalf("assignee: %+v", updated.AssignedToID)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("assignment must force in_progress, got %q", updated.Status)
	}
	if target.Username != "agent" {
		t.Fatalf("target: %+v", target)
	}
}

func TestAssignOverwritesPriorAssignment(t *testing.T) {
	assignments, tickets, users := newAssignmentFixture(t)
	ctx := context.Background()

	hw := domain.CategoryHardware
	first := addUser(t, users, "first", domain.RoleSupport, &hw)
	second := addUser(t, users, "second", domain.RoleSupport, &hw)
	ticket := mustCreate(t, tickets, "owner-1", TicketCreateInput{Title: "t", Description: "d"})

	if _, _, err := assignments.Assign(ctx, "admin-1", ticket.TicketID, first.ID); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	updated, _, err := assignments.Assign(ctx, "admin-1", ticket.TicketID, second.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if *updated.AssignedToID != second.ID {
		t.Fatalf("reassignment must overwrite, got %q", *updated.AssignedToID)
	}
}

func TestAssignRejectsNonSupportTarget(t *testing.T) {
	assignments, tickets, users := newAssignmentFixture(t)
	ctx := context.Background()

	admin := addUser(t, users, "boss", domain.RoleAdmin, nil)
	ticket := mustCreate(t, tickets, "owner-1", TicketCreateInput{Title: "t", Description: "d"})

	for name, targetID := range map[string]string{
		"admin target":   admin.ID,
		"unknown target": "no-such-user",
	} {
		_, _, err := assignments.Assign(ctx, "admin-1", ticket.TicketID, targetID)
		if got := domainStatus(t, err); got.HTTPStatus != 400 || got.Message != "invalid support user" {
			t.Fatalf("%s: expected invalid support user 400, got %+v", name, got)
		}
	}

	// The failed attempts must leave the ticket untouched.
	stored, err := tickets.tickets.GetByTicketID(ctx, ticket.TicketID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.AssignedToID != nil || stored.Status != domain.TicketStatusOpen {
		t.Fatalf("ticket mutated by failed assignment: %+v", stored)
	}
}

func TestAssignUnknownTicket(t *testing.T) {
	assignments, _, users := newAssignmentFixture(t)

	hw := domain.CategoryHardware
	agent := addUser(t, users, "agent", domain.RoleSupport, &hw)

	_, _, err := assignments.Assign(context.Background(), "admin-1", "TICK-missing", agent.ID)
	if got := domainStatus(t, err); got.HTTPStatus != 404 {
		t.Fatalf("expected 404, got %d", got.HTTPStatus)
	}
}
