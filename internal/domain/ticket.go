package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// Valid reports whether the status is one of the five known values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved,
		TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// Valid reports whether the priority is one of the known values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Rank maps priority to an ordering weight: High=3, Medium=2, Low=1.
// Unknown values rank below Low.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityHigh:
		return 3
	case TicketPriorityMedium:
		return 2
	case TicketPriorityLow:
		return 1
	}
	return 0
}

// Ticket is the aggregate for support requests.
//
// TicketID is the human-readable, globally unique identifier distinct
// from the store's internal key. OwnerID is set once at creation and
// never reassigned. AssignedToID, when non-nil, must reference a user
// with role support. Status resolved implies a non-empty
// ResolutionComment and a set ResolvedAt.
type Ticket struct {
	ID                string
	TicketID          string
	Title             string
	Description       string
	Category          string
	Priority          TicketPriority
	Status            TicketStatus
	OwnerID           string
	AssignedToID      *string
	Notes             string
	ResolutionComment string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ResolvedAt        *time.Time
}
