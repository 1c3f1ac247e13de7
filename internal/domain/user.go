package domain

import "time"

// Role enumerates the access levels an account can hold.
type Role string

const (
	RoleUser    Role = "user"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSupport, RoleAdmin:
		return true
	}
	return false
}

// SupportCategory partitions tickets and support-role users. A support
// principal only sees tickets in their own category.
type SupportCategory string

const (
	CategoryHR       SupportCategory = "HR"
	CategoryHardware SupportCategory = "Hardware"
	CategorySoftware SupportCategory = "Software"
	CategoryAccess   SupportCategory = "Access"
)

// Valid reports whether the category is one of the known values.
func (c SupportCategory) Valid() bool {
	switch c {
	case CategoryHR, CategoryHardware, CategorySoftware, CategoryAccess:
		return true
	}
	return false
}

// User models every account: requesters, support agents and
// administrators. SupportCategory is meaningful only when Role is
// support and absent otherwise.
type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	Role            Role
	SupportCategory *SupportCategory
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
