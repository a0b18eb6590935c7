package domain

import "time"

// Role partitions accounts into the three actor kinds of the exchange.
// A role is fixed at registration and never changes.
type Role string

const (
	RoleProducer  Role = "PRODUCER"
	RoleCollector Role = "COLLECTOR"
	RoleBuyer     Role = "BUYER"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleProducer, RoleCollector, RoleBuyer:
		return true
	}
	return false
}

// AccountStatus represents lifecycle states for an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account is the domain model for any participant in the exchange.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Reputation   float64
	PhotoURL     string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
