package repository

import (
	"time"

	"fieldcrm-backend/internal/tenant/domain"
)

// TenantRepository is the persistence boundary for tenants and their
// mailbox/quota bookkeeping.
type TenantRepository interface {
	FindByID(id string) (*domain.Tenant, error)
	// FindActive returns tenants whose mailbox integration is connected.
	FindActive() ([]*domain.Tenant, error)
	Update(t *domain.Tenant) error

	// IncrementAIUsage bumps the monthly usage counter by one. The
	// read-then-increment is tolerant of benign races; an occasional
	// overcount is acceptable, silently exceeding the limit is not.
	IncrementAIUsage(id string) error
	ResetAIUsage(id string, at time.Time) error

	// RecordMailboxFailure increments the consecutive-failure counter
	// and returns the new value.
	RecordMailboxFailure(id string) (int, error)
	ResetMailboxFailures(id string) error
	DisableMailbox(id string) error

	// UpdateTokensByAddress persists refreshed OAuth tokens for the
	// tenant owning the given mailbox address.
	UpdateTokensByAddress(address, accessToken, refreshToken string) error
}
