package repository

import (
	"time"

	"fieldcrm-backend/internal/lead/domain"
)

// LeadRepository is the persistence boundary for leads. Lookup is
// keyed by (tenant, email).
type LeadRepository interface {
	Create(lead *domain.Lead) error
	Update(lead *domain.Lead) error
	FindByID(tenantID, id string) (*domain.Lead, error)
	FindByEmail(tenantID, email string) (*domain.Lead, error)
	List(tenantID string, limit, offset int) ([]*domain.Lead, int64, error)

	// FindOpen returns leads not in a terminal stage, for the
	// follow-up sweep.
	FindOpen(tenantID string) ([]*domain.Lead, error)
	// FindScheduledBetween returns scheduled leads whose appointment
	// falls inside [from, to], for the reminder sweep.
	FindScheduledBetween(tenantID string, from, to time.Time) ([]*domain.Lead, error)
	// Touch bumps UpdatedAt, used to suppress duplicate reminders.
	Touch(id string, at time.Time) error
}
