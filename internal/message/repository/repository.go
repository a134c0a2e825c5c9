package repository

import (
	"time"

	"fieldcrm-backend/internal/message/domain"
)

// MessageRepository is the persistence boundary for messages.
type MessageRepository interface {
	Create(m *domain.Message) error
	Update(m *domain.Message) error
	Delete(id string) error
	FindByID(id string) (*domain.Message, error)

	// FindByProviderID supports idempotent ingestion: one stored row
	// per (tenant, provider message id).
	FindByProviderID(tenantID, providerID string) (*domain.Message, error)

	// History returns up to limit messages for a lead, oldest first,
	// for the AI transcript.
	History(leadID string, limit int) ([]*domain.Message, error)
	// RecentWindow returns messages created since the given time,
	// newest first, for the circuit breaker.
	RecentWindow(leadID string, since time.Time) ([]*domain.Message, error)
	LastForLead(leadID string) (*domain.Message, error)

	// HasFollowUpTo reports whether an AI-generated outbound follow-up
	// already references the given message as its reply target.
	HasFollowUpTo(messageID string) (bool, error)

	PendingApproval(tenantID string) ([]*domain.Message, error)
}
