package repository

import "fieldcrm-backend/internal/quote/domain"

// QuoteRepository is the persistence boundary for quotes.
type QuoteRepository interface {
	Create(q *domain.Quote) error
	Update(q *domain.Quote) error
	FindByID(tenantID, id string) (*domain.Quote, error)
	ListByTenant(tenantID string, limit, offset int) ([]*domain.Quote, int64, error)
}
