package repository

import "fieldcrm-backend/internal/settings/domain"

// SettingsRepository loads and stores per-tenant automation settings.
type SettingsRepository interface {
	// GetByTenant returns the tenant's settings, falling back to
	// defaults when no row exists. Never returns nil settings.
	GetByTenant(tenantID string) (*domain.AutomationSettings, error)
	Save(s *domain.AutomationSettings) error
}
