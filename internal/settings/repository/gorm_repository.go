package repository

import (
	"time"

	"fieldcrm-backend/internal/settings/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a GORM-based SettingsRepository.
func NewGormSettingsRepository(db *gorm.DB) SettingsRepository {
	return &gormSettingsRepository{db: db}
}

func (r *gormSettingsRepository) GetByTenant(tenantID string) (*domain.AutomationSettings, error) {
	var s domain.AutomationSettings
	err := r.db.Where("tenant_id = ?", tenantID).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Defaults(tenantID), nil
		}
		return nil, err
	}
	s.Normalize()
	return &s, nil
}

func (r *gormSettingsRepository) Save(s *domain.AutomationSettings) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
		s.CreatedAt = time.Now()
	}
	s.Normalize()
	s.UpdatedAt = time.Now()
	return r.db.Save(s).Error
}
