package repository

import (
	"time"

	"fieldcrm-backend/internal/tenant/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a GORM-based TenantRepository.
func NewGormTenantRepository(db *gorm.DB) TenantRepository {
	return &gormTenantRepository{db: db}
}

func (r *gormTenantRepository) FindByID(id string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.Where("id = ?", id).First(&t).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *gormTenantRepository) FindActive() ([]*domain.Tenant, error) {
	var tenants []*domain.Tenant
	err := r.db.Where("mailbox_connected = ?", true).Order("created_at ASC").Find(&tenants).Error
	return tenants, err
}

func (r *gormTenantRepository) Update(t *domain.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.UpdatedAt = time.Now()
	return r.db.Save(t).Error
}

func (r *gormTenantRepository) IncrementAIUsage(id string) error {
	return r.db.Model(&domain.Tenant{}).Where("id = ?", id).
		UpdateColumn("ai_usage_count", gorm.Expr("ai_usage_count + 1")).Error
}

func (r *gormTenantRepository) ResetAIUsage(id string, at time.Time) error {
	return r.db.Model(&domain.Tenant{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"ai_usage_count":    0,
			"ai_usage_reset_at": at,
		}).Error
}

func (r *gormTenantRepository) RecordMailboxFailure(id string) (int, error) {
	err := r.db.Model(&domain.Tenant{}).Where("id = ?", id).
		UpdateColumn("mailbox_failure_count", gorm.Expr("mailbox_failure_count + 1")).Error
	if err != nil {
		return 0, err
	}
	var t domain.Tenant
	if err := r.db.Select("mailbox_failure_count").Where("id = ?", id).First(&t).Error; err != nil {
		return 0, err
	}
	return t.Mailbox.FailureCount, nil
}

func (r *gormTenantRepository) ResetMailboxFailures(id string) error {
	return r.db.Model(&domain.Tenant{}).Where("id = ?", id).
		UpdateColumn("mailbox_failure_count", 0).Error
}

func (r *gormTenantRepository) DisableMailbox(id string) error {
	return r.db.Model(&domain.Tenant{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"mailbox_connected": false,
			"updated_at":        time.Now(),
		}).Error
}

func (r *gormTenantRepository) UpdateTokensByAddress(address, accessToken, refreshToken string) error {
	updates := map[string]interface{}{
		"mailbox_access_token": accessToken,
		"updated_at":           time.Now(),
	}
	if refreshToken != "" {
		updates["mailbox_refresh_token"] = refreshToken
	}
	return r.db.Model(&domain.Tenant{}).Where("mailbox_address = ?", address).
		Updates(updates).Error
}
