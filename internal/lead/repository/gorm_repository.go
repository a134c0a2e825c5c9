package repository

import (
	"strings"
	"time"

	"fieldcrm-backend/internal/lead/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a GORM-based LeadRepository.
func NewGormLeadRepository(db *gorm.DB) LeadRepository {
	return &gormLeadRepository{db: db}
}

func (r *gormLeadRepository) Create(lead *domain.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	lead.Email = strings.ToLower(strings.TrimSpace(lead.Email))
	if lead.Stage == "" {
		lead.Stage = domain.StageNew
	}
	if lead.Priority == "" {
		lead.Priority = domain.PriorityMedium
	}
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = time.Now()
	return r.db.Create(lead).Error
}

func (r *gormLeadRepository) Update(lead *domain.Lead) error {
	lead.UpdatedAt = time.Now()
	return r.db.Save(lead).Error
}

func (r *gormLeadRepository) FindByID(tenantID, id string) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&lead).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

func (r *gormLeadRepository) FindByEmail(tenantID, email string) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.Where("tenant_id = ? AND email = ?", tenantID, strings.ToLower(strings.TrimSpace(email))).First(&lead).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &lead, nil
}

func (r *gormLeadRepository) List(tenantID string, limit, offset int) ([]*domain.Lead, int64, error) {
	var leads []*domain.Lead
	var total int64

	query := r.db.Model(&domain.Lead{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&leads).Error
	return leads, total, err
}

func (r *gormLeadRepository) FindOpen(tenantID string) ([]*domain.Lead, error) {
	var leads []*domain.Lead
	err := r.db.Where("tenant_id = ? AND stage NOT IN ?", tenantID,
		[]domain.Stage{domain.StageWon, domain.StageLost, domain.StageCompleted}).
		Find(&leads).Error
	return leads, err
}

func (r *gormLeadRepository) FindScheduledBetween(tenantID string, from, to time.Time) ([]*domain.Lead, error) {
	var leads []*domain.Lead
	err := r.db.Where("tenant_id = ? AND stage = ? AND appointment_at BETWEEN ? AND ?",
		tenantID, domain.StageScheduled, from, to).Find(&leads).Error
	return leads, err
}

func (r *gormLeadRepository) Touch(id string, at time.Time) error {
	return r.db.Model(&domain.Lead{}).Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
}
