package repository

import (
	"time"

	"fieldcrm-backend/internal/message/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a GORM-based MessageRepository.
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Channel == "" {
		m.Channel = "email"
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
	return r.db.Create(m).Error
}

func (r *gormMessageRepository) Update(m *domain.Message) error {
	m.UpdatedAt = time.Now()
	return r.db.Save(m).Error
}

func (r *gormMessageRepository) Delete(id string) error {
	return r.db.Delete(&domain.Message{}, "id = ?", id).Error
}

func (r *gormMessageRepository) FindByID(id string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.Where("id = ?", id).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *gormMessageRepository) FindByProviderID(tenantID, providerID string) (*domain.Message, error) {
	if providerID == "" {
		return nil, nil
	}
	var m domain.Message
	err := r.db.Where("tenant_id = ? AND provider_message_id = ?", tenantID, providerID).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *gormMessageRepository) History(leadID string, limit int) ([]*domain.Message, error) {
	var newest []*domain.Message
	err := r.db.Where("lead_id = ?", leadID).
		Order("created_at DESC").Limit(limit).Find(&newest).Error
	if err != nil {
		return nil, err
	}
	// Reverse into oldest-first order for the transcript.
	msgs := make([]*domain.Message, len(newest))
	for i, m := range newest {
		msgs[len(newest)-1-i] = m
	}
	return msgs, nil
}

func (r *gormMessageRepository) RecentWindow(leadID string, since time.Time) ([]*domain.Message, error) {
	var msgs []*domain.Message
	err := r.db.Where("lead_id = ? AND created_at >= ?", leadID, since).
		Order("created_at DESC").Find(&msgs).Error
	return msgs, err
}

func (r *gormMessageRepository) LastForLead(leadID string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.Where("lead_id = ?", leadID).Order("created_at DESC").First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *gormMessageRepository) HasFollowUpTo(messageID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Message{}).
		Where("in_reply_to_id = ? AND direction = ? AND is_ai_generated = ?",
			messageID, domain.DirectionOutbound, true).
		Count(&count).Error
	return count > 0, err
}

func (r *gormMessageRepository) PendingApproval(tenantID string) ([]*domain.Message, error) {
	var msgs []*domain.Message
	err := r.db.Where("tenant_id = ? AND direction = ? AND ai_approval_needed = ? AND sent_at IS NULL",
		tenantID, domain.DirectionOutbound, true).
		Order("created_at ASC").Find(&msgs).Error
	return msgs, err
}
