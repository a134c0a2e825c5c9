package repository

import (
	"time"

	"fieldcrm-backend/internal/quote/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a GORM-based QuoteRepository.
func NewGormQuoteRepository(db *gorm.DB) QuoteRepository {
	return &gormQuoteRepository{db: db}
}

func (r *gormQuoteRepository) Create(q *domain.Quote) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	for i := range q.Items {
		if q.Items[i].ID == "" {
			q.Items[i].ID = uuid.New().String()
		}
		q.Items[i].QuoteID = q.ID
	}
	if q.Status == "" {
		q.Status = domain.QuoteStatusDraft
	}
	q.CreatedAt = time.Now()
	q.UpdatedAt = time.Now()
	return r.db.Create(q).Error
}

func (r *gormQuoteRepository) Update(q *domain.Quote) error {
	q.UpdatedAt = time.Now()
	return r.db.Save(q).Error
}

func (r *gormQuoteRepository) FindByID(tenantID, id string) (*domain.Quote, error) {
	var q domain.Quote
	err := r.db.Preload("Items").Where("tenant_id = ? AND id = ?", tenantID, id).First(&q).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *gormQuoteRepository) ListByTenant(tenantID string, limit, offset int) ([]*domain.Quote, int64, error) {
	var quotes []*domain.Quote
	var total int64

	query := r.db.Model(&domain.Quote{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Items").Order("created_at DESC").Limit(limit).Offset(offset).Find(&quotes).Error
	return quotes, total, err
}
