package domain

import "time"

// QuoteStatus tracks the quote lifecycle.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
)

// Quote is a priced offer generated for a lead, either by hand or by
// the automation engine from an AI draft.
type Quote struct {
	ID       string      `json:"id" gorm:"primaryKey"`
	TenantID string      `json:"tenant_id" gorm:"index;not null"`
	LeadID   string      `json:"lead_id" gorm:"index;not null"`
	Title    string      `json:"title"`
	Status   QuoteStatus `json:"status" gorm:"default:draft"`

	Items   []QuoteItem `json:"items" gorm:"foreignKey:QuoteID"`
	TaxRate float64     `json:"tax_rate"`
	Total   float64     `json:"total"`

	// Set when the computed total fell inside the tenant's
	// auto-approve bounds at generation time.
	AutoApproved bool `json:"auto_approved"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuoteItem is one line of a quote.
type QuoteItem struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	QuoteID     string  `json:"quote_id" gorm:"index;not null"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// ComputeTotal sums the line items and applies the tax rate.
func (q *Quote) ComputeTotal() {
	var subtotal float64
	for _, it := range q.Items {
		subtotal += it.Quantity * it.UnitPrice
	}
	q.Total = subtotal * (1 + q.TaxRate/100)
}
