package domain

import "time"

// Direction of an exchanged message relative to the tenant.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Well-known message categories written by the engine.
const (
	CategoryLimitReached = "limit_reached" // system notice stored when the AI quota is exhausted
	CategoryReminder     = "reminder"
	CategoryFollowUp     = "follow_up"
)

// Message is an immutable record of one communication. An outbound
// message with SentAt == nil is a draft awaiting approval or auto-send.
type Message struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	TenantID string    `json:"tenant_id" gorm:"index;index:idx_tenant_provider,unique;not null"`
	LeadID   string    `json:"lead_id" gorm:"index"`
	Direction Direction `json:"direction" gorm:"not null"`
	Channel  string    `json:"channel" gorm:"default:email"`

	Subject  string `json:"subject"`
	Content  string `json:"content"`
	Category string `json:"category"`

	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`

	IsAIGenerated    bool    `json:"is_ai_generated"`
	AIApprovalNeeded bool    `json:"ai_approval_needed"`
	AIConfidence     float64 `json:"ai_confidence"`

	SentAt   *time.Time `json:"sent_at,omitempty"`
	ReadAt   *time.Time `json:"read_at,omitempty"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	// Self-reference to the message this one replies to.
	InReplyToID *string `json:"in_reply_to_id,omitempty" gorm:"index"`

	// Provider-side identifiers. ProviderMessageID is unique per
	// (tenant, provider id) so re-processing the same provider id is a
	// no-op; the index is partial so unsent drafts, which have no
	// provider id yet, never collide.
	ProviderMessageID string `json:"provider_message_id" gorm:"index:idx_tenant_provider,unique,where:provider_message_id <> ''"`
	ThreadID          string `json:"thread_id"`

	// RFC 5322 Message-Id of the provider's copy, kept on inbound rows
	// so later replies can set In-Reply-To and References.
	MessageID string `json:"message_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pending reports whether the message is an outbound draft still
// waiting for a human decision.
func (m *Message) Pending() bool {
	return m.Direction == DirectionOutbound && m.AIApprovalNeeded && m.SentAt == nil
}

// InboundEmail is the transport-neutral shape of one fetched mailbox
// message, before it becomes a stored Message.
type InboundEmail struct {
	ProviderID string
	ThreadID   string
	MessageID  string // RFC 5322 Message-Id header, used for In-Reply-To on replies
	From       string
	Subject    string
	Body       string
	Headers    map[string]string
	ReceivedAt time.Time
}
