package domain

import (
	"errors"
	"time"
)

// ErrInvalidGrant marks a mail-transport auth failure caused by an
// expired or revoked refresh token. Transports wrap this sentinel so
// callers can errors.Is without knowing which provider raised it.
var ErrInvalidGrant = errors.New("invalid_grant")

// MaxMailboxFailures is the number of consecutive transport failures
// after which a tenant's mailbox integration is disabled.
const MaxMailboxFailures = 5

// Mail providers supported for tenant mailboxes
const (
	ProviderGmail = "gmail"
	ProviderIMAP  = "imap"
)

// MailAccount holds a tenant's mailbox integration. Gmail tenants use
// the OAuth token pair; IMAP tenants use host/port plus password.
type MailAccount struct {
	Provider     string `json:"provider" gorm:"default:gmail"`
	Address      string `json:"address"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	IMAPHost     string `json:"imap_host,omitempty"`
	IMAPPort     int    `json:"imap_port,omitempty"`
	SMTPHost     string `json:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
	Password     string `json:"-"`
	Connected    bool   `json:"connected"`
	FailureCount int    `json:"-"`
}

// Tenant is one customer account of the back office. The automation
// engine iterates tenants independently; everything the engine needs
// per cycle (mailbox, calendar, AI quota) hangs off this record.
type Tenant struct {
	ID              string `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"not null"`
	BusinessType    string `json:"business_type"`
	BusinessContext string `json:"business_context"` // free-text blurb fed into AI reply context
	ReplyName       string `json:"reply_name"`

	Mailbox MailAccount `json:"mailbox" gorm:"embedded;embeddedPrefix:mailbox_"`

	CalendarConnected bool   `json:"calendar_connected"`
	CalendarID        string `json:"calendar_id"`

	AIUsageCount   int       `json:"ai_usage_count"`
	AIUsageLimit   *int      `json:"ai_usage_limit"` // nil = unlimited
	AIUsageResetAt time.Time `json:"ai_usage_reset_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuotaExhausted reports whether the tenant has used up its monthly AI
// reply allowance. Callers must roll the counter over first when a new
// month has started relative to AIUsageResetAt.
func (t *Tenant) QuotaExhausted() bool {
	if t.AIUsageLimit == nil {
		return false
	}
	return t.AIUsageCount >= *t.AIUsageLimit
}

// NeedsUsageReset reports whether now falls in a later calendar month
// than the last usage reset.
func (t *Tenant) NeedsUsageReset(now time.Time) bool {
	y1, m1, _ := t.AIUsageResetAt.Date()
	y2, m2, _ := now.Date()
	return y2 > y1 || (y2 == y1 && m2 > m1)
}
