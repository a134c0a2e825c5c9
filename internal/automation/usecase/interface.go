package usecase

import (
	"context"
	"time"

	messagedomain "fieldcrm-backend/internal/message/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
	"fieldcrm-backend/pkg/gcal"
)

// MailTransport is the mailbox collaborator contract. Implementations
// wrap auth failures caused by revoked credentials in
// tenantdomain.ErrInvalidGrant.
type MailTransport interface {
	ListUnread(ctx context.Context, acct *tenantdomain.MailAccount) ([]string, error)
	GetMessage(ctx context.Context, acct *tenantdomain.MailAccount, id string) (*messagedomain.InboundEmail, error)
	MarkRead(ctx context.Context, acct *tenantdomain.MailAccount, id string) error
	Send(ctx context.Context, acct *tenantdomain.MailAccount, to, subject, body, threadID, inReplyTo, references string) (string, error)
	RefreshCredentials(ctx context.Context, acct *tenantdomain.MailAccount) error
}

// Calendar is the calendar collaborator contract.
type Calendar interface {
	ListAvailableSlots(ctx context.Context, acct *tenantdomain.MailAccount, calendarID string, durationMinutes, daysAhead, max int) ([]gcal.Slot, error)
	CreateEvent(ctx context.Context, acct *tenantdomain.MailAccount, calendarID, summary, description string, start, end time.Time, attendee string) error
}

// TransportSelector picks the mail transport for a tenant's mailbox.
type TransportSelector interface {
	For(acct *tenantdomain.MailAccount) MailTransport
}

type providerSelector struct {
	gmail MailTransport
	imap  MailTransport
}

// NewTransportSelector routes gmail accounts to the Gmail transport
// and everything else to IMAP.
func NewTransportSelector(gmail, imap MailTransport) TransportSelector {
	return &providerSelector{gmail: gmail, imap: imap}
}

func (s *providerSelector) For(acct *tenantdomain.MailAccount) MailTransport {
	if acct.Provider == tenantdomain.ProviderIMAP {
		return s.imap
	}
	return s.gmail
}
