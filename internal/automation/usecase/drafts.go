package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	messagedomain "fieldcrm-backend/internal/message/domain"
)

// ErrDraftNotFound is returned for approval actions against a message
// that does not exist, belongs to another tenant, or is not pending.
var ErrDraftNotFound = errors.New("draft not found or not pending")

// PendingDrafts lists the tenant's outbound drafts awaiting approval.
func (u *AutomationUsecase) PendingDrafts(tenantID string) ([]*messagedomain.Message, error) {
	return u.messages.PendingApproval(tenantID)
}

func (u *AutomationUsecase) pendingDraft(tenantID, messageID string) (*messagedomain.Message, error) {
	msg, err := u.messages.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.TenantID != tenantID || !msg.Pending() {
		return nil, ErrDraftNotFound
	}
	return msg, nil
}

// ApproveDraft sends a held draft. Thread id and reply headers are
// recovered from the stored message it replies to.
func (u *AutomationUsecase) ApproveDraft(ctx context.Context, tenantID, messageID string) (*messagedomain.Message, error) {
	msg, err := u.pendingDraft(tenantID, messageID)
	if err != nil {
		return nil, err
	}
	t, err := u.tenants.FindByID(tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tenant %s not found", tenantID)
	}
	transport := u.transports.For(&t.Mailbox)

	var threadID, inReplyTo, references string
	if msg.InReplyToID != nil {
		if orig, err := u.messages.FindByID(*msg.InReplyToID); err == nil && orig != nil {
			threadID = orig.ThreadID
			inReplyTo = orig.MessageID
			references = orig.MessageID
		}
	}
	if threadID == "" {
		threadID = msg.ThreadID
	}

	providerID, err := u.sendWithRetry(ctx, t, transport, msg, threadID, inReplyTo, references)
	if err != nil {
		u.recordMailboxFailure(t)
		return nil, fmt.Errorf("send: %w", err)
	}

	sentAt := u.now()
	msg.SentAt = &sentAt
	msg.AIApprovalNeeded = false
	msg.ProviderMessageID = providerID
	if err := u.messages.Update(msg); err != nil {
		return nil, err
	}
	if err := u.tenants.ResetMailboxFailures(t.ID); err != nil {
		log.Printf("[Automation] Tenant %s: failed to reset failure counter: %v", t.ID, err)
	}
	return msg, nil
}

// RejectDraft discards a held draft without sending it.
func (u *AutomationUsecase) RejectDraft(tenantID, messageID string) error {
	msg, err := u.pendingDraft(tenantID, messageID)
	if err != nil {
		return err
	}
	return u.messages.Delete(msg.ID)
}

// EditDraft rewrites a held draft's subject and body before approval.
func (u *AutomationUsecase) EditDraft(tenantID, messageID, subject, body string) (*messagedomain.Message, error) {
	msg, err := u.pendingDraft(tenantID, messageID)
	if err != nil {
		return nil, err
	}
	if subject != "" {
		msg.Subject = subject
	}
	if body != "" {
		msg.Content = body
	}
	editedAt := u.now()
	msg.EditedAt = &editedAt
	if err := u.messages.Update(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
