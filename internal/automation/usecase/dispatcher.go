package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
	"fieldcrm-backend/pkg/ai"
)

// dispatch persists the outbound draft and, when approved, sends it.
// A send failure reverts the draft to pending so the reply is never
// lost, only delayed until a human approves it.
func (u *AutomationUsecase) dispatch(ctx context.Context, t *tenantdomain.Tenant, transport MailTransport, lead *leaddomain.Lead, inReplyTo *messagedomain.Message, inbound *messagedomain.InboundEmail, reply *ai.Reply, approved bool, category string) (*messagedomain.Message, error) {
	draft := &messagedomain.Message{
		TenantID:      t.ID,
		LeadID:        lead.ID,
		Direction:     messagedomain.DirectionOutbound,
		Subject:       reply.Subject,
		Content:       reply.Body,
		Category:      category,
		FromAddress:   t.Mailbox.Address,
		ToAddress:     lead.Email,
		IsAIGenerated: true,
		AIConfidence:  reply.Confidence,
	}

	var threadID, inReplyToMsgID, references string
	if inReplyTo != nil {
		draft.InReplyToID = &inReplyTo.ID
		draft.ThreadID = inReplyTo.ThreadID
		threadID = inReplyTo.ThreadID
	}
	if inbound != nil {
		inReplyToMsgID = inbound.MessageID
		references = inbound.MessageID
	}
	if draft.Subject == "" {
		if inbound != nil {
			draft.Subject = "Re: " + inbound.Subject
		} else {
			draft.Subject = "Following up"
		}
	}

	if approved {
		sentAt := u.now()
		draft.SentAt = &sentAt
	} else {
		draft.AIApprovalNeeded = true
	}
	if err := u.messages.Create(draft); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}
	if !approved {
		log.Printf("[Automation] Tenant %s: draft %s held for approval", t.ID, draft.ID)
		return draft, nil
	}

	providerID, err := u.sendWithRetry(ctx, t, transport, draft, threadID, inReplyToMsgID, references)
	if err != nil {
		draft.SentAt = nil
		draft.AIApprovalNeeded = true
		if uerr := u.messages.Update(draft); uerr != nil {
			log.Printf("[Automation] Tenant %s: failed to revert draft %s: %v", t.ID, draft.ID, uerr)
		}
		u.recordMailboxFailure(t)
		return draft, fmt.Errorf("send: %w", err)
	}

	draft.ProviderMessageID = providerID
	if err := u.messages.Update(draft); err != nil {
		return draft, err
	}
	if err := u.tenants.ResetMailboxFailures(t.ID); err != nil {
		log.Printf("[Automation] Tenant %s: failed to reset failure counter: %v", t.ID, err)
	}
	log.Printf("[Automation] Tenant %s: sent reply %s to %s", t.ID, draft.ID, draft.ToAddress)
	return draft, nil
}

// sendWithRetry sends once and, on a revoked-credential failure,
// refreshes and retries exactly once. Bounded by construction.
func (u *AutomationUsecase) sendWithRetry(ctx context.Context, t *tenantdomain.Tenant, transport MailTransport, draft *messagedomain.Message, threadID, inReplyTo, references string) (string, error) {
	id, err := transport.Send(ctx, &t.Mailbox, draft.ToAddress, draft.Subject, draft.Content, threadID, inReplyTo, references)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, tenantdomain.ErrInvalidGrant) {
		return "", err
	}
	log.Printf("[Automation] Tenant %s: refreshing credentials after auth failure", t.ID)
	if rerr := transport.RefreshCredentials(ctx, &t.Mailbox); rerr != nil {
		return "", err
	}
	return transport.Send(ctx, &t.Mailbox, draft.ToAddress, draft.Subject, draft.Content, threadID, inReplyTo, references)
}
