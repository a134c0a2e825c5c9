package usecase

import (
	"context"
	"log"
	"time"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"
	settingsdomain "fieldcrm-backend/internal/settings/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
)

// RunFollowUps executes one follow-up sweep: open leads whose last
// message is an unanswered inbound older than the tenant's follow-up
// window get one nudge each. The HasFollowUpTo check keeps the sweep
// idempotent across runs.
func (u *AutomationUsecase) RunFollowUps(ctx context.Context) {
	tenants, err := u.tenants.FindActive()
	if err != nil {
		log.Printf("[FollowUp] Failed to load tenants: %v", err)
		return
	}
	for _, t := range tenants {
		u.runIsolated(t.ID, "follow-up", func() {
			u.followUpTenant(ctx, t)
		})
	}
}

func (u *AutomationUsecase) followUpTenant(ctx context.Context, t *tenantdomain.Tenant) {
	set, err := u.settings.GetByTenant(t.ID)
	if err != nil {
		log.Printf("[FollowUp] Tenant %s: failed to load settings: %v", t.ID, err)
		return
	}
	if !set.AutoRespond {
		return
	}

	leads, err := u.leads.FindOpen(t.ID)
	if err != nil {
		log.Printf("[FollowUp] Tenant %s: failed to load leads: %v", t.ID, err)
		return
	}

	transport := u.transports.For(&t.Mailbox)
	cutoff := u.now().AddDate(0, 0, -set.FollowUpDays)
	for _, lead := range leads {
		if err := u.followUpLead(ctx, t, set, transport, lead, cutoff); err != nil {
			log.Printf("[FollowUp] Tenant %s: lead %s: %v", t.ID, lead.ID, err)
		}
	}
}

func (u *AutomationUsecase) followUpLead(ctx context.Context, t *tenantdomain.Tenant, set *settingsdomain.AutomationSettings, transport MailTransport, lead *leaddomain.Lead, cutoff time.Time) error {
	last, err := u.messages.LastForLead(lead.ID)
	if err != nil {
		return err
	}
	if last == nil || last.Direction != messagedomain.DirectionInbound {
		return nil
	}
	if last.CreatedAt.After(cutoff) {
		return nil
	}
	done, err := u.messages.HasFollowUpTo(last.ID)
	if err != nil || done {
		return err
	}

	allowed, err := u.aiQuotaAvailable(t)
	if err != nil {
		return err
	}
	if !allowed {
		// Quota notices belong to the reply path; follow-ups just wait.
		return nil
	}

	rc, _, err := u.buildReplyContext(ctx, t, lead, "", true)
	if err != nil {
		return err
	}
	reply, err := u.ai.GenerateReply(ctx, rc)
	if err != nil {
		return err
	}
	if err := u.tenants.IncrementAIUsage(t.ID); err != nil {
		log.Printf("[FollowUp] Tenant %s: failed to count AI usage: %v", t.ID, err)
	}

	approved := u.shouldAutoSend(set, false)
	_, err = u.dispatch(ctx, t, transport, lead, last, nil, reply, approved, messagedomain.CategoryFollowUp)
	return err
}
