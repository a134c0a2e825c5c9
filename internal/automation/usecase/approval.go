package usecase

import (
	"log"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"
	settingsdomain "fieldcrm-backend/internal/settings/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
)

// shouldAutoSend is the approval gate. A reply goes out unattended only
// when the tenant opted in, the clock sits inside working hours, and
// the sender is not a first-time contact held for review.
func (u *AutomationUsecase) shouldAutoSend(set *settingsdomain.AutomationSettings, newContact bool) bool {
	if !set.AutoApprove {
		return false
	}
	if !set.InWorkingHours(u.now()) {
		return false
	}
	if newContact && set.RequireApprovalForNew {
		return false
	}
	return true
}

// aiQuotaAvailable reports whether the tenant may spend another AI
// generation this month, rolling the counter over lazily when the
// billing month has turned since the last reset.
func (u *AutomationUsecase) aiQuotaAvailable(t *tenantdomain.Tenant) (bool, error) {
	now := u.now()
	if t.NeedsUsageReset(now) {
		if err := u.tenants.ResetAIUsage(t.ID, now); err != nil {
			return false, err
		}
		t.AIUsageCount = 0
		t.AIUsageResetAt = now
	}
	return !t.QuotaExhausted(), nil
}

// storeLimitNotice records a pending outbound draft telling the tenant
// the quota ran out. It is never sent automatically; it surfaces in the
// approval queue so the conversation is not silently dropped.
func (u *AutomationUsecase) storeLimitNotice(t *tenantdomain.Tenant, lead *leaddomain.Lead, inbound *messagedomain.Message) error {
	log.Printf("[Automation] Tenant %s: AI quota exhausted, holding reply to lead %s", t.ID, lead.ID)
	notice := &messagedomain.Message{
		TenantID:         t.ID,
		LeadID:           lead.ID,
		Direction:        messagedomain.DirectionOutbound,
		Subject:          "Re: " + inbound.Subject,
		Content:          "The monthly AI reply limit for this workspace has been reached. This conversation needs a manual reply.",
		Category:         messagedomain.CategoryLimitReached,
		FromAddress:      t.Mailbox.Address,
		ToAddress:        lead.Email,
		ThreadID:         inbound.ThreadID,
		InReplyToID:      &inbound.ID,
		AIApprovalNeeded: true,
	}
	return u.messages.Create(notice)
}
