package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	leadrepo "fieldcrm-backend/internal/lead/repository"
	messagedomain "fieldcrm-backend/internal/message/domain"
	messagerepo "fieldcrm-backend/internal/message/repository"
	quoterepo "fieldcrm-backend/internal/quote/repository"
	settingsdomain "fieldcrm-backend/internal/settings/domain"
	settingsrepo "fieldcrm-backend/internal/settings/repository"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
	tenantrepo "fieldcrm-backend/internal/tenant/repository"
	"fieldcrm-backend/pkg/ai"
)

// AutomationUsecase is the inbound-communication automation engine:
// poll, filter, resolve, respond, gate, dispatch. One instance serves
// all tenants; per-tenant state is loaded fresh every cycle.
type AutomationUsecase struct {
	tenants    tenantrepo.TenantRepository
	leads      leadrepo.LeadRepository
	messages   messagerepo.MessageRepository
	settings   settingsrepo.SettingsRepository
	quotes     quoterepo.QuoteRepository
	transports TransportSelector
	ai         ai.Provider
	calendar   Calendar

	// Clock indirection so gate decisions are testable.
	now func() time.Time
}

func NewAutomationUsecase(
	tenants tenantrepo.TenantRepository,
	leads leadrepo.LeadRepository,
	messages messagerepo.MessageRepository,
	settings settingsrepo.SettingsRepository,
	quotes quoterepo.QuoteRepository,
	transports TransportSelector,
	provider ai.Provider,
	calendar Calendar,
) *AutomationUsecase {
	return &AutomationUsecase{
		tenants:    tenants,
		leads:      leads,
		messages:   messages,
		settings:   settings,
		quotes:     quotes,
		transports: transports,
		ai:         provider,
		calendar:   calendar,
		now:        time.Now,
	}
}

// ProcessAllTenants runs one mailbox poll cycle. Tenants are processed
// sequentially; a failing tenant never halts the others.
func (u *AutomationUsecase) ProcessAllTenants(ctx context.Context) {
	tenants, err := u.tenants.FindActive()
	if err != nil {
		log.Printf("[Automation] Failed to load tenants: %v", err)
		return
	}
	for _, t := range tenants {
		u.runIsolated(t.ID, "poll", func() {
			u.processTenant(ctx, t)
		})
	}
}

// runIsolated is the per-tenant failure boundary: panics and errors in
// one tenant's cycle are logged and contained.
func (u *AutomationUsecase) runIsolated(tenantID, phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Automation] Panic during %s for tenant %s: %v", phase, tenantID, r)
		}
	}()
	fn()
}

func (u *AutomationUsecase) processTenant(ctx context.Context, t *tenantdomain.Tenant) {
	set, err := u.settings.GetByTenant(t.ID)
	if err != nil {
		log.Printf("[Automation] Tenant %s: failed to load settings: %v", t.ID, err)
		return
	}

	transport := u.transports.For(&t.Mailbox)

	ids, err := transport.ListUnread(ctx, &t.Mailbox)
	if errors.Is(err, tenantdomain.ErrInvalidGrant) {
		// One bounded refresh-and-retry; never recurse.
		if rerr := transport.RefreshCredentials(ctx, &t.Mailbox); rerr == nil {
			ids, err = transport.ListUnread(ctx, &t.Mailbox)
		}
	}
	if err != nil {
		log.Printf("[Automation] Tenant %s: mailbox poll failed: %v", t.ID, err)
		u.recordMailboxFailure(t)
		return
	}
	if err := u.tenants.ResetMailboxFailures(t.ID); err != nil {
		log.Printf("[Automation] Tenant %s: failed to reset failure counter: %v", t.ID, err)
	}

	if len(ids) > 0 {
		log.Printf("[Automation] Tenant %s: %d unread message(s)", t.ID, len(ids))
	}
	for _, id := range ids {
		if err := u.processMessage(ctx, t, set, transport, id); err != nil {
			log.Printf("[Automation] Tenant %s: message %s: %v", t.ID, id, err)
		}
	}
}

// processMessage runs the full pipeline for one unread message. The
// message is marked read only once the cycle completes, so a failed AI
// call leaves it unread and naturally retried on the next poll.
func (u *AutomationUsecase) processMessage(ctx context.Context, t *tenantdomain.Tenant, set *settingsdomain.AutomationSettings, transport MailTransport, id string) error {
	inbound, err := transport.GetMessage(ctx, &t.Mailbox, id)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	existing, err := u.messages.FindByProviderID(t.ID, inbound.ProviderID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ReadAt != nil {
		// Already fully processed; just clear the unread flag again.
		return transport.MarkRead(ctx, &t.Mailbox, id)
	}

	if v := filterVerdict(inbound, set); v.Skip {
		log.Printf("[Automation] Tenant %s: skipping %s (%s)", t.ID, inbound.ProviderID, v.Reason)
		return transport.MarkRead(ctx, &t.Mailbox, id)
	}

	lead, isNew, err := u.resolveLead(ctx, t, set, inbound)
	if err != nil {
		return fmt.Errorf("resolve lead: %w", err)
	}

	stored := existing
	if stored == nil {
		stored = &messagedomain.Message{
			TenantID:          t.ID,
			LeadID:            lead.ID,
			Direction:         messagedomain.DirectionInbound,
			Subject:           inbound.Subject,
			Content:           inbound.Body,
			Category:          lead.Category,
			FromAddress:       senderAddress(inbound.From),
			ToAddress:         t.Mailbox.Address,
			ProviderMessageID: inbound.ProviderID,
			ThreadID:          inbound.ThreadID,
			MessageID:         inbound.MessageID,
		}
		if err := u.messages.Create(stored); err != nil {
			return fmt.Errorf("store inbound: %w", err)
		}
	}

	finish := func() error {
		if err := transport.MarkRead(ctx, &t.Mailbox, id); err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		readAt := u.now()
		stored.ReadAt = &readAt
		return u.messages.Update(stored)
	}

	tripped, err := u.breakerTripped(lead.ID)
	if err != nil {
		return err
	}
	if tripped {
		log.Printf("[Automation] Tenant %s: circuit breaker tripped for lead %s, no reply", t.ID, lead.ID)
		return finish()
	}

	if !set.AutoRespond {
		return finish()
	}

	allowed, err := u.aiQuotaAvailable(t)
	if err != nil {
		return err
	}
	if !allowed {
		if err := u.storeLimitNotice(t, lead, stored); err != nil {
			return err
		}
		return finish()
	}

	rc, slots, err := u.buildReplyContext(ctx, t, lead, inbound.Body, false)
	if err != nil {
		return err
	}
	reply, err := u.ai.GenerateReply(ctx, rc)
	if err != nil {
		// Leave unread; the next poll retries generation.
		return fmt.Errorf("generate reply: %w", err)
	}
	if err := u.tenants.IncrementAIUsage(t.ID); err != nil {
		log.Printf("[Automation] Tenant %s: failed to count AI usage: %v", t.ID, err)
	}

	analysis := analyzeInbound(inbound.Body, slots)
	if err := u.applyAnalysis(ctx, t, set, lead, inbound, analysis); err != nil {
		log.Printf("[Automation] Tenant %s: intent handling for lead %s: %v", t.ID, lead.ID, err)
	}

	approved := u.shouldAutoSend(set, isNew)
	if _, err := u.dispatch(ctx, t, transport, lead, stored, inbound, reply, approved, ""); err != nil {
		log.Printf("[Automation] Tenant %s: dispatch for lead %s: %v", t.ID, lead.ID, err)
	}

	contactedAt := u.now()
	lead.LastContactAt = &contactedAt
	if lead.Stage == leaddomain.StageNew {
		lead.AdvanceStage(leaddomain.StageContacted)
	}
	if err := u.leads.Update(lead); err != nil {
		log.Printf("[Automation] Tenant %s: failed to update lead %s: %v", t.ID, lead.ID, err)
	}

	return finish()
}

// recordMailboxFailure counts one consecutive transport failure and
// disables the integration once the threshold is reached.
func (u *AutomationUsecase) recordMailboxFailure(t *tenantdomain.Tenant) {
	count, err := u.tenants.RecordMailboxFailure(t.ID)
	if err != nil {
		log.Printf("[Automation] Tenant %s: failed to record mailbox failure: %v", t.ID, err)
		return
	}
	if count >= tenantdomain.MaxMailboxFailures {
		if err := u.tenants.DisableMailbox(t.ID); err != nil {
			log.Printf("[Automation] Tenant %s: failed to disable mailbox: %v", t.ID, err)
			return
		}
		log.Printf("[Automation] Tenant %s: mailbox disabled after %d consecutive failures", t.ID, count)
	}
}

// senderAddress extracts the bare lowercase address from a From header
// that may carry a display name.
func senderAddress(from string) string {
	addr := strings.TrimSpace(from)
	if start := strings.LastIndex(addr, "<"); start != -1 {
		addr = strings.TrimSuffix(addr[start+1:], ">")
	}
	return strings.ToLower(strings.TrimSpace(addr))
}

// displayName extracts the display-name part of a From header, if any.
func displayName(from string) string {
	if idx := strings.Index(from, "<"); idx > 0 {
		return strings.Trim(strings.TrimSpace(from[:idx]), `"`)
	}
	return ""
}
