package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
)

// RunReminders executes one reminder sweep: leads with an appointment
// roughly one lead-time away get a templated reminder email. Reminders
// are plain templates, not AI generations, so they spend no quota.
func (u *AutomationUsecase) RunReminders(ctx context.Context) {
	tenants, err := u.tenants.FindActive()
	if err != nil {
		log.Printf("[Reminder] Failed to load tenants: %v", err)
		return
	}
	for _, t := range tenants {
		u.runIsolated(t.ID, "reminder", func() {
			u.remindTenant(ctx, t)
		})
	}
}

func (u *AutomationUsecase) remindTenant(ctx context.Context, t *tenantdomain.Tenant) {
	set, err := u.settings.GetByTenant(t.ID)
	if err != nil {
		log.Printf("[Reminder] Tenant %s: failed to load settings: %v", t.ID, err)
		return
	}

	now := u.now()
	target := now.Add(time.Duration(set.ReminderLeadHours) * time.Hour)
	// One-hour tolerance either side so the hourly sweep cannot miss an
	// appointment between ticks.
	leads, err := u.leads.FindScheduledBetween(t.ID, target.Add(-time.Hour), target.Add(time.Hour))
	if err != nil {
		log.Printf("[Reminder] Tenant %s: failed to load scheduled leads: %v", t.ID, err)
		return
	}

	transport := u.transports.For(&t.Mailbox)
	for _, lead := range leads {
		if lead.AppointmentAt == nil {
			continue
		}
		// A lead touched in the last hour already got this reminder.
		if now.Sub(lead.UpdatedAt) < time.Hour {
			continue
		}
		if err := u.sendReminder(ctx, t, transport, lead); err != nil {
			log.Printf("[Reminder] Tenant %s: lead %s: %v", t.ID, lead.ID, err)
		}
	}
}

func (u *AutomationUsecase) sendReminder(ctx context.Context, t *tenantdomain.Tenant, transport MailTransport, lead *leaddomain.Lead) error {
	name := lead.Name
	if name == "" {
		name = "there"
	}
	when := lead.AppointmentAt.Format("Monday, January 2 at 3:04 PM")

	var notes string
	if lead.AppointmentNotes != "" {
		notes = "\n" + lead.AppointmentNotes + "\n"
	}

	sentAt := u.now()
	msg := &messagedomain.Message{
		TenantID:    t.ID,
		LeadID:      lead.ID,
		Direction:   messagedomain.DirectionOutbound,
		Subject:     fmt.Sprintf("Reminder: your appointment with %s", t.Name),
		Content:     fmt.Sprintf("Hi %s,\n\nThis is a quick reminder of your upcoming appointment on %s.\n%s\nIf you need to reschedule, just reply to this email.\n\nSee you then,\n%s\n", name, when, notes, t.Name),
		Category:    messagedomain.CategoryReminder,
		FromAddress: t.Mailbox.Address,
		ToAddress:   lead.Email,
		SentAt:      &sentAt,
	}

	// Record and touch before delivery: a send that fails after the
	// provider accepted it must not be repeated on the next sweep.
	if err := u.messages.Create(msg); err != nil {
		return fmt.Errorf("store reminder: %w", err)
	}
	if err := u.leads.Touch(lead.ID, u.now()); err != nil {
		log.Printf("[Reminder] Tenant %s: failed to touch lead %s: %v", t.ID, lead.ID, err)
	}

	providerID, err := u.sendWithRetry(ctx, t, transport, msg, "", "", "")
	if err != nil {
		msg.SentAt = nil
		if uerr := u.messages.Update(msg); uerr != nil {
			log.Printf("[Reminder] Tenant %s: failed to revert reminder %s: %v", t.ID, msg.ID, uerr)
		}
		u.recordMailboxFailure(t)
		return fmt.Errorf("send: %w", err)
	}
	msg.ProviderMessageID = providerID
	if err := u.messages.Update(msg); err != nil {
		return err
	}
	if err := u.tenants.ResetMailboxFailures(t.ID); err != nil {
		log.Printf("[Reminder] Tenant %s: failed to reset failure counter: %v", t.ID, err)
	}
	log.Printf("[Reminder] Tenant %s: reminded lead %s about %s", t.ID, lead.ID, when)
	return nil
}
