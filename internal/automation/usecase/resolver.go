package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fieldcrm-backend/internal/automation/filter"
	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"
	settingsdomain "fieldcrm-backend/internal/settings/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
	"fieldcrm-backend/pkg/ai"
)

var urgencyKeywords = []string{
	"urgent",
	"asap",
	"emergency",
	"immediately",
	"right away",
	"as soon as possible",
	"leaking",
	"flooding",
	"no heat",
	"no power",
}

var highValueKeywords = []string{
	"commercial",
	"whole house",
	"entire house",
	"full renovation",
	"insurance claim",
	"multiple properties",
	"large project",
}

func filterVerdict(inbound *messagedomain.InboundEmail, set *settingsdomain.AutomationSettings) filter.Verdict {
	return filter.Evaluate(inbound.Headers, inbound.Subject, inbound.Body, inbound.From, set.SpamFilter, set.MarketingAutoArchive)
}

// resolveLead finds or creates the lead for the sender and folds in
// whatever the extractor learned from this message. Existing contact
// fields always win over extracted ones.
func (u *AutomationUsecase) resolveLead(ctx context.Context, t *tenantdomain.Tenant, set *settingsdomain.AutomationSettings, inbound *messagedomain.InboundEmail) (*leaddomain.Lead, bool, error) {
	email := senderAddress(inbound.From)
	if email == "" {
		return nil, false, fmt.Errorf("message has no sender address")
	}

	fields := &ai.ContactFields{}
	if extracted, err := u.ai.ExtractContactFields(ctx, inbound.Body); err != nil {
		// Extraction is best effort; the lead still gets created.
		log.Printf("[Automation] Tenant %s: contact extraction failed: %v", t.ID, err)
	} else if extracted != nil {
		fields = extracted
	}

	cls := u.classify(ctx, t, set, inbound.Body)

	lead, err := u.leads.FindByEmail(t.ID, email)
	if err != nil {
		return nil, false, err
	}
	isNew := lead == nil
	if isNew {
		lead = &leaddomain.Lead{
			TenantID: t.ID,
			Email:    email,
			Name:     displayName(inbound.From),
			Stage:    leaddomain.StageNew,
			Priority: leaddomain.PriorityMedium,
		}
	}

	lead.MergeContact(fields.Name, fields.Phone, fields.Address, fields.ServiceType)
	if cls.Category != "" {
		lead.Category = cls.Category
	}
	lead.EscalatePriority(assignPriority(inbound.Body, cls))

	if isNew {
		err = u.leads.Create(lead)
	} else {
		err = u.leads.Update(lead)
	}
	if err != nil {
		return nil, false, err
	}
	return lead, isNew, nil
}

func (u *AutomationUsecase) classify(ctx context.Context, t *tenantdomain.Tenant, set *settingsdomain.AutomationSettings, text string) *ai.Classification {
	if !set.AutoCategorize {
		return &ai.Classification{Category: set.DefaultCategory, Confidence: 1}
	}
	cls, err := u.ai.Classify(ctx, text)
	if err != nil || cls == nil {
		log.Printf("[Automation] Tenant %s: classification failed, using default category: %v", t.ID, err)
		return &ai.Classification{Category: set.DefaultCategory}
	}
	return cls
}

// assignPriority maps message content and classification to a priority.
// First matching rule wins: urgency beats value beats category.
func assignPriority(body string, cls *ai.Classification) leaddomain.Priority {
	lower := strings.ToLower(body)
	switch {
	case containsAny(lower, urgencyKeywords):
		return leaddomain.PriorityHigh
	case containsAny(lower, highValueKeywords) || cls.Intent == "quote":
		return leaddomain.PriorityHigh
	case cls.Category == "spam" || cls.Category == "general":
		return leaddomain.PriorityLow
	default:
		return leaddomain.PriorityMedium
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
