package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"
	quotedomain "fieldcrm-backend/internal/quote/domain"
	settingsdomain "fieldcrm-backend/internal/settings/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
	"fieldcrm-backend/pkg/ai"
	"fieldcrm-backend/pkg/gcal"

	"github.com/google/uuid"
)

const (
	replyHistoryLimit   = 20
	slotDurationMinutes = 60
	slotDaysAhead       = 14
	maxOfferedSlots     = 5
)

var bookingKeywords = []string{
	"appointment",
	"book",
	"booking",
	"schedule",
	"come out",
	"come by",
	"visit",
	"available",
	"availability",
	"when can you",
	"stop by",
	"estimate in person",
}

var quoteKeywords = []string{
	"quote",
	"estimate",
	"pricing",
	"price",
	"how much",
	"cost",
	"ballpark",
	"rates",
}

var confirmationPhrases = []string{
	"works for me",
	"works great",
	"that works",
	"sounds good",
	"sounds great",
	"let's do",
	"lets do",
	"i'll take",
	"ill take",
	"confirm",
	"book me",
	"see you",
	"perfect",
	"yes to",
	"i can do",
}

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var clockPattern = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)

var measurementPattern = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:sq\.?\s*ft|square\s+(?:feet|foot|met(?:er|re)s?)|m2|m²|sqm|ft|feet|ac(?:re|res)|rooms?|windows?|doors?|panels?|stor(?:y|ies)|floors?)\b`)

// inboundAnalysis is what the engine read out of a customer message
// beyond the AI classification: booking and quote intent, plus which
// offered slot (if any) the customer just confirmed.
type inboundAnalysis struct {
	BookingRequested bool
	QuoteRequested   bool
	ConfirmedSlot    *gcal.Slot
}

// buildReplyContext assembles the generation context: business
// identity, conversation transcript, and, for booking inquiries with a
// connected calendar, concrete availability to offer.
func (u *AutomationUsecase) buildReplyContext(ctx context.Context, t *tenantdomain.Tenant, lead *leaddomain.Lead, body string, followUp bool) (*ai.ReplyContext, []gcal.Slot, error) {
	transcript, err := u.transcriptFor(lead.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load history: %w", err)
	}

	var slots []gcal.Slot
	if !followUp && t.CalendarConnected && containsAny(strings.ToLower(body), bookingKeywords) {
		s, err := u.calendar.ListAvailableSlots(ctx, &t.Mailbox, t.CalendarID, slotDurationMinutes, slotDaysAhead, maxOfferedSlots)
		if err != nil {
			// Availability is an enhancement; the reply goes out without it.
			log.Printf("[Automation] Tenant %s: slot lookup failed: %v", t.ID, err)
		} else {
			slots = s
		}
	}

	return &ai.ReplyContext{
		LeadName:        lead.Name,
		LeadEmail:       lead.Email,
		ServiceType:     lead.ServiceType,
		Category:        lead.Category,
		BusinessName:    t.Name,
		BusinessType:    t.BusinessType,
		BusinessContext: t.BusinessContext,
		Transcript:      transcript,
		AvailableSlots:  slots,
		Inbound:         body,
		FollowUp:        followUp,
	}, slots, nil
}

// transcriptFor returns the lead's recent conversation, oldest first,
// role-tagged for the prompt.
func (u *AutomationUsecase) transcriptFor(leadID string) ([]ai.TranscriptEntry, error) {
	history, err := u.messages.History(leadID, replyHistoryLimit)
	if err != nil {
		return nil, err
	}
	transcript := make([]ai.TranscriptEntry, 0, len(history))
	for _, m := range history {
		role := "customer"
		if m.Direction == messagedomain.DirectionOutbound {
			role = "assistant"
		}
		transcript = append(transcript, ai.TranscriptEntry{Role: role, Content: m.Content})
	}
	return transcript, nil
}

// analyzeInbound detects booking and quote intent by keyword and checks
// whether the message confirms one of the slots previously offered. A
// confirmation needs a confirming phrase plus a concrete day or time
// reference that matches a slot; "Tuesday works" against a Monday slot
// matches nothing.
func analyzeInbound(text string, slots []gcal.Slot) inboundAnalysis {
	lower := strings.ToLower(text)
	a := inboundAnalysis{
		BookingRequested: containsAny(lower, bookingKeywords),
		QuoteRequested:   containsAny(lower, quoteKeywords),
	}
	if len(slots) > 0 && containsAny(lower, confirmationPhrases) && hasDateTimeToken(lower) {
		a.ConfirmedSlot = matchSlot(lower, slots)
	}
	return a
}

func hasDateTimeToken(lower string) bool {
	if clockPattern.MatchString(lower) {
		return true
	}
	for _, day := range weekdayNames {
		if strings.Contains(lower, day) {
			return true
		}
	}
	for _, month := range monthNames {
		if strings.Contains(lower, month) {
			return true
		}
	}
	return false
}

func matchSlot(lower string, slots []gcal.Slot) *gcal.Slot {
	for i := range slots {
		if slotMatchesText(lower, slots[i]) {
			return &slots[i]
		}
	}
	return nil
}

// slotMatchesText requires both a day match (weekday name, or month
// plus day-of-month) and a time match against any common rendering of
// the slot's start time.
func slotMatchesText(lower string, s gcal.Slot) bool {
	weekday := strings.ToLower(s.Start.Format("Monday"))
	month := strings.ToLower(s.Start.Format("January"))
	day := s.Start.Format("2")

	dayMatch := strings.Contains(lower, weekday) ||
		(strings.Contains(lower, month) && containsNumberWord(lower, day))
	if !dayMatch {
		return false
	}

	for _, tok := range timeTokens(s.Start) {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// timeTokens lists the renderings customers actually type for a slot
// start time, e.g. 10:00 -> "10:00", "10:00 am", "at 10", "10 am", "10am".
func timeTokens(t time.Time) []string {
	hour := t.Format("3")
	ampm := strings.ToLower(t.Format("PM"))
	return []string{
		t.Format("15:04"),
		strings.ToLower(t.Format("3:04 PM")),
		"at " + hour,
		hour + " " + ampm,
		hour + ampm,
	}
}

// containsNumberWord reports whether lower contains num as a standalone
// number, not as part of a longer one ("1" must not match "10").
func containsNumberWord(lower, num string) bool {
	for idx := strings.Index(lower, num); idx != -1; {
		before := idx == 0 || !isDigit(lower[idx-1])
		afterIdx := idx + len(num)
		after := afterIdx >= len(lower) || !isDigit(lower[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(lower[idx+1:], num)
		if next == -1 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// applyAnalysis turns detected intent into pipeline effects: a
// confirmed slot books a calendar event and schedules the lead; a quote
// request either auto-generates a quote or escalates for manual
// quoting. Stage moves are forward-only by construction.
func (u *AutomationUsecase) applyAnalysis(ctx context.Context, t *tenantdomain.Tenant, set *settingsdomain.AutomationSettings, lead *leaddomain.Lead, inbound *messagedomain.InboundEmail, a inboundAnalysis) error {
	if a.ConfirmedSlot != nil {
		slot := a.ConfirmedSlot
		service := lead.ServiceType
		if service == "" {
			service = "Appointment"
		}
		who := lead.Name
		if who == "" {
			who = lead.Email
		}
		summary := fmt.Sprintf("%s - %s", service, who)
		description := fmt.Sprintf("Booked automatically from email thread with %s.", lead.Email)
		if err := u.calendar.CreateEvent(ctx, &t.Mailbox, t.CalendarID, summary, description, slot.Start, slot.End, lead.Email); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		start := slot.Start
		lead.AppointmentAt = &start
		lead.AppointmentNotes = "Confirmed by email: " + slot.Formatted
		lead.AdvanceStage(leaddomain.StageScheduled)
		log.Printf("[Automation] Tenant %s: booked %s for lead %s", t.ID, slot.Formatted, lead.ID)
		return nil
	}

	if a.QuoteRequested {
		lead.EscalatePriority(leaddomain.PriorityHigh)
		if set.QuoteAutoGenerate && hasQuoteSignal(inbound.Body, lead) {
			if err := u.generateQuote(ctx, t, set, lead, inbound.Body); err != nil {
				lead.AdvanceStage(leaddomain.StageContacted)
				return fmt.Errorf("generate quote: %w", err)
			}
			lead.AdvanceStage(leaddomain.StageQuoted)
		} else {
			// Not enough detail to quote; a human picks it up.
			lead.AdvanceStage(leaddomain.StageContacted)
		}
	}
	return nil
}

// hasQuoteSignal reports whether the thread carries enough concrete
// detail (a measurement, or a known service and address) to price from.
func hasQuoteSignal(body string, lead *leaddomain.Lead) bool {
	if measurementPattern.MatchString(body) {
		return true
	}
	return lead.ServiceType != "" && lead.Address != ""
}

func (u *AutomationUsecase) generateQuote(ctx context.Context, t *tenantdomain.Tenant, set *settingsdomain.AutomationSettings, lead *leaddomain.Lead, body string) error {
	history, err := u.transcriptFor(lead.ID)
	if err != nil {
		return err
	}
	draft, err := u.ai.GenerateQuote(ctx, body, t.BusinessType, history)
	if err != nil {
		return err
	}
	if draft == nil || len(draft.Items) == 0 {
		return fmt.Errorf("empty quote draft")
	}

	quote := &quotedomain.Quote{
		ID:       uuid.NewString(),
		TenantID: t.ID,
		LeadID:   lead.ID,
		Title:    draft.Title,
		Status:   quotedomain.QuoteStatusDraft,
		TaxRate:  draft.TaxRate,
	}
	for _, it := range draft.Items {
		quote.Items = append(quote.Items, quotedomain.QuoteItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	quote.ComputeTotal()
	quote.AutoApproved = set.QuoteAutoMax > 0 &&
		quote.Total >= set.QuoteAutoMin && quote.Total <= set.QuoteAutoMax

	if err := u.quotes.Create(quote); err != nil {
		return err
	}
	log.Printf("[Automation] Tenant %s: generated quote %s for lead %s (total %.2f)", t.ID, quote.ID, lead.ID, quote.Total)
	return nil
}
