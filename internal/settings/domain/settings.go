package domain

import (
	"strconv"
	"strings"
	"time"
)

// AutomationSettings is the per-tenant configuration bag driving the
// inbound automation engine. It is loaded fresh at the start of each
// tenant cycle and never mutated by the engine itself; the settings
// API is the only writer.
type AutomationSettings struct {
	ID       string `json:"id" gorm:"primaryKey"`
	TenantID string `json:"tenant_id" gorm:"uniqueIndex;not null"`

	AutoRespond    bool   `json:"auto_respond"`
	AutoApprove    bool   `json:"auto_approve"`
	AutoCategorize bool   `json:"auto_categorize"`
	DefaultCategory string `json:"default_category"`

	SpamFilter           bool `json:"spam_filter"`
	MarketingAutoArchive bool `json:"marketing_auto_archive"`

	// Require a human to approve replies to first-time senders.
	RequireApprovalForNew bool `json:"require_approval_for_new"`

	// Working hours window. WorkEnd < WorkStart means an overnight
	// shift wrapping past midnight. WorkDays is a comma list of
	// time.Weekday numbers (0 = Sunday).
	WorkStart string `json:"work_start"`
	WorkEnd   string `json:"work_end"`
	WorkDays  string `json:"work_days"`
	Timezone  string `json:"timezone"`

	FollowUpDays int `json:"follow_up_days"`

	QuoteAutoGenerate bool    `json:"quote_auto_generate"`
	QuoteAutoMin      float64 `json:"quote_auto_min"`
	QuoteAutoMax      float64 `json:"quote_auto_max"`

	ReminderLeadHours int `json:"reminder_lead_hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Defaults returns the settings applied to a tenant that has never
// saved any: conservative automation (respond but hold for approval).
func Defaults(tenantID string) *AutomationSettings {
	return &AutomationSettings{
		TenantID:              tenantID,
		AutoRespond:           true,
		AutoApprove:           false,
		AutoCategorize:        true,
		DefaultCategory:       "lead",
		SpamFilter:            true,
		MarketingAutoArchive:  true,
		RequireApprovalForNew: true,
		WorkStart:             "08:00",
		WorkEnd:               "18:00",
		WorkDays:              "1,2,3,4,5",
		FollowUpDays:          3,
		ReminderLeadHours:     24,
	}
}

// Normalize fills malformed or missing fields with safe defaults so a
// bad settings row never breaks a cycle mid-pipeline.
func (s *AutomationSettings) Normalize() {
	if _, ok := parseClock(s.WorkStart); !ok {
		s.WorkStart = "08:00"
	}
	if _, ok := parseClock(s.WorkEnd); !ok {
		s.WorkEnd = "18:00"
	}
	if len(s.workDaySet()) == 0 {
		s.WorkDays = "1,2,3,4,5"
	}
	if s.DefaultCategory == "" {
		s.DefaultCategory = "lead"
	}
	if s.FollowUpDays <= 0 {
		s.FollowUpDays = 3
	}
	if s.ReminderLeadHours <= 0 {
		s.ReminderLeadHours = 24
	}
	if s.QuoteAutoMax < s.QuoteAutoMin {
		s.QuoteAutoMax = s.QuoteAutoMin
	}
}

// InWorkingHours reports whether t falls inside the tenant's working
// window: the weekday must be whitelisted and the time of day must sit
// in [WorkStart, WorkEnd), wrapping past midnight when WorkEnd is
// earlier than WorkStart.
func (s *AutomationSettings) InWorkingHours(t time.Time) bool {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			t = t.In(loc)
		}
	}

	if !s.workDaySet()[t.Weekday()] {
		return false
	}

	start, ok := parseClock(s.WorkStart)
	if !ok {
		start = 8 * 60
	}
	end, ok := parseClock(s.WorkEnd)
	if !ok {
		end = 18 * 60
	}
	minute := t.Hour()*60 + t.Minute()

	if start <= end {
		return minute >= start && minute < end
	}
	// Overnight shift, e.g. 22:00-06:00.
	return minute >= start || minute < end
}

func (s *AutomationSettings) workDaySet() map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s.WorkDays, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days[time.Weekday(n)] = true
	}
	return days
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(v string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
