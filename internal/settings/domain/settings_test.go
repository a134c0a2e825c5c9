package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ts builds a UTC time on the given 2026 date.
func ts(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2026, month, day, hour, minute, 0, 0, time.UTC)
}

func TestInWorkingHours(t *testing.T) {
	weekday := &AutomationSettings{
		WorkStart: "08:00",
		WorkEnd:   "18:00",
		WorkDays:  "1,2,3,4,5",
	}

	// 2026-03-02 is a Monday.
	assert.True(t, weekday.InWorkingHours(ts(time.March, 2, 9, 0)))
	assert.True(t, weekday.InWorkingHours(ts(time.March, 2, 8, 0)), "start is inclusive")
	assert.False(t, weekday.InWorkingHours(ts(time.March, 2, 18, 0)), "end is exclusive")
	assert.False(t, weekday.InWorkingHours(ts(time.March, 2, 7, 59)))
	assert.False(t, weekday.InWorkingHours(ts(time.March, 1, 9, 0)), "Sunday not a work day")
	assert.False(t, weekday.InWorkingHours(ts(time.March, 7, 9, 0)), "Saturday not a work day")
}

func TestInWorkingHoursOvernight(t *testing.T) {
	night := &AutomationSettings{
		WorkStart: "22:00",
		WorkEnd:   "06:00",
		WorkDays:  "0,1,2,3,4,5,6",
	}

	assert.True(t, night.InWorkingHours(ts(time.March, 2, 23, 30)))
	assert.True(t, night.InWorkingHours(ts(time.March, 3, 2, 0)))
	assert.True(t, night.InWorkingHours(ts(time.March, 2, 22, 0)))
	assert.False(t, night.InWorkingHours(ts(time.March, 2, 12, 0)))
	assert.False(t, night.InWorkingHours(ts(time.March, 3, 6, 0)), "end is exclusive")
}

func TestInWorkingHoursTimezone(t *testing.T) {
	s := &AutomationSettings{
		WorkStart: "08:00",
		WorkEnd:   "18:00",
		WorkDays:  "1,2,3,4,5",
		Timezone:  "America/New_York",
	}

	// 14:00 UTC on a Monday is 09:00 or 10:00 in New York depending on
	// DST; either way inside the window.
	assert.True(t, s.InWorkingHours(ts(time.March, 2, 14, 0)))
	// 08:00 UTC is 03:00 in New York.
	assert.False(t, s.InWorkingHours(ts(time.March, 2, 8, 0)))
}

func TestInWorkingHoursBadTimezoneFallsBack(t *testing.T) {
	s := &AutomationSettings{
		WorkStart: "08:00",
		WorkEnd:   "18:00",
		WorkDays:  "1,2,3,4,5",
		Timezone:  "Mars/Olympus_Mons",
	}
	// Unknown zone: the time is evaluated as given.
	assert.True(t, s.InWorkingHours(ts(time.March, 2, 9, 0)))
}

func TestNormalize(t *testing.T) {
	s := &AutomationSettings{
		WorkStart:    "25:00",
		WorkEnd:      "not a time",
		WorkDays:     "9,abc",
		FollowUpDays: -1,
		QuoteAutoMin: 500,
		QuoteAutoMax: 100,
	}
	s.Normalize()

	assert.Equal(t, "08:00", s.WorkStart)
	assert.Equal(t, "18:00", s.WorkEnd)
	assert.Equal(t, "1,2,3,4,5", s.WorkDays)
	assert.Equal(t, "lead", s.DefaultCategory)
	assert.Equal(t, 3, s.FollowUpDays)
	assert.Equal(t, 24, s.ReminderLeadHours)
	assert.Equal(t, 500.0, s.QuoteAutoMax, "max clamped up to min")
}

func TestDefaults(t *testing.T) {
	s := Defaults("tenant-1")

	assert.Equal(t, "tenant-1", s.TenantID)
	assert.True(t, s.AutoRespond)
	assert.False(t, s.AutoApprove, "auto-send is opt-in")
	assert.True(t, s.RequireApprovalForNew)
	assert.Equal(t, "08:00", s.WorkStart)
	assert.Equal(t, "18:00", s.WorkEnd)
	assert.Equal(t, 3, s.FollowUpDays)
	assert.Equal(t, 24, s.ReminderLeadHours)
}
