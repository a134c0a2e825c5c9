package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuotaExhausted(t *testing.T) {
	limit := 50

	unlimited := &Tenant{AIUsageCount: 10000}
	assert.False(t, unlimited.QuotaExhausted(), "nil limit means unlimited")

	under := &Tenant{AIUsageCount: 49, AIUsageLimit: &limit}
	assert.False(t, under.QuotaExhausted())

	at := &Tenant{AIUsageCount: 50, AIUsageLimit: &limit}
	assert.True(t, at.QuotaExhausted())
}

func TestNeedsUsageReset(t *testing.T) {
	tenant := &Tenant{AIUsageResetAt: time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)}

	assert.False(t, tenant.NeedsUsageReset(time.Date(2026, time.July, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, tenant.NeedsUsageReset(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, tenant.NeedsUsageReset(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)), "year rollover")
	assert.False(t, tenant.NeedsUsageReset(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)), "clock skew backwards never resets")
}
