package usecase

import (
	"testing"
	"time"

	settingsdomain "fieldcrm-backend/internal/settings/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineAt(t time.Time) *AutomationUsecase {
	return &AutomationUsecase{now: func() time.Time { return t }}
}

func TestShouldAutoSend(t *testing.T) {
	// 2026-03-02 is a Monday.
	insideHours := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	afterHours := time.Date(2026, time.March, 2, 22, 0, 0, 0, time.UTC)
	weekend := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)

	base := func() *settingsdomain.AutomationSettings {
		return &settingsdomain.AutomationSettings{
			AutoApprove: true,
			WorkStart:   "08:00",
			WorkEnd:     "18:00",
			WorkDays:    "1,2,3,4,5",
		}
	}

	t.Run("auto-approve inside hours", func(t *testing.T) {
		assert.True(t, engineAt(insideHours).shouldAutoSend(base(), false))
	})

	t.Run("auto-approve disabled", func(t *testing.T) {
		set := base()
		set.AutoApprove = false
		assert.False(t, engineAt(insideHours).shouldAutoSend(set, false))
	})

	t.Run("outside working hours", func(t *testing.T) {
		assert.False(t, engineAt(afterHours).shouldAutoSend(base(), false))
	})

	t.Run("weekend", func(t *testing.T) {
		assert.False(t, engineAt(weekend).shouldAutoSend(base(), false))
	})

	t.Run("new contact held when policy requires", func(t *testing.T) {
		set := base()
		set.RequireApprovalForNew = true
		assert.False(t, engineAt(insideHours).shouldAutoSend(set, true))
		assert.True(t, engineAt(insideHours).shouldAutoSend(set, false), "known contact unaffected")
	})

	t.Run("new contact sent when policy allows", func(t *testing.T) {
		set := base()
		set.RequireApprovalForNew = false
		assert.True(t, engineAt(insideHours).shouldAutoSend(set, true))
	})
}

func TestAIQuotaAvailable(t *testing.T) {
	limit := 50
	now := time.Date(2026, time.August, 10, 9, 0, 0, 0, time.UTC)

	t.Run("under the limit", func(t *testing.T) {
		u := engineAt(now)
		tenant := &tenantdomain.Tenant{ID: "t1", AIUsageCount: 10, AIUsageLimit: &limit, AIUsageResetAt: now}
		ok, err := u.aiQuotaAvailable(tenant)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("at the limit", func(t *testing.T) {
		u := engineAt(now)
		tenant := &tenantdomain.Tenant{ID: "t1", AIUsageCount: 50, AIUsageLimit: &limit, AIUsageResetAt: now}
		ok, err := u.aiQuotaAvailable(tenant)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil limit is unlimited", func(t *testing.T) {
		u := engineAt(now)
		tenant := &tenantdomain.Tenant{ID: "t1", AIUsageCount: 100000, AIUsageResetAt: now}
		ok, err := u.aiQuotaAvailable(tenant)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("month rollover resets the counter", func(t *testing.T) {
		tenants := new(mockTenantRepo)
		tenants.On("ResetAIUsage", "t1", now).Return(nil)

		u := &AutomationUsecase{tenants: tenants, now: func() time.Time { return now }}
		tenant := &tenantdomain.Tenant{
			ID:             "t1",
			AIUsageCount:   50,
			AIUsageLimit:   &limit,
			AIUsageResetAt: time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		}
		ok, err := u.aiQuotaAvailable(tenant)
		require.NoError(t, err)
		assert.True(t, ok, "exhausted last month, fresh this month")
		assert.Equal(t, 0, tenant.AIUsageCount)
		tenants.AssertExpectations(t)
	})
}
