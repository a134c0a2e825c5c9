package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRemindTenantSendsReminder(t *testing.T) {
	te := newTestEngine()
	appt := testNow.Add(24 * time.Hour)
	lead := &leaddomain.Lead{
		ID:            "l1",
		TenantID:      "t1",
		Email:         "jane@example.com",
		Name:          "Jane",
		Stage:         leaddomain.StageScheduled,
		AppointmentAt: &appt,
		UpdatedAt:     testNow.Add(-48 * time.Hour),
	}

	te.settings.On("GetByTenant", "t1").Return(testSettings(), nil)
	te.leads.On("FindScheduledBetween", "t1", testNow.Add(23*time.Hour), testNow.Add(25*time.Hour)).
		Return([]*leaddomain.Lead{lead}, nil)
	te.transport.On("Send", mock.Anything, mock.Anything, "jane@example.com", mock.Anything, mock.Anything, "", "", "").
		Return("sent-3", nil)
	te.messages.On("Update", mock.Anything).Return(nil)
	te.tenants.On("ResetMailboxFailures", "t1").Return(nil)
	te.leads.On("Touch", "l1", testNow).Return(nil)

	te.remindTenant(context.Background(), testTenant())

	out := te.createdOutbound()
	require.Len(t, out, 1)
	assert.Equal(t, messagedomain.CategoryReminder, out[0].Category)
	require.NotNil(t, out[0].SentAt, "reminders go straight out")
	assert.Equal(t, "sent-3", out[0].ProviderMessageID)
	assert.Contains(t, out[0].Content, "Jane")
	te.leads.AssertCalled(t, "Touch", "l1", testNow)
}

func TestRemindTenantRecordsBeforeSending(t *testing.T) {
	te := newTestEngine()
	appt := testNow.Add(24 * time.Hour)
	lead := &leaddomain.Lead{
		ID:            "l1",
		TenantID:      "t1",
		Email:         "jane@example.com",
		Stage:         leaddomain.StageScheduled,
		AppointmentAt: &appt,
		UpdatedAt:     testNow.Add(-48 * time.Hour),
	}

	te.settings.On("GetByTenant", "t1").Return(testSettings(), nil)
	te.leads.On("FindScheduledBetween", "t1", mock.Anything, mock.Anything).
		Return([]*leaddomain.Lead{lead}, nil)
	te.leads.On("Touch", "l1", testNow).Return(nil)
	te.transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, "", "", "").
		Return("", errors.New("smtp: connection reset"))
	te.messages.On("Update", mock.Anything).Return(nil)
	te.tenants.On("RecordMailboxFailure", "t1").Return(1, nil)

	te.remindTenant(context.Background(), testTenant())

	// The record and the dedup touch exist even though delivery failed,
	// so the next sweep cannot double-deliver.
	out := te.createdOutbound()
	require.Len(t, out, 1)
	assert.Nil(t, out[0].SentAt, "failed delivery is reverted to unsent")
	te.leads.AssertCalled(t, "Touch", "l1", testNow)
}

func TestRemindTenantSkipsRecentlyTouchedLead(t *testing.T) {
	te := newTestEngine()
	appt := testNow.Add(24 * time.Hour)
	lead := &leaddomain.Lead{
		ID:            "l1",
		TenantID:      "t1",
		Email:         "jane@example.com",
		AppointmentAt: &appt,
		UpdatedAt:     testNow.Add(-10 * time.Minute),
	}

	te.settings.On("GetByTenant", "t1").Return(testSettings(), nil)
	te.leads.On("FindScheduledBetween", "t1", mock.Anything, mock.Anything).
		Return([]*leaddomain.Lead{lead}, nil)

	te.remindTenant(context.Background(), testTenant())

	assert.Empty(t, *te.created, "reminder already sent within the hour")
	te.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
