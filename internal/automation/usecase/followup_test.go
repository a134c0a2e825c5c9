package usecase

import (
	"context"
	"testing"
	"time"

	leaddomain "fieldcrm-backend/internal/lead/domain"
	messagedomain "fieldcrm-backend/internal/message/domain"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
	"fieldcrm-backend/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFollowUpDraftsNudge(t *testing.T) {
	te := newTestEngine()
	lead := &leaddomain.Lead{ID: "l1", TenantID: "t1", Email: "jane@example.com", Stage: leaddomain.StageContacted}
	last := &messagedomain.Message{
		ID:        "m-last",
		LeadID:    "l1",
		Direction: messagedomain.DirectionInbound,
		ThreadID:  "th1",
		CreatedAt: testNow.AddDate(0, 0, -5),
	}

	te.tenants.On("FindActive").Return([]*tenantdomain.Tenant{testTenant()}, nil)
	te.settings.On("GetByTenant", "t1").Return(testSettings(), nil)
	te.leads.On("FindOpen", "t1").Return([]*leaddomain.Lead{lead}, nil)
	te.messages.On("LastForLead", "l1").Return(last, nil)
	te.messages.On("HasFollowUpTo", "m-last").Return(false, nil)
	te.messages.On("History", "l1", mock.Anything).Return(nil, nil)
	te.provider.On("GenerateReply", mock.Anything, mock.MatchedBy(func(rc *ai.ReplyContext) bool {
		return rc.FollowUp
	})).Return(&ai.Reply{Subject: "", Body: "Just checking in."}, nil)
	te.tenants.On("IncrementAIUsage", "t1").Return(nil)
	te.transport.On("Send", mock.Anything, mock.Anything, "jane@example.com", mock.Anything, mock.Anything, "th1", "", "").Return("sent-2", nil)
	te.messages.On("Update", mock.Anything).Return(nil)
	te.tenants.On("ResetMailboxFailures", "t1").Return(nil)

	te.RunFollowUps(context.Background())

	out := te.createdOutbound()
	require.Len(t, out, 1)
	assert.Equal(t, messagedomain.CategoryFollowUp, out[0].Category)
	require.NotNil(t, out[0].InReplyToID)
	assert.Equal(t, "m-last", *out[0].InReplyToID)
	assert.Equal(t, "Following up", out[0].Subject)
	require.NotNil(t, out[0].SentAt, "auto-approve inside hours sends immediately")
}

func TestFollowUpSkipsAnsweredThread(t *testing.T) {
	te := newTestEngine()
	lead := &leaddomain.Lead{ID: "l1", TenantID: "t1", Email: "jane@example.com"}
	last := &messagedomain.Message{
		ID:        "m-last",
		Direction: messagedomain.DirectionOutbound,
		CreatedAt: testNow.AddDate(0, 0, -5),
	}
	te.messages.On("LastForLead", "l1").Return(last, nil)

	err := te.followUpLead(context.Background(), testTenant(), testSettings(), te.transport, lead, testNow.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Empty(t, *te.created, "we spoke last, nothing to nudge")
}

func TestFollowUpSkipsRecentMessage(t *testing.T) {
	te := newTestEngine()
	lead := &leaddomain.Lead{ID: "l1", TenantID: "t1", Email: "jane@example.com"}
	last := &messagedomain.Message{
		ID:        "m-last",
		Direction: messagedomain.DirectionInbound,
		CreatedAt: testNow.Add(-24 * time.Hour),
	}
	te.messages.On("LastForLead", "l1").Return(last, nil)

	err := te.followUpLead(context.Background(), testTenant(), testSettings(), te.transport, lead, testNow.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Empty(t, *te.created)
	te.provider.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything)
}

func TestFollowUpIsIdempotent(t *testing.T) {
	te := newTestEngine()
	lead := &leaddomain.Lead{ID: "l1", TenantID: "t1", Email: "jane@example.com"}
	last := &messagedomain.Message{
		ID:        "m-last",
		Direction: messagedomain.DirectionInbound,
		CreatedAt: testNow.AddDate(0, 0, -5),
	}
	te.messages.On("LastForLead", "l1").Return(last, nil)
	te.messages.On("HasFollowUpTo", "m-last").Return(true, nil)

	err := te.followUpLead(context.Background(), testTenant(), testSettings(), te.transport, lead, testNow.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Empty(t, *te.created, "one nudge per unanswered message")
	te.provider.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything)
}

func TestFollowUpSkipsWhenQuotaExhausted(t *testing.T) {
	te := newTestEngine()
	lead := &leaddomain.Lead{ID: "l1", TenantID: "t1", Email: "jane@example.com"}
	last := &messagedomain.Message{
		ID:        "m-last",
		Direction: messagedomain.DirectionInbound,
		CreatedAt: testNow.AddDate(0, 0, -5),
	}
	te.messages.On("LastForLead", "l1").Return(last, nil)
	te.messages.On("HasFollowUpTo", "m-last").Return(false, nil)

	limit := 10
	tenant := testTenant()
	tenant.AIUsageCount = 10
	tenant.AIUsageLimit = &limit

	err := te.followUpLead(context.Background(), tenant, testSettings(), te.transport, lead, testNow.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Empty(t, *te.created, "follow-ups wait for quota, no notice is stored")
	te.provider.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything)
}
