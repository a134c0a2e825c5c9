package usecase

import (
	"context"
	"testing"

	messagedomain "fieldcrm-backend/internal/message/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingDraftFixture() *messagedomain.Message {
	return &messagedomain.Message{
		ID:               "d1",
		TenantID:         "t1",
		LeadID:           "l1",
		Direction:        messagedomain.DirectionOutbound,
		Subject:          "Re: Fence repair",
		Content:          "Happy to help.",
		ToAddress:        "jane@example.com",
		ThreadID:         "th1",
		IsAIGenerated:    true,
		AIApprovalNeeded: true,
	}
}

func TestApproveDraftSends(t *testing.T) {
	te := newTestEngine()
	draft := pendingDraftFixture()
	te.messages.On("FindByID", "d1").Return(draft, nil)
	te.tenants.On("FindByID", "t1").Return(testTenant(), nil)
	te.transport.On("Send", mock.Anything, mock.Anything, "jane@example.com", "Re: Fence repair", "Happy to help.", "th1", "", "").
		Return("sent-9", nil)
	te.messages.On("Update", draft).Return(nil)
	te.tenants.On("ResetMailboxFailures", "t1").Return(nil)

	msg, err := te.ApproveDraft(context.Background(), "t1", "d1")
	require.NoError(t, err)

	require.NotNil(t, msg.SentAt)
	assert.False(t, msg.AIApprovalNeeded)
	assert.Equal(t, "sent-9", msg.ProviderMessageID)
}

func TestApproveDraftThreadsReply(t *testing.T) {
	te := newTestEngine()
	draft := pendingDraftFixture()
	origID := "m0"
	draft.InReplyToID = &origID
	orig := &messagedomain.Message{
		ID:        "m0",
		TenantID:  "t1",
		Direction: messagedomain.DirectionInbound,
		ThreadID:  "th-orig",
		MessageID: "<orig@mail.example.com>",
	}

	te.messages.On("FindByID", "d1").Return(draft, nil)
	te.messages.On("FindByID", "m0").Return(orig, nil)
	te.tenants.On("FindByID", "t1").Return(testTenant(), nil)
	te.transport.On("Send", mock.Anything, mock.Anything, "jane@example.com", "Re: Fence repair", "Happy to help.",
		"th-orig", "<orig@mail.example.com>", "<orig@mail.example.com>").
		Return("sent-10", nil)
	te.messages.On("Update", draft).Return(nil)
	te.tenants.On("ResetMailboxFailures", "t1").Return(nil)

	msg, err := te.ApproveDraft(context.Background(), "t1", "d1")
	require.NoError(t, err)

	// The approved reply carries the same thread id and In-Reply-To the
	// auto-send path would have used.
	require.NotNil(t, msg.SentAt)
	te.transport.AssertExpectations(t)
}

func TestApproveDraftWrongTenant(t *testing.T) {
	te := newTestEngine()
	draft := pendingDraftFixture()
	te.messages.On("FindByID", "d1").Return(draft, nil)

	_, err := te.ApproveDraft(context.Background(), "other-tenant", "d1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	te.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveDraftAlreadySent(t *testing.T) {
	te := newTestEngine()
	draft := pendingDraftFixture()
	sentAt := testNow
	draft.SentAt = &sentAt
	draft.AIApprovalNeeded = false
	te.messages.On("FindByID", "d1").Return(draft, nil)

	_, err := te.ApproveDraft(context.Background(), "t1", "d1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRejectDraftDeletes(t *testing.T) {
	te := newTestEngine()
	te.messages.On("FindByID", "d1").Return(pendingDraftFixture(), nil)
	te.messages.On("Delete", "d1").Return(nil)

	require.NoError(t, te.RejectDraft("t1", "d1"))
	te.messages.AssertCalled(t, "Delete", "d1")
}

func TestEditDraft(t *testing.T) {
	te := newTestEngine()
	draft := pendingDraftFixture()
	te.messages.On("FindByID", "d1").Return(draft, nil)
	te.messages.On("Update", draft).Return(nil)

	msg, err := te.EditDraft("t1", "d1", "New subject", "Rewritten body")
	require.NoError(t, err)

	assert.Equal(t, "New subject", msg.Subject)
	assert.Equal(t, "Rewritten body", msg.Content)
	require.NotNil(t, msg.EditedAt)
	assert.True(t, msg.Pending(), "editing keeps the draft pending")
}
