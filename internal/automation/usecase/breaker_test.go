package usecase

import (
	"testing"
	"time"

	messagedomain "fieldcrm-backend/internal/message/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newestFirst builds a RecentWindow result from direction letters,
// index 0 being the newest message.
func newestFirst(dirs ...messagedomain.Direction) []*messagedomain.Message {
	msgs := make([]*messagedomain.Message, 0, len(dirs))
	for _, d := range dirs {
		msgs = append(msgs, &messagedomain.Message{Direction: d})
	}
	return msgs
}

func TestBreakerTripped(t *testing.T) {
	in := messagedomain.DirectionInbound
	out := messagedomain.DirectionOutbound

	tests := []struct {
		name    string
		window  []*messagedomain.Message
		tripped bool
	}{
		{
			name:    "empty window",
			window:  nil,
			tripped: false,
		},
		{
			name:    "two outbound stays under the cap",
			window:  newestFirst(out, in, out, in, in),
			tripped: false,
		},
		{
			name:    "three outbound trips",
			window:  newestFirst(out, out, out),
			tripped: true,
		},
		{
			name:    "strict alternation across four trips",
			window:  newestFirst(in, out, in, out),
			tripped: true,
		},
		{
			name:    "alternation broken by a repeat",
			window:  newestFirst(in, in, out, out),
			tripped: false,
		},
		{
			name:    "only the newest four count for alternation",
			window:  newestFirst(out, in, out, in, in, in),
			tripped: true,
		},
		{
			name:    "three messages cannot trip the pattern rule",
			window:  newestFirst(in, out, in),
			tripped: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := new(mockMessageRepo)
			messages.On("RecentWindow", "lead-1", mock.AnythingOfType("time.Time")).Return(tt.window, nil)

			u := &AutomationUsecase{messages: messages, now: time.Now}
			tripped, err := u.breakerTripped("lead-1")
			require.NoError(t, err)
			assert.Equal(t, tt.tripped, tripped)
		})
	}
}

func TestBreakerWindowBounds(t *testing.T) {
	fixed := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

	messages := new(mockMessageRepo)
	messages.On("RecentWindow", "lead-1", fixed.Add(-time.Hour)).Return(nil, nil)

	u := &AutomationUsecase{messages: messages, now: func() time.Time { return fixed }}
	_, err := u.breakerTripped("lead-1")
	require.NoError(t, err)
	messages.AssertExpectations(t)
}
