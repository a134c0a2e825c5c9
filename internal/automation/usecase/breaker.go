package usecase

import (
	"time"

	messagedomain "fieldcrm-backend/internal/message/domain"
)

const (
	breakerWindow       = time.Hour
	breakerMaxOutbound  = 3
	breakerPatternDepth = 4
)

// breakerTripped guards a lead's thread against runaway reply loops,
// typically two automated mailboxes answering each other. It trips when
// the recent window holds too many outbound messages, or when the
// newest messages strictly alternate direction.
func (u *AutomationUsecase) breakerTripped(leadID string) (bool, error) {
	msgs, err := u.messages.RecentWindow(leadID, u.now().Add(-breakerWindow))
	if err != nil {
		return false, err
	}

	outbound := 0
	for _, m := range msgs {
		if m.Direction == messagedomain.DirectionOutbound {
			outbound++
		}
	}
	if outbound >= breakerMaxOutbound {
		return true, nil
	}

	if len(msgs) >= breakerPatternDepth {
		alternating := true
		for i := 0; i < breakerPatternDepth-1; i++ {
			if msgs[i].Direction == msgs[i+1].Direction {
				alternating = false
				break
			}
		}
		if alternating {
			return true, nil
		}
	}
	return false, nil
}
