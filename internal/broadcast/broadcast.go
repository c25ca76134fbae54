// Package broadcast fans a message out to every known user at a pace that
// stays under the Bot API flood limits.
package broadcast

import (
	"context"
	"log"
	"time"
)

const sendDelay = 50 * time.Millisecond

// Sender is the one Bot API call broadcast needs.
type Sender interface {
	Notify(ctx context.Context, userID int64, text string) error
}

type Service struct {
	sender Sender
	delay  time.Duration
}

func NewService(sender Sender) *Service {
	return &Service{
		sender: sender,
		delay:  sendDelay,
	}
}

// Send delivers text to each user in turn. Blocked bots and dead chats are
// counted and skipped; cancellation stops the fan-out early.
func (s *Service) Send(ctx context.Context, userIDs []int64, text string) (success, failed int) {
	for _, id := range userIDs {
		select {
		case <-ctx.Done():
			return success, failed
		default:
		}

		if err := s.sender.Notify(ctx, id, text); err != nil {
			log.Printf("Broadcast: failed to send to user=%d: %v", id, err)
			failed++
		} else {
			success++
		}

		time.Sleep(s.delay)
	}
	return success, failed
}
