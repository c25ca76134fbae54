package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	sent    []int64
	failFor map[int64]bool
}

func (s *recordingSender) Notify(ctx context.Context, userID int64, text string) error {
	if s.failFor[userID] {
		return errors.New("blocked")
	}
	s.sent = append(s.sent, userID)
	return nil
}

func TestSendCountsFailures(t *testing.T) {
	sender := &recordingSender{failFor: map[int64]bool{2: true}}
	svc := NewService(sender)
	svc.delay = 0

	success, failed := svc.Send(context.Background(), []int64{1, 2, 3}, "hi")

	assert.Equal(t, 2, success)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []int64{1, 3}, sender.sent)
}

func TestSendStopsOnCancel(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender)
	svc.delay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	success, failed := svc.Send(ctx, []int64{1, 2, 3}, "hi")

	assert.Equal(t, 0, success)
	assert.Equal(t, 0, failed)
}
