// Package sweeper runs the periodic expiration pass: warn users whose
// subscription is about to lapse, then deactivate the lapsed ones and pull
// them out of the private channels.
package sweeper

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/types"
)

// Revoker removes a user from a private channel. Implemented by the
// channels service; faked in tests.
type Revoker interface {
	IsMember(ctx context.Context, chat any, userID int64) bool
	Revoke(ctx context.Context, channelID, userID int64) bool
}

// Notifier delivers a message to the user's private chat.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

type Sweeper struct {
	ledger     types.SubscriptionStore
	mods       types.ModChannelStore
	revoker    Revoker
	notifier   Notifier
	interval   time.Duration
	warnWithin time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

type Config struct {
	Interval   time.Duration
	WarnWithin time.Duration
}

func NewSweeper(ledger types.SubscriptionStore, mods types.ModChannelStore, revoker Revoker, notifier Notifier, config Config) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.WarnWithin <= 0 {
		config.WarnWithin = 24 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		ledger:     ledger,
		mods:       mods,
		revoker:    revoker,
		notifier:   notifier,
		interval:   config.Interval,
		warnWithin: config.WarnWithin,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("Sweeper started, interval=%s", s.interval)

	s.wg.Add(1)
	go s.loop()
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	log.Println("Stopping sweeper...")
	s.cancel()
	s.wg.Wait()
	log.Println("Sweeper stopped")
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(s.ctx)
		}
	}
}

// RunOnce performs one full sweep. Per-user failures are logged and skipped
// so one bad row never stalls the rest of the batch.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.warnExpiring(ctx)
	s.deactivateExpired(ctx)
}

func (s *Sweeper) warnExpiring(ctx context.Context) {
	expiring, err := s.ledger.ListExpiringSoon(s.warnWithin)
	if err != nil {
		log.Printf("Sweep: failed to list expiring subscriptions: %v", err)
		return
	}

	for _, sub := range expiring {
		if sub.Infinite() {
			continue
		}
		if err := s.notifier.Notify(ctx, sub.UserID, messages.ExpiryWarning(sub.ExpiresAt)); err != nil {
			log.Printf("Sweep: failed to warn user=%d: %v", sub.UserID, err)
		}
	}
}

func (s *Sweeper) deactivateExpired(ctx context.Context) {
	expired, err := s.ledger.ListExpired()
	if err != nil {
		log.Printf("Sweep: failed to list expired subscriptions: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	privates, err := s.mods.ListPrivateModChannels()
	if err != nil {
		log.Printf("Sweep: failed to list private channels: %v", err)
		privates = nil
	}

	ids := make([]int64, 0, len(expired))
	for _, sub := range expired {
		for _, ch := range privates {
			// A private channel saved without a numeric id cannot be
			// addressed by the Bot API.
			if ch.ChannelID == 0 {
				continue
			}
			if !s.revoker.IsMember(ctx, ch.ChannelID, sub.UserID) {
				continue
			}
			if s.revoker.Revoke(ctx, ch.ChannelID, sub.UserID) {
				log.Printf("Sweep: revoked user=%d channel=%d", sub.UserID, ch.ChannelID)
			}
		}

		if err := s.notifier.Notify(ctx, sub.UserID, messages.SubscriptionExpired()); err != nil {
			log.Printf("Sweep: failed to notify user=%d: %v", sub.UserID, err)
		}

		ids = append(ids, sub.ID)
	}

	// Rows are flipped in one batch after the per-user work, so a crash
	// mid-sweep leaves them active for the next pass instead of silently
	// deactivated without notice.
	if err := s.ledger.DeactivateSubscriptions(ids); err != nil {
		log.Printf("Sweep: failed to deactivate %d subscriptions: %v", len(ids), err)
		return
	}
	log.Printf("Sweep: deactivated %d subscriptions", len(ids))
}
