package sweeper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/extramods/modgate-bot/types"
)

type fakeLedger struct {
	expiring    []*types.Subscription
	expired     []*types.Subscription
	deactivated []int64
}

func (f *fakeLedger) GetActiveSubscription(userID int64) (*types.Subscription, error) {
	return nil, nil
}
func (f *fakeLedger) CreateSubscription(userID int64, tariffID string, duration time.Duration, infinite bool) (*types.Subscription, error) {
	return nil, nil
}
func (f *fakeLedger) ListSubscriptions(userID int64) ([]*types.Subscription, error) {
	return nil, nil
}
func (f *fakeLedger) ListExpiringSoon(within time.Duration) ([]*types.Subscription, error) {
	return f.expiring, nil
}
func (f *fakeLedger) ListExpired() ([]*types.Subscription, error) { return f.expired, nil }
func (f *fakeLedger) DeactivateSubscriptions(ids []int64) error {
	f.deactivated = append(f.deactivated, ids...)
	return nil
}

type fakeMods struct {
	privates []*types.ModChannel
}

func (f *fakeMods) ListModChannels() ([]*types.ModChannel, error)        { return f.privates, nil }
func (f *fakeMods) ListPrivateModChannels() ([]*types.ModChannel, error) { return f.privates, nil }
func (f *fakeMods) AddModChannel(ch types.ModChannel) (*types.ModChannel, error) {
	return nil, nil
}
func (f *fakeMods) RemoveModChannel(id int64) error { return nil }

type fakeRevoker struct {
	members map[string]bool
	checked []string
	revoked []string
}

func memberKey(channelID, userID int64) string {
	return fmt.Sprintf("%d/%d", channelID, userID)
}

func (f *fakeRevoker) IsMember(ctx context.Context, chat any, userID int64) bool {
	channelID, _ := chat.(int64)
	f.checked = append(f.checked, memberKey(channelID, userID))
	return f.members[memberKey(channelID, userID)]
}

func (f *fakeRevoker) Revoke(ctx context.Context, channelID, userID int64) bool {
	f.revoked = append(f.revoked, memberKey(channelID, userID))
	return true
}

type fakeNotifier struct {
	notified []int64
}

func (f *fakeNotifier) Notify(ctx context.Context, userID int64, text string) error {
	f.notified = append(f.notified, userID)
	return nil
}

func TestRunOnceDeactivatesExpired(t *testing.T) {
	ledger := &fakeLedger{
		expired: []*types.Subscription{
			{ID: 1, UserID: 10, ExpiresAt: time.Now().Add(-time.Hour)},
			{ID: 2, UserID: 11, ExpiresAt: time.Now().Add(-time.Minute)},
		},
	}
	revoker := &fakeRevoker{members: map[string]bool{}}
	notifier := &fakeNotifier{}

	s := NewSweeper(ledger, &fakeMods{}, revoker, notifier, Config{})
	s.RunOnce(context.Background())

	assert.Equal(t, []int64{1, 2}, ledger.deactivated)
	assert.Equal(t, []int64{10, 11}, notifier.notified)
}

func TestRunOnceRevokesPrivateChannelMembers(t *testing.T) {
	ledger := &fakeLedger{
		expired: []*types.Subscription{{ID: 1, UserID: 10}},
	}
	mods := &fakeMods{privates: []*types.ModChannel{
		{ID: 1, ChannelID: -100500, IsPrivate: true},
		{ID: 2, ChannelID: -100600, IsPrivate: true},
	}}
	revoker := &fakeRevoker{members: map[string]bool{
		memberKey(-100500, 10): true,
	}}

	s := NewSweeper(ledger, mods, revoker, &fakeNotifier{}, Config{})
	s.RunOnce(context.Background())

	// Only the channel the user actually sits in gets the ban/unban pair.
	assert.Equal(t, []string{memberKey(-100500, 10)}, revoker.revoked)
	assert.Equal(t, []int64{1}, ledger.deactivated)
}

func TestRunOnceSkipsPrivateChannelsWithoutID(t *testing.T) {
	ledger := &fakeLedger{
		expired: []*types.Subscription{{ID: 1, UserID: 10}},
	}
	mods := &fakeMods{privates: []*types.ModChannel{
		{ID: 1, IsPrivate: true},
		{ID: 2, ChannelID: -100600, IsPrivate: true},
	}}
	revoker := &fakeRevoker{members: map[string]bool{}}

	s := NewSweeper(ledger, mods, revoker, &fakeNotifier{}, Config{})
	s.RunOnce(context.Background())

	// No membership lookup against chat id 0.
	assert.Equal(t, []string{memberKey(-100600, 10)}, revoker.checked)
	assert.Equal(t, []int64{1}, ledger.deactivated)
}

func TestRunOnceWarnsExpiringButSkipsInfinite(t *testing.T) {
	ledger := &fakeLedger{
		expiring: []*types.Subscription{
			{ID: 1, UserID: 10, ExpiresAt: time.Now().Add(12 * time.Hour)},
			{ID: 2, UserID: 11, ExpiresAt: types.InfiniteExpiry},
		},
	}
	notifier := &fakeNotifier{}

	s := NewSweeper(ledger, &fakeMods{}, &fakeRevoker{members: map[string]bool{}}, notifier, Config{})
	s.RunOnce(context.Background())

	assert.Equal(t, []int64{10}, notifier.notified)
	assert.Empty(t, ledger.deactivated)
}

func TestStartStopIdempotent(t *testing.T) {
	s := NewSweeper(&fakeLedger{}, &fakeMods{}, &fakeRevoker{members: map[string]bool{}}, &fakeNotifier{}, Config{
		Interval: time.Hour,
	})

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
