package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/extramods/modgate-bot/internal/channels"
	"github.com/extramods/modgate-bot/types"
)

type stubGateStore struct {
	channels []*types.GateChannel
	err      error
}

func (s *stubGateStore) ListGateChannels() ([]*types.GateChannel, error) { return s.channels, s.err }
func (s *stubGateStore) AddGateChannel(username, title string) (*types.GateChannel, error) {
	return nil, nil
}
func (s *stubGateStore) RemoveGateChannel(id int64, minRemaining int) error { return nil }
func (s *stubGateStore) CountGateChannels() (int, error)                    { return len(s.channels), nil }

type stubLedger struct {
	active *types.Subscription
	err    error
}

func (s *stubLedger) GetActiveSubscription(userID int64) (*types.Subscription, error) {
	return s.active, s.err
}
func (s *stubLedger) CreateSubscription(userID int64, tariffID string, duration time.Duration, infinite bool) (*types.Subscription, error) {
	return nil, nil
}
func (s *stubLedger) ListSubscriptions(userID int64) ([]*types.Subscription, error) {
	return nil, nil
}
func (s *stubLedger) ListExpiringSoon(within time.Duration) ([]*types.Subscription, error) {
	return nil, nil
}
func (s *stubLedger) ListExpired() ([]*types.Subscription, error) { return nil, nil }
func (s *stubLedger) DeactivateSubscriptions(ids []int64) error   { return nil }

type stubOracle struct {
	member map[string]bool
}

func (s *stubOracle) GetMembership(ctx context.Context, chat any, userID int64) channels.Membership {
	username, _ := chat.(string)
	if s.member[username] {
		return channels.Member
	}
	return channels.Left
}

func gateChannel(id int64, username string) *types.GateChannel {
	return &types.GateChannel{ID: id, Username: username, Title: username}
}

func TestUnmetReportsMissingChannels(t *testing.T) {
	gates := &stubGateStore{channels: []*types.GateChannel{
		gateChannel(1, "@one"),
		gateChannel(2, "@two"),
	}}
	oracle := &stubOracle{member: map[string]bool{"@one": true}}
	checker := NewChecker(gates, &stubLedger{}, oracle, nil)

	unmet, err := checker.Unmet(context.Background(), 42)
	assert.NoError(t, err)
	assert.Len(t, unmet, 1)
	assert.Equal(t, "@two", unmet[0].Username)
}

func TestUnmetEmptyGatePassesEveryone(t *testing.T) {
	checker := NewChecker(&stubGateStore{}, &stubLedger{}, &stubOracle{}, nil)

	unmet, err := checker.Unmet(context.Background(), 42)
	assert.NoError(t, err)
	assert.Empty(t, unmet)
}

func TestUnmetAdminSkipsCheck(t *testing.T) {
	gates := &stubGateStore{channels: []*types.GateChannel{gateChannel(1, "@one")}}
	oracle := &stubOracle{member: map[string]bool{}}
	checker := NewChecker(gates, &stubLedger{}, oracle, []int64{42})

	unmet, err := checker.Unmet(context.Background(), 42)
	assert.NoError(t, err)
	assert.Empty(t, unmet)

	unmet, err = checker.Unmet(context.Background(), 43)
	assert.NoError(t, err)
	assert.Len(t, unmet, 1)
}

func TestHasAccessRequiresActiveSubscription(t *testing.T) {
	withSub := NewChecker(&stubGateStore{}, &stubLedger{active: &types.Subscription{ID: 1}}, &stubOracle{}, nil)
	access, err := withSub.HasAccess(42)
	assert.NoError(t, err)
	assert.True(t, access)

	withoutSub := NewChecker(&stubGateStore{}, &stubLedger{}, &stubOracle{}, nil)
	access, err = withoutSub.HasAccess(42)
	assert.NoError(t, err)
	assert.False(t, access)
}

func TestHasAccessAdminAlwaysAllowed(t *testing.T) {
	checker := NewChecker(&stubGateStore{}, &stubLedger{}, &stubOracle{}, []int64{42})

	access, err := checker.HasAccess(42)
	assert.NoError(t, err)
	assert.True(t, access)
}
