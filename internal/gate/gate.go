// Package gate holds the two access policies: the channel gate every update
// passes through, and the narrower subscription gate on premium actions.
package gate

import (
	"context"

	"github.com/extramods/modgate-bot/internal/channels"
	"github.com/extramods/modgate-bot/types"
)

type MembershipOracle interface {
	GetMembership(ctx context.Context, chat any, userID int64) channels.Membership
}

type Checker struct {
	gates  types.GateChannelStore
	ledger types.SubscriptionStore
	oracle MembershipOracle
	admins map[int64]bool
}

func NewChecker(gates types.GateChannelStore, ledger types.SubscriptionStore, oracle MembershipOracle, adminIDs []int64) *Checker {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Checker{
		gates:  gates,
		ledger: ledger,
		oracle: oracle,
		admins: admins,
	}
}

func (c *Checker) IsAdmin(userID int64) bool {
	return c.admins[userID]
}

// Unmet returns the gate channels the user has not joined. Admins skip the
// check. An empty configured set passes everyone: an unconfigured gate must
// not lock the whole bot out. Oracle failures count the channel as unmet.
func (c *Checker) Unmet(ctx context.Context, userID int64) ([]*types.GateChannel, error) {
	if c.IsAdmin(userID) {
		return nil, nil
	}

	configured, err := c.gates.ListGateChannels()
	if err != nil {
		return nil, err
	}
	if len(configured) == 0 {
		return nil, nil
	}

	unmet := make([]*types.GateChannel, 0)
	for _, ch := range configured {
		if c.oracle.GetMembership(ctx, ch.Username, userID) != channels.Member {
			unmet = append(unmet, ch)
		}
	}
	return unmet, nil
}

// HasAccess is the subscription gate: an active subscription or admin
// status. Independent of channel membership.
func (c *Checker) HasAccess(userID int64) (bool, error) {
	if c.IsAdmin(userID) {
		return true, nil
	}
	sub, err := c.ledger.GetActiveSubscription(userID)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}
