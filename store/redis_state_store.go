package store

import (
	"fmt"
	"time"

	"github.com/extramods/modgate-bot/types"
	"github.com/google/uuid"
)

// RedisStateStore keeps per-user wizard state (admin flows, awaited
// payments). TTL-bound: an abandoned flow simply evaporates.
type RedisStateStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisStateStore(redisClient *RedisClient, ttlHours int) *RedisStateStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisStateStore{
		client: redisClient,
		ttl:    ttl,
	}
}

func (s *RedisStateStore) stateKey(userID int64) string {
	return s.client.generateKey("user_state", fmt.Sprintf("%d", userID))
}

// GetState returns the stored state or a fresh idle one; a missing key is
// not an error.
func (s *RedisStateStore) GetState(userID int64) (*types.UserState, error) {
	var st types.UserState
	if err := s.client.Get(s.stateKey(userID), &st); err != nil {
		return &types.UserState{
			ID:     uuid.NewString(),
			UserID: userID,
			State:  types.StateIdle,
		}, nil
	}
	if st.State == "" {
		st.State = types.StateIdle
	}
	return &st, nil
}

func (s *RedisStateStore) SetState(state *types.UserState) error {
	if state.ID == "" {
		state.ID = uuid.NewString()
	}
	return s.client.Set(s.stateKey(state.UserID), state, s.ttl)
}

func (s *RedisStateStore) ClearState(userID int64) error {
	return s.client.Del(s.stateKey(userID))
}
