package store

import (
	"fmt"
	"time"

	"github.com/obinna-lab/groupgate/types"
)

// RedisStateStore holds per-user conversation state that only matters between
// two callback taps: the payment gateway picked before a plan is chosen.
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

func (s *RedisStateStore) SetGateway(userID int64, gateway types.GatewayName) error {
	key := s.client.generateKey("gateway", fmt.Sprintf("%d", userID))
	return s.client.Set(key, string(gateway), s.ttl)
}

func (s *RedisStateStore) GetGateway(userID int64) (types.GatewayName, error) {
	key := s.client.generateKey("gateway", fmt.Sprintf("%d", userID))
	var gateway string
	if err := s.client.Get(key, &gateway); err != nil {
		// Default matches the in-conversation default of the gateway menu.
		return types.GatewayFlutterwave, nil
	}
	return types.GatewayName(gateway), nil
}

func (s *RedisStateStore) ClearGateway(userID int64) error {
	key := s.client.generateKey("gateway", fmt.Sprintf("%d", userID))
	return s.client.Del(key)
}
