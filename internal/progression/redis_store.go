package progression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "progression:"

type redisStore struct {
	client redis.Cmdable
}

// NewRedisStore keeps each user's state as a JSON string at progression:{userID}.
func NewRedisStore(client redis.Cmdable) StateStore {
	return &redisStore{client: client}
}

func (s *redisStore) Load(ctx context.Context, userID string) (State, error) {
	if userID == "" {
		return State{}, ErrMissingUserID
	}
	data, err := s.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrStateNotFound
	}
	if err != nil {
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode progression %s: %w", userID, err)
	}
	return state, nil
}

func (s *redisStore) Save(ctx context.Context, userID string, state State) error {
	if userID == "" {
		return ErrMissingUserID
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+userID, data, 0).Err()
}
