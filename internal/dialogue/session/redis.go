package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/pkg/redis"

	jsoniter "github.com/json-iterator/go"
)

const keyPrefix = "session:"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisStore keeps sessions as JSON documents with a sliding TTL.
type RedisStore struct {
	client redis.IRedis
	ttl    time.Duration
}

func NewRedisStore(client redis.IRedis, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, id string) (*State, error) {
	raw, err := r.client.Get(ctx, keyPrefix+id)
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if st.Collected == nil {
		st.Collected = flow.Collected{}
	}
	if st.Markers == nil {
		st.Markers = flow.Markers{}
	}
	return &st, nil
}

func (r *RedisStore) Save(ctx context.Context, st *State) error {
	if st == nil || st.SessionID == "" {
		return errors.New("session id is required")
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", st.SessionID, err)
	}
	if err := r.client.Set(ctx, keyPrefix+st.SessionID, raw, r.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", st.SessionID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, keyPrefix+id)
}
