package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/ports"
)

// consumedGrace keeps the consumed marker alive slightly past challenge
// expiry so a replay near the expiry boundary still reads as consumed.
const consumedGrace = time.Minute

// RedisChallengeStore is a Redis implementation of the ChallengeStore
// interface. Expiry relies on key TTLs; SweepExpired is a no-op.
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

// NewRedisChallengeStore creates a new Redis challenge store.
func NewRedisChallengeStore(client *redis.Client) ports.ChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "webauthn:challenge:",
	}
}

// Put stores the challenge JSON under its value with a TTL.
func (s *RedisChallengeStore) Put(ctx context.Context, challenge *core.Challenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	ttl := time.Until(challenge.ExpiresAt) + consumedGrace
	key := s.prefix + challengeKey(challenge.Value)
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// Take reads the challenge and claims it with a SETNX consumed marker.
// SETNX is the atomic check-and-set: only the first caller sets the marker
// and observes Consumed=false.
func (s *RedisChallengeStore) Take(ctx context.Context, value []byte) (*core.Challenge, error) {
	key := s.prefix + challengeKey(value)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge: %w", err)
	}

	challenge := &core.Challenge{}
	if err := json.Unmarshal(data, challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	markerTTL := time.Until(challenge.ExpiresAt) + consumedGrace
	if markerTTL <= 0 {
		markerTTL = consumedGrace
	}

	first, err := s.client.SetNX(ctx, key+":consumed", "1", markerTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim challenge: %w", err)
	}

	challenge.Consumed = !first
	return challenge, nil
}

// SweepExpired is a no-op: Redis key TTLs remove expired challenges.
func (s *RedisChallengeStore) SweepExpired(ctx context.Context) error {
	return nil
}

// RedisCredentialStore is a Redis implementation of the CredentialStore
// interface.
type RedisCredentialStore struct {
	client *redis.Client
	prefix string
}

// NewRedisCredentialStore creates a new Redis credential store.
func NewRedisCredentialStore(client *redis.Client) ports.CredentialStore {
	return &RedisCredentialStore{
		client: client,
		prefix: "webauthn:credential:",
	}
}

// Save persists a new credential record; SETNX rejects duplicates.
func (s *RedisCredentialStore) Save(ctx context.Context, record *core.CredentialRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	key := s.prefix + credentialKey(record.CredentialID)
	created, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	if !created {
		return core.ErrDuplicateCredentialID
	}
	return nil
}

// Load returns the record for a credential id.
func (s *RedisCredentialStore) Load(ctx context.Context, credentialID []byte) (*core.CredentialRecord, error) {
	key := s.prefix + credentialKey(credentialID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	record := &core.CredentialRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return record, nil
}

// UpdateSignCount rewrites the stored record with the new counter.
func (s *RedisCredentialStore) UpdateSignCount(ctx context.Context, credentialID []byte, newCount uint32) error {
	record, err := s.Load(ctx, credentialID)
	if err != nil {
		return err
	}

	record.SignCount = newCount
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	key := s.prefix + credentialKey(credentialID)
	if err := s.client.Set(ctx, key, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	return nil
}
