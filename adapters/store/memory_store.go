package store

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/ports"
)

// MemoryChallengeStore is an in-memory implementation of the ChallengeStore
// interface. Consumed records are kept as tombstones until swept so that a
// second consume attempt is distinguishable from an unknown challenge.
type MemoryChallengeStore struct {
	challenges map[string]*core.Challenge
	mu         sync.Mutex
}

// NewMemoryChallengeStore creates a new in-memory challenge store.
func NewMemoryChallengeStore() ports.ChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]*core.Challenge),
	}
}

func challengeKey(value []byte) string {
	return base64.RawURLEncoding.EncodeToString(value)
}

// Put stores a challenge keyed by its value.
func (s *MemoryChallengeStore) Put(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *challenge
	s.challenges[challengeKey(challenge.Value)] = &copied
	return nil
}

// Take atomically marks the challenge consumed and returns it with its prior
// consumed state. The mutex is the check-and-set: exactly one caller observes
// Consumed=false. Expired records are deleted on the spot instead of
// tombstoned; records never taken are reclaimed by SweepExpired.
func (s *MemoryChallengeStore) Take(ctx context.Context, value []byte) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := challengeKey(value)
	stored, ok := s.challenges[key]
	if !ok {
		return nil, nil
	}

	result := *stored
	if stored.Expired(time.Now()) {
		delete(s.challenges, key)
		return &result, nil
	}
	stored.Consumed = true
	return &result, nil
}

// SweepExpired removes challenges past their expiry.
func (s *MemoryChallengeStore) SweepExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, challenge := range s.challenges {
		if challenge.Expired(now) {
			delete(s.challenges, key)
		}
	}
	return nil
}

// MemoryCredentialStore is an in-memory implementation of the CredentialStore
// interface.
type MemoryCredentialStore struct {
	credentials map[string]*core.CredentialRecord
	mu          sync.RWMutex
}

// NewMemoryCredentialStore creates a new in-memory credential store.
func NewMemoryCredentialStore() ports.CredentialStore {
	return &MemoryCredentialStore{
		credentials: make(map[string]*core.CredentialRecord),
	}
}

func credentialKey(credentialID []byte) string {
	return base64.RawURLEncoding.EncodeToString(credentialID)
}

// Save persists a new credential record. A duplicate id is a conflict.
func (s *MemoryCredentialStore) Save(ctx context.Context, record *core.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := credentialKey(record.CredentialID)
	if _, exists := s.credentials[key]; exists {
		return core.ErrDuplicateCredentialID
	}

	copied := *record
	s.credentials[key] = &copied
	return nil
}

// Load returns the record for a credential id.
func (s *MemoryCredentialStore) Load(ctx context.Context, credentialID []byte) (*core.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.credentials[credentialKey(credentialID)]
	if !ok {
		return nil, core.ErrCredentialNotFound
	}

	result := *stored
	return &result, nil
}

// UpdateSignCount persists the counter produced by a verified authentication.
func (s *MemoryCredentialStore) UpdateSignCount(ctx context.Context, credentialID []byte, newCount uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.credentials[credentialKey(credentialID)]
	if !ok {
		return core.ErrCredentialNotFound
	}

	stored.SignCount = newCount
	return nil
}
