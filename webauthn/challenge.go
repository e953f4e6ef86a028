package webauthn

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/ports"
)

const (
	// challengeLen is the entropy of an issued challenge. WebAuthn requires
	// at least 16 bytes; 32 matches what we use for nonces elsewhere.
	challengeLen = 32

	// storeTimeout bounds every challenge-store call so a stuck backend
	// surfaces as core.ErrStoreUnavailable instead of hanging a ceremony.
	storeTimeout = 3 * time.Second
)

// ChallengeManager issues and consumes single-use ceremony challenges.
// Persistence is delegated to the store; the manager owns the contract:
// a challenge is bound to one relying party and one ceremony type, and
// Consume never succeeds twice for the same value.
type ChallengeManager struct {
	store ports.ChallengeStore
	ttl   time.Duration
	now   func() time.Time
}

// NewChallengeManager builds a manager issuing challenges with the given ttl.
func NewChallengeManager(store ports.ChallengeStore, ttl time.Duration) *ChallengeManager {
	return &ChallengeManager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Issue generates a cryptographically random challenge bound to the relying
// party and ceremony type and stores it keyed by its own value.
func (m *ChallengeManager) Issue(ctx context.Context, rpID string, ceremony core.CeremonyType) (*core.Challenge, error) {
	value := make([]byte, challengeLen)
	if _, err := rand.Read(value); err != nil {
		return nil, errors.Wrap(err, "generating challenge")
	}

	now := m.now()
	challenge := &core.Challenge{
		Value:     value,
		Ceremony:  ceremony,
		RPID:      rpID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := m.store.Put(ctx, challenge); err != nil {
		return nil, errors.Wrap(core.ErrStoreUnavailable, err.Error())
	}
	return challenge, nil
}

// Consume atomically checks and marks a challenge. Exactly one caller may
// succeed per value; every later caller gets ErrChallengeConsumed. Expiry is
// checked lazily here, not by a background timer.
func (m *ChallengeManager) Consume(ctx context.Context, value []byte, rpID string, ceremony core.CeremonyType) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	challenge, err := m.store.Take(ctx, value)
	if err != nil {
		return errors.Wrap(core.ErrStoreUnavailable, err.Error())
	}
	if challenge == nil {
		return ErrChallengeNotFound
	}
	if challenge.Consumed {
		return ErrChallengeConsumed
	}
	if challenge.Expired(m.now()) {
		return ErrChallengeExpired
	}
	if challenge.Ceremony != ceremony || challenge.RPID != rpID {
		return ErrChallengeWrongType
	}
	return nil
}
