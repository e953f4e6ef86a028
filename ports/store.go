package ports

import (
	"context"

	"github.com/splitsecure/go-webauthn-rp/core"
)

// ChallengeStore keeps issued challenges keyed by their value.
//
// Take is the single serialization point of the whole core: it atomically
// marks the challenge consumed and returns it, reporting the prior consumed
// state on the record. Exactly one concurrent caller observes Consumed=false;
// every other caller for the same value observes Consumed=true. Unknown
// values return (nil, nil). Records become eligible for removal at expiry.
type ChallengeStore interface {
	Put(ctx context.Context, challenge *core.Challenge) error
	Take(ctx context.Context, value []byte) (*core.Challenge, error)
	SweepExpired(ctx context.Context) error
}

// CredentialStore persists credential records.
// Save fails with core.ErrDuplicateCredentialID on conflict.
// Load fails with core.ErrCredentialNotFound for unknown ids.
type CredentialStore interface {
	Save(ctx context.Context, record *core.CredentialRecord) error
	Load(ctx context.Context, credentialID []byte) (*core.CredentialRecord, error)
	UpdateSignCount(ctx context.Context, credentialID []byte, newCount uint32) error
}
