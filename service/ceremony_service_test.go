package service_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-webauthn-rp/adapters/store"
	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/mint"
	"github.com/splitsecure/go-webauthn-rp/protocol"
	"github.com/splitsecure/go-webauthn-rp/service"
	"github.com/splitsecure/go-webauthn-rp/webauthn"
)

var testRP = webauthn.RelyingParty{
	ID:     "example.com",
	Name:   "Example",
	Origin: "https://example.com",
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu           sync.Mutex
	registered   int
	clones       int
	lastStored   uint32
	lastAsserted uint32
}

func (p *recordingPublisher) PublishCredentialRegistered(ctx context.Context, rpID string, credentialID, userHandle []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered++
	return nil
}

func (p *recordingPublisher) PublishCloneDetected(ctx context.Context, rpID string, credentialID []byte, storedCount, assertedCount uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clones++
	p.lastStored = storedCount
	p.lastAsserted = assertedCount
	return nil
}

func newTestService(t *testing.T) (*service.CeremonyService, *recordingPublisher) {
	t.Helper()
	challenges := webauthn.NewChallengeManager(store.NewMemoryChallengeStore(), time.Minute)
	engine := webauthn.NewEngine(testRP, challenges)
	events := &recordingPublisher{}
	return service.NewCeremonyService(engine, store.NewMemoryCredentialStore(), events), events
}

func newSigner(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func registerThrough(t *testing.T, svc *service.CeremonyService, key *ecdsa.PrivateKey) *service.RegistrationResult {
	t.Helper()
	ctx := context.Background()

	options, err := svc.BeginRegistration(ctx, &service.BeginRegistrationRequest{
		UserID:   "user-1",
		UserName: "alice",
	})
	require.NoError(t, err)

	minted, err := mint.GenerateRegistration(&mint.RegistrationInput{
		Signer:       key,
		Challenge:    options.Challenge,
		Origin:       testRP.Origin,
		RPID:         testRP.ID,
		CredentialID: []byte("credential-0001"),
		Flags:        protocol.ADF_USER_PRESENT,
	})
	require.NoError(t, err)

	result, err := svc.FinishRegistration(ctx, &service.FinishRegistrationRequest{
		Credential:        minted.Response,
		ExpectedChallenge: options.Challenge,
		UserID:            "user-1",
	})
	require.NoError(t, err)
	return result
}

func authenticateThrough(t *testing.T, svc *service.CeremonyService, key *ecdsa.PrivateKey, signCount uint32) (*service.AuthenticationResult, error) {
	t.Helper()
	ctx := context.Background()

	options, err := svc.BeginAuthentication(ctx, &service.BeginAuthenticationRequest{
		CredentialID: protocol.Base64URL("credential-0001"),
	})
	require.NoError(t, err)

	minted, err := mint.GenerateAssertion(&mint.AssertionInput{
		Signer:       key,
		Challenge:    options.Challenge,
		Origin:       testRP.Origin,
		RPID:         testRP.ID,
		CredentialID: []byte("credential-0001"),
		SignCount:    signCount,
		Flags:        protocol.ADF_USER_PRESENT,
	})
	require.NoError(t, err)

	return svc.FinishAuthentication(ctx, &service.FinishAuthenticationRequest{
		Credential:        minted.Response,
		ExpectedChallenge: options.Challenge,
	})
}

func TestServiceRegistration(t *testing.T) {
	svc, events := newTestService(t)
	key := newSigner(t)

	result := registerThrough(t, svc, key)
	require.Equal(t, protocol.Base64URL("credential-0001"), result.CredentialID)
	require.Equal(t, uint32(0), result.SignCount)
	require.Equal(t, protocol.Base64URL("user-1"), result.UserHandle)
	require.Equal(t, 1, events.registered)
}

func TestServiceRegistrationDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	key := newSigner(t)
	registerThrough(t, svc, key)

	ctx := context.Background()
	options, err := svc.BeginRegistration(ctx, &service.BeginRegistrationRequest{
		UserID:   "user-2",
		UserName: "bob",
	})
	require.NoError(t, err)

	minted, err := mint.GenerateRegistration(&mint.RegistrationInput{
		Signer:       key,
		Challenge:    options.Challenge,
		Origin:       testRP.Origin,
		RPID:         testRP.ID,
		CredentialID: []byte("credential-0001"),
		Flags:        protocol.ADF_USER_PRESENT,
	})
	require.NoError(t, err)

	_, err = svc.FinishRegistration(ctx, &service.FinishRegistrationRequest{
		Credential:        minted.Response,
		ExpectedChallenge: options.Challenge,
		UserID:            "user-2",
	})
	require.ErrorIs(t, err, core.ErrDuplicateCredentialID)
}

func TestServiceAuthentication(t *testing.T) {
	svc, _ := newTestService(t)
	key := newSigner(t)
	registerThrough(t, svc, key)

	result, err := authenticateThrough(t, svc, key, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), result.NewSignCount)

	// The persisted counter carries into the next ceremony.
	result, err = authenticateThrough(t, svc, key, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(2), result.NewSignCount)
}

func TestServiceAuthenticationCloneDetection(t *testing.T) {
	svc, events := newTestService(t)
	key := newSigner(t)
	registerThrough(t, svc, key)

	_, err := authenticateThrough(t, svc, key, 3)
	require.NoError(t, err)

	_, err = authenticateThrough(t, svc, key, 3)
	require.ErrorIs(t, err, webauthn.ErrPossibleCloneDetected)
	require.Equal(t, 1, events.clones)
	require.Equal(t, uint32(3), events.lastStored)
	require.Equal(t, uint32(3), events.lastAsserted)

	// The stored counter is untouched by the rejected assertion.
	result, err := authenticateThrough(t, svc, key, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(4), result.NewSignCount)
}

func TestServiceAuthenticationUnknownCredential(t *testing.T) {
	svc, _ := newTestService(t)
	key := newSigner(t)

	_, err := authenticateThrough(t, svc, key, 1)
	require.ErrorIs(t, err, core.ErrCredentialNotFound)
}
