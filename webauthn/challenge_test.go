package webauthn_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-webauthn-rp/adapters/store"
	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/webauthn"
)

func TestChallengeIssueAndConsume(t *testing.T) {
	ctx := context.Background()
	manager := webauthn.NewChallengeManager(store.NewMemoryChallengeStore(), time.Minute)

	challenge, err := manager.Issue(ctx, "example.com", core.CeremonyRegistration)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(challenge.Value), 16)

	require.NoError(t, manager.Consume(ctx, challenge.Value, "example.com", core.CeremonyRegistration))
}

func TestChallengeConsumeTwice(t *testing.T) {
	ctx := context.Background()
	manager := webauthn.NewChallengeManager(store.NewMemoryChallengeStore(), time.Minute)

	challenge, err := manager.Issue(ctx, "example.com", core.CeremonyAuthentication)
	require.NoError(t, err)

	require.NoError(t, manager.Consume(ctx, challenge.Value, "example.com", core.CeremonyAuthentication))
	err = manager.Consume(ctx, challenge.Value, "example.com", core.CeremonyAuthentication)
	require.ErrorIs(t, err, webauthn.ErrChallengeConsumed)
}

func TestChallengeConsumeUnknown(t *testing.T) {
	ctx := context.Background()
	manager := webauthn.NewChallengeManager(store.NewMemoryChallengeStore(), time.Minute)

	err := manager.Consume(ctx, []byte("never-issued-value"), "example.com", core.CeremonyRegistration)
	require.ErrorIs(t, err, webauthn.ErrChallengeNotFound)
}

func TestChallengeConsumeWrongCeremony(t *testing.T) {
	ctx := context.Background()
	manager := webauthn.NewChallengeManager(store.NewMemoryChallengeStore(), time.Minute)

	challenge, err := manager.Issue(ctx, "example.com", core.CeremonyRegistration)
	require.NoError(t, err)

	err = manager.Consume(ctx, challenge.Value, "example.com", core.CeremonyAuthentication)
	require.ErrorIs(t, err, webauthn.ErrChallengeWrongType)
}

func TestChallengeConsumeWrongRP(t *testing.T) {
	ctx := context.Background()
	manager := webauthn.NewChallengeManager(store.NewMemoryChallengeStore(), time.Minute)

	challenge, err := manager.Issue(ctx, "example.com", core.CeremonyRegistration)
	require.NoError(t, err)

	err = manager.Consume(ctx, challenge.Value, "other.example", core.CeremonyRegistration)
	require.ErrorIs(t, err, webauthn.ErrChallengeWrongType)
}

func TestChallengeConsumeExpired(t *testing.T) {
	ctx := context.Background()
	manager := webauthn.NewChallengeManager(store.NewMemoryChallengeStore(), -time.Second)

	challenge, err := manager.Issue(ctx, "example.com", core.CeremonyRegistration)
	require.NoError(t, err)

	err = manager.Consume(ctx, challenge.Value, "example.com", core.CeremonyRegistration)
	require.ErrorIs(t, err, webauthn.ErrChallengeExpired)
}

func TestChallengeConsumeConcurrent(t *testing.T) {
	ctx := context.Background()
	manager := webauthn.NewChallengeManager(store.NewMemoryChallengeStore(), time.Minute)

	challenge, err := manager.Issue(ctx, "example.com", core.CeremonyAuthentication)
	require.NoError(t, err)

	const callers = 32
	results := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- manager.Consume(ctx, challenge.Value, "example.com", core.CeremonyAuthentication)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, webauthn.ErrChallengeConsumed)
		}
	}
	require.Equal(t, 1, succeeded)
}
