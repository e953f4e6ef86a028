package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/splitsecure/go-webauthn-rp/adapters/events"
	"github.com/splitsecure/go-webauthn-rp/adapters/store"
	"github.com/splitsecure/go-webauthn-rp/ports"
	"github.com/splitsecure/go-webauthn-rp/service"
	"github.com/splitsecure/go-webauthn-rp/transport/http"
	"github.com/splitsecure/go-webauthn-rp/webauthn"
)

const challengeTTL = 5 * time.Minute

func main() {
	rp := webauthn.RelyingParty{
		ID:     envOr("RP_ID", "localhost"),
		Name:   envOr("RP_NAME", "WebAuthn RP"),
		Origin: envOr("RP_ORIGIN", "http://localhost:3000"),
	}

	var (
		challengeStore  ports.ChallengeStore
		credentialStore ports.CredentialStore
		publisher       message.Publisher
	)

	logger := watermill.NewStdLogger(false, false)

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}

		challengeStore = store.NewRedisChallengeStore(redisClient)
		credentialStore = store.NewRedisCredentialStore(redisClient)
	} else {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, logger)
		challengeStore = store.NewMemoryChallengeStore()
		credentialStore = store.NewMemoryCredentialStore()
	}

	go sweepChallenges(challengeStore)

	challenges := webauthn.NewChallengeManager(challengeStore, challengeTTL)
	engine := webauthn.NewEngine(rp, challenges)
	eventPub := events.NewWatermillPublisher(publisher)

	ceremonies := service.NewCeremonyService(engine, credentialStore, eventPub)

	router := http.SetupRouter(ceremonies)

	addr := envOr("LISTEN_ADDR", ":8000")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// sweepChallenges periodically reclaims expired challenges and tombstones so
// the in-memory store does not grow without bound.
func sweepChallenges(challenges ports.ChallengeStore) {
	ticker := time.NewTicker(challengeTTL)
	defer ticker.Stop()

	for range ticker.C {
		if err := challenges.SweepExpired(context.Background()); err != nil {
			log.Printf("warning: challenge sweep failed: %v", err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
