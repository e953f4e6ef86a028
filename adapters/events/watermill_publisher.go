package events

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/splitsecure/go-webauthn-rp/ports"
)

// CredentialRegisteredEvent announces a newly registered credential.
type CredentialRegisteredEvent struct {
	RPID         string `json:"rp_id"`
	CredentialID string `json:"credential_id"`
	UserHandle   string `json:"user_handle"`
}

// CloneDetectedEvent announces a non-increasing sign count, the cloned
// authenticator signal. Downstream consumers decide whether to lock the
// account.
type CloneDetectedEvent struct {
	RPID          string `json:"rp_id"`
	CredentialID  string `json:"credential_id"`
	StoredCount   uint32 `json:"stored_count"`
	AssertedCount uint32 `json:"asserted_count"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher       message.Publisher
	registeredTopic string
	cloneTopic      string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher:       publisher,
		registeredTopic: "webauthn.credential.registered",
		cloneTopic:      "webauthn.clone.detected",
	}
}

// PublishCredentialRegistered publishes a registration event.
func (p *WatermillPublisher) PublishCredentialRegistered(ctx context.Context, rpID string, credentialID, userHandle []byte) error {
	event := CredentialRegisteredEvent{
		RPID:         rpID,
		CredentialID: base64.RawURLEncoding.EncodeToString(credentialID),
		UserHandle:   base64.RawURLEncoding.EncodeToString(userHandle),
	}
	return p.publish(p.registeredTopic, event)
}

// PublishCloneDetected publishes a clone detection event.
func (p *WatermillPublisher) PublishCloneDetected(ctx context.Context, rpID string, credentialID []byte, storedCount, assertedCount uint32) error {
	event := CloneDetectedEvent{
		RPID:          rpID,
		CredentialID:  base64.RawURLEncoding.EncodeToString(credentialID),
		StoredCount:   storedCount,
		AssertedCount: assertedCount,
	}
	return p.publish(p.cloneTopic, event)
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
