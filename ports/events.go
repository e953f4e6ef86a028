package ports

import "context"

// EventPublisher notifies other instances and downstream consumers about
// security-relevant ceremony outcomes.
type EventPublisher interface {
	PublishCredentialRegistered(ctx context.Context, rpID string, credentialID, userHandle []byte) error
	PublishCloneDetected(ctx context.Context, rpID string, credentialID []byte, storedCount, assertedCount uint32) error
}
