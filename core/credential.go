package core

import (
	"time"

	"github.com/splitsecure/go-webauthn-rp/protocol"
)

// AuthenticatorTransport hints how the client reached the authenticator.
type AuthenticatorTransport string

const (
	TransportUSB      AuthenticatorTransport = "usb"
	TransportNFC      AuthenticatorTransport = "nfc"
	TransportBLE      AuthenticatorTransport = "ble"
	TransportInternal AuthenticatorTransport = "internal"
	TransportHybrid   AuthenticatorTransport = "hybrid"
)

// CredentialDescriptor identifies an existing credential in option payloads.
type CredentialDescriptor struct {
	CredentialID []byte
	Transports   []AuthenticatorTransport
}

// CredentialRecord is the durable state produced by a successful registration.
// Only SignCount ever changes afterwards, and only through a successful
// authentication. A duplicate credential id at registration is a conflict,
// never an update.
type CredentialRecord struct {
	CredentialID []byte                   `json:"credential_id"`
	PublicKey    protocol.PublicKey       `json:"public_key"`
	SignCount    uint32                   `json:"sign_count"`
	UserHandle   []byte                   `json:"user_handle"`
	Transports   []AuthenticatorTransport `json:"transports,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}
