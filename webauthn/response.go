package webauthn

import "github.com/splitsecure/go-webauthn-rp/protocol"

// RegistrationResponse is the JSON shape of a credential creation result as
// returned by navigator.credentials.create(), binary fields base64url-encoded.
type RegistrationResponse struct {
	ID       string                        `json:"id"`
	RawID    protocol.Base64URL            `json:"rawId"`
	Type     string                        `json:"type"`
	Response AuthenticatorAttestationReply `json:"response"`
}

// AuthenticatorAttestationReply carries the attestation payload.
type AuthenticatorAttestationReply struct {
	ClientDataJSON    protocol.Base64URL `json:"clientDataJSON"`
	AttestationObject protocol.Base64URL `json:"attestationObject"`
	Transports        []string           `json:"transports,omitempty"`
}

// AssertionResponse is the JSON shape of an authentication result as returned
// by navigator.credentials.get().
type AssertionResponse struct {
	ID       string                      `json:"id"`
	RawID    protocol.Base64URL          `json:"rawId"`
	Type     string                      `json:"type"`
	Response AuthenticatorAssertionReply `json:"response"`
}

// AuthenticatorAssertionReply carries the signed assertion payload.
type AuthenticatorAssertionReply struct {
	ClientDataJSON    protocol.Base64URL `json:"clientDataJSON"`
	AuthenticatorData protocol.Base64URL `json:"authenticatorData"`
	Signature         protocol.Base64URL `json:"signature"`
	UserHandle        protocol.Base64URL `json:"userHandle,omitempty"`
}
