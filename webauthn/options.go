package webauthn

import (
	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/protocol"
)

// Defaults mirrored from the browser-facing API surface.
const (
	DefaultTimeoutMillis = 60000

	AttestationNone     = "none"
	AttestationIndirect = "indirect"
	AttestationDirect   = "direct"

	UserVerificationRequired    = "required"
	UserVerificationPreferred   = "preferred"
	UserVerificationDiscouraged = "discouraged"

	ResidentKeyPreferred = "preferred"
	ResidentKeyRequired  = "required"
)

// PublicKeyCredentialRpEntity mirrors the WebAuthn rp entity.
type PublicKeyCredentialRpEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublicKeyCredentialUserEntity mirrors the WebAuthn user entity.
type PublicKeyCredentialUserEntity struct {
	ID          protocol.Base64URL `json:"id"`
	Name        string             `json:"name"`
	DisplayName string             `json:"displayName"`
}

// PubKeyCredParam declares one supported algorithm.
type PubKeyCredParam struct {
	Type string `json:"type"` // always "public-key"
	Alg  int64  `json:"alg"`
}

// CredentialDescriptorJSON is the wire shape of a credential descriptor.
type CredentialDescriptorJSON struct {
	Type       string             `json:"type"` // always "public-key"
	ID         protocol.Base64URL `json:"id"`
	Transports []string           `json:"transports,omitempty"`
}

// AuthenticatorSelection specifies authenticator requirements at registration.
type AuthenticatorSelection struct {
	AuthenticatorAttachment string `json:"authenticatorAttachment,omitempty"`
	ResidentKey             string `json:"residentKey,omitempty"`
	RequireResidentKey      bool   `json:"requireResidentKey,omitempty"`
	UserVerification        string `json:"userVerification,omitempty"`
}

// CredentialCreationOptions mirrors PublicKeyCredentialCreationOptions.
type CredentialCreationOptions struct {
	Challenge              protocol.Base64URL            `json:"challenge"`
	RP                     PublicKeyCredentialRpEntity   `json:"rp"`
	User                   PublicKeyCredentialUserEntity `json:"user"`
	PubKeyCredParams       []PubKeyCredParam             `json:"pubKeyCredParams"`
	Timeout                int                           `json:"timeout,omitempty"`
	ExcludeCredentials     []CredentialDescriptorJSON    `json:"excludeCredentials,omitempty"`
	AuthenticatorSelection *AuthenticatorSelection       `json:"authenticatorSelection,omitempty"`
	Attestation            string                        `json:"attestation,omitempty"`
}

// CredentialRequestOptions mirrors PublicKeyCredentialRequestOptions.
type CredentialRequestOptions struct {
	Challenge        protocol.Base64URL         `json:"challenge"`
	RPID             string                     `json:"rpId"`
	Timeout          int                        `json:"timeout,omitempty"`
	AllowCredentials []CredentialDescriptorJSON `json:"allowCredentials,omitempty"`
	UserVerification string                     `json:"userVerification,omitempty"`
}

// supportedParams is the closed set of algorithms this relying party accepts.
func supportedParams() []PubKeyCredParam {
	return []PubKeyCredParam{
		{Type: "public-key", Alg: int64(protocol.AlgES256)},
		{Type: "public-key", Alg: int64(protocol.AlgRS256)},
	}
}

func descriptorJSON(d core.CredentialDescriptor) CredentialDescriptorJSON {
	transports := make([]string, 0, len(d.Transports))
	for _, t := range d.Transports {
		transports = append(transports, string(t))
	}
	return CredentialDescriptorJSON{
		Type:       "public-key",
		ID:         d.CredentialID,
		Transports: transports,
	}
}
