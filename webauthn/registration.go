package webauthn

import (
	"bytes"
	"context"
	"crypto/sha256"
	"time"

	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/protocol"
)

// RegistrationOptionsInput parameterizes option generation for one user.
type RegistrationOptionsInput struct {
	UserHandle      []byte
	UserName        string
	UserDisplayName string

	AuthenticatorSelection *AuthenticatorSelection
	Attestation            string
	ExcludeCredentials     []core.CredentialDescriptor
	TimeoutMillis          int
}

// CreateRegistrationOptions issues a registration challenge and builds the
// serializable creation options. No network I/O happens here.
func (e *Engine) CreateRegistrationOptions(ctx context.Context, in *RegistrationOptionsInput) (*CredentialCreationOptions, error) {
	challenge, err := e.challenges.Issue(ctx, e.rp.ID, core.CeremonyRegistration)
	if err != nil {
		return nil, err
	}

	timeout := in.TimeoutMillis
	if timeout == 0 {
		timeout = DefaultTimeoutMillis
	}
	attestation := in.Attestation
	if attestation == "" {
		attestation = AttestationNone
	}

	exclude := make([]CredentialDescriptorJSON, 0, len(in.ExcludeCredentials))
	for _, d := range in.ExcludeCredentials {
		exclude = append(exclude, descriptorJSON(d))
	}

	return &CredentialCreationOptions{
		Challenge: challenge.Value,
		RP: PublicKeyCredentialRpEntity{
			ID:   e.rp.ID,
			Name: e.rp.Name,
		},
		User: PublicKeyCredentialUserEntity{
			ID:          in.UserHandle,
			Name:        in.UserName,
			DisplayName: in.UserDisplayName,
		},
		PubKeyCredParams:       supportedParams(),
		Timeout:                timeout,
		ExcludeCredentials:     exclude,
		AuthenticatorSelection: in.AuthenticatorSelection,
		Attestation:            attestation,
	}, nil
}

// VerifyRegistrationInput carries an attestation response plus the ceremony
// context it must bind to.
type VerifyRegistrationInput struct {
	Response          *RegistrationResponse
	ExpectedChallenge []byte
	ExpectedOrigin    string
	ExpectedRPID      string
	UserHandle        []byte

	RequireUserVerification bool
}

// VerifyRegistrationOutput is the durable result of a verified registration.
type VerifyRegistrationOutput struct {
	Credential core.CredentialRecord
}

// VerifyRegistration validates an attestation response end to end and
// produces the credential record to persist. Failures are terminal: the
// caller restarts the ceremony with a fresh challenge.
func (e *Engine) VerifyRegistration(ctx context.Context, in *VerifyRegistrationInput) (VerifyRegistrationOutput, error) {
	out := VerifyRegistrationOutput{}

	clientData, err := protocol.ParseClientData(in.Response.Response.ClientDataJSON)
	if err != nil {
		return out, err
	}
	if clientData.Type != protocol.ClientDataTypeCreate {
		return out, ErrTypeMismatch
	}

	embedded, err := clientData.ChallengeBytes()
	if err != nil {
		return out, err
	}
	if len(in.ExpectedChallenge) > 0 && !bytes.Equal(embedded, in.ExpectedChallenge) {
		return out, ErrChallengeMismatch
	}
	if err := e.challenges.Consume(ctx, embedded, e.rp.ID, core.CeremonyRegistration); err != nil {
		return out, err
	}

	if clientData.Origin != e.expectedOrigin(in.ExpectedOrigin) {
		return out, ErrOriginMismatch
	}

	attObj, err := protocol.ParseAttestationObject(in.Response.Response.AttestationObject)
	if err != nil {
		return out, err
	}

	authData := protocol.AuthenticatorData{}
	if err := protocol.UnmarshalAuthenticatorData(attObj.AuthData, &authData); err != nil {
		return out, err
	}

	rpIDHash := sha256.Sum256([]byte(e.expectedRPID(in.ExpectedRPID)))
	if !bytes.Equal(rpIDHash[:], authData.RPIDHash) {
		return out, ErrRPIDMismatch
	}

	if !authData.UserPresent() {
		return out, ErrUserPresenceRequired
	}
	if in.RequireUserVerification && !authData.UserVerified() {
		return out, ErrUserVerificationRequired
	}

	if !authData.HasAttestedCredentialData() {
		return out, ErrNoAttestedCredentialData
	}

	publicKey, err := protocol.PublicKeyFromCOSE(authData.AttestedCredentialData.CredentialPublicKey)
	if err != nil {
		return out, err
	}

	statement, err := attObj.Statement()
	if err != nil {
		return out, err
	}
	clientDataHash := protocol.ClientDataHash(in.Response.Response.ClientDataJSON)
	if err := e.policy(attObj.Format, statement, attObj.AuthData, clientDataHash[:]); err != nil {
		return out, err
	}

	out.Credential = core.CredentialRecord{
		CredentialID: bytes.Clone(authData.AttestedCredentialData.CredentialID),
		PublicKey:    *publicKey,
		SignCount:    authData.SignCount,
		UserHandle:   in.UserHandle,
		Transports:   parseTransports(in.Response.Response.Transports),
		CreatedAt:    time.Now().UTC(),
	}
	return out, nil
}

func (e *Engine) expectedOrigin(override string) string {
	if override != "" {
		return override
	}
	return e.rp.Origin
}

func (e *Engine) expectedRPID(override string) string {
	if override != "" {
		return override
	}
	return e.rp.ID
}

func parseTransports(raw []string) []core.AuthenticatorTransport {
	transports := make([]core.AuthenticatorTransport, 0, len(raw))
	for _, t := range raw {
		switch core.AuthenticatorTransport(t) {
		case core.TransportUSB, core.TransportNFC, core.TransportBLE, core.TransportInternal, core.TransportHybrid:
			transports = append(transports, core.AuthenticatorTransport(t))
		}
	}
	return transports
}
