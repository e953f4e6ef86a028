package webauthn

import (
	"bytes"
	"context"
	"crypto/sha256"

	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/protocol"
)

// AuthenticationOptionsInput parameterizes assertion option generation.
type AuthenticationOptionsInput struct {
	AllowedCredentials []core.CredentialDescriptor
	UserVerification   string
	TimeoutMillis      int
}

// CreateAuthenticationOptions issues an authentication challenge and builds
// the serializable request options.
func (e *Engine) CreateAuthenticationOptions(ctx context.Context, in *AuthenticationOptionsInput) (*CredentialRequestOptions, error) {
	challenge, err := e.challenges.Issue(ctx, e.rp.ID, core.CeremonyAuthentication)
	if err != nil {
		return nil, err
	}

	timeout := in.TimeoutMillis
	if timeout == 0 {
		timeout = DefaultTimeoutMillis
	}
	userVerification := in.UserVerification
	if userVerification == "" {
		userVerification = UserVerificationPreferred
	}

	allowed := make([]CredentialDescriptorJSON, 0, len(in.AllowedCredentials))
	for _, d := range in.AllowedCredentials {
		allowed = append(allowed, descriptorJSON(d))
	}

	return &CredentialRequestOptions{
		Challenge:        challenge.Value,
		RPID:             e.rp.ID,
		Timeout:          timeout,
		AllowCredentials: allowed,
		UserVerification: userVerification,
	}, nil
}

// VerifyAuthenticationInput carries an assertion response plus the stored
// credential it claims to exercise.
type VerifyAuthenticationInput struct {
	Response          *AssertionResponse
	ExpectedChallenge []byte
	ExpectedOrigin    string
	ExpectedRPID      string
	Credential        *core.CredentialRecord

	RequireUserVerification bool
}

// VerifyAuthenticationOutput reports the counter value the caller must
// persist on success.
type VerifyAuthenticationOutput struct {
	NewSignCount uint32
}

// VerifyAuthentication validates an assertion against the stored credential.
// ErrSignatureInvalid and ErrPossibleCloneDetected are surfaced distinctly so
// callers can apply differentiated policy; neither is ever retried here.
func (e *Engine) VerifyAuthentication(ctx context.Context, in *VerifyAuthenticationInput) (VerifyAuthenticationOutput, error) {
	out := VerifyAuthenticationOutput{}

	clientData, err := protocol.ParseClientData(in.Response.Response.ClientDataJSON)
	if err != nil {
		return out, err
	}
	if clientData.Type != protocol.ClientDataTypeGet {
		return out, ErrTypeMismatch
	}

	embedded, err := clientData.ChallengeBytes()
	if err != nil {
		return out, err
	}
	if len(in.ExpectedChallenge) > 0 && !bytes.Equal(embedded, in.ExpectedChallenge) {
		return out, ErrChallengeMismatch
	}
	if err := e.challenges.Consume(ctx, embedded, e.rp.ID, core.CeremonyAuthentication); err != nil {
		return out, err
	}

	if clientData.Origin != e.expectedOrigin(in.ExpectedOrigin) {
		return out, ErrOriginMismatch
	}

	if len(in.Response.RawID) > 0 && !bytes.Equal(in.Response.RawID, in.Credential.CredentialID) {
		return out, ErrCredentialMismatch
	}

	authDataBytes := []byte(in.Response.Response.AuthenticatorData)
	authData := protocol.AuthenticatorData{}
	if err := protocol.UnmarshalAuthenticatorData(authDataBytes, &authData); err != nil {
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

	signedData := SignedData(authDataBytes, in.Response.Response.ClientDataJSON)
	if err := VerifySignature(&in.Credential.PublicKey, signedData, in.Response.Response.Signature); err != nil {
		return out, err
	}

	// Counter check: both counters zero means the authenticator does not
	// implement counters, so the strict check is skipped. Otherwise the
	// asserted count must strictly increase.
	if authData.SignCount != 0 || in.Credential.SignCount != 0 {
		if authData.SignCount <= in.Credential.SignCount {
			return out, ErrPossibleCloneDetected
		}
	}

	out.NewSignCount = authData.SignCount
	return out, nil
}
