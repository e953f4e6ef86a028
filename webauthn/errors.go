package webauthn

import "errors"

// Challenge errors (replay or expiry).
var (
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrChallengeWrongType = errors.New("challenge issued for a different ceremony")
	ErrChallengeConsumed  = errors.New("challenge already consumed")
	ErrChallengeMismatch  = errors.New("client data challenge does not match expected challenge")
)

// Policy errors (configuration/assertion mismatches).
var (
	ErrTypeMismatch             = errors.New("client data type does not match ceremony")
	ErrOriginMismatch           = errors.New("origin does not match expected origin")
	ErrRPIDMismatch             = errors.New("rp id hash does not match expected rp id")
	ErrUserPresenceRequired     = errors.New("user presence flag not set")
	ErrUserVerificationRequired = errors.New("user verification flag not set")
	ErrCredentialMismatch       = errors.New("assertion credential id does not match stored credential")
	ErrNoAttestedCredentialData = errors.New("attestation response carries no attested credential data")
	ErrAttestationFormat        = errors.New("attestation statement malformed for declared format")
)

// Trust-boundary errors, always terminal for the ceremony.
var (
	ErrSignatureInvalid      = errors.New("signature verification failed")
	ErrPossibleCloneDetected = errors.New("sign count did not increase, possible cloned authenticator")
)
