package http

import (
	"errors"
	"net/http"

	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/protocol"
	"github.com/splitsecure/go-webauthn-rp/webauthn"
)

// errorBody is the only error shape that crosses the API boundary. Internal
// error text never appears in it.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorMapping struct {
	status int
	body   errorBody
}

func mapping(status int, code, message string) errorMapping {
	return errorMapping{status: status, body: errorBody{Code: code, Message: message}}
}

var errorMappings = []struct {
	err     error
	mapping errorMapping
}{
	{webauthn.ErrChallengeNotFound, mapping(http.StatusBadRequest, "challenge_not_found", "Challenge not found")},
	{webauthn.ErrChallengeExpired, mapping(http.StatusBadRequest, "challenge_expired", "Challenge expired")},
	{webauthn.ErrChallengeConsumed, mapping(http.StatusConflict, "challenge_consumed", "Challenge already consumed")},
	{webauthn.ErrChallengeWrongType, mapping(http.StatusBadRequest, "challenge_mismatch", "Challenge does not match ceremony")},
	{webauthn.ErrChallengeMismatch, mapping(http.StatusBadRequest, "challenge_mismatch", "Challenge does not match ceremony")},
	{webauthn.ErrTypeMismatch, mapping(http.StatusBadRequest, "type_mismatch", "Client data type does not match ceremony")},
	{webauthn.ErrOriginMismatch, mapping(http.StatusForbidden, "origin_mismatch", "Origin not allowed")},
	{webauthn.ErrRPIDMismatch, mapping(http.StatusForbidden, "rp_id_mismatch", "Relying party id mismatch")},
	{webauthn.ErrUserPresenceRequired, mapping(http.StatusForbidden, "user_verification_required", "User presence or verification required")},
	{webauthn.ErrUserVerificationRequired, mapping(http.StatusForbidden, "user_verification_required", "User presence or verification required")},
	{webauthn.ErrCredentialMismatch, mapping(http.StatusBadRequest, "credential_mismatch", "Credential does not match")},
	{webauthn.ErrNoAttestedCredentialData, mapping(http.StatusBadRequest, "bad_attestation", "Attestation malformed")},
	{webauthn.ErrAttestationFormat, mapping(http.StatusBadRequest, "bad_attestation", "Attestation malformed")},
	{webauthn.ErrSignatureInvalid, mapping(http.StatusUnauthorized, "signature_invalid", "Signature verification failed")},
	{webauthn.ErrPossibleCloneDetected, mapping(http.StatusForbidden, "possible_clone_detected", "Possible cloned authenticator")},
	{protocol.ErrUnsupportedAlgorithm, mapping(http.StatusBadRequest, "unsupported_algorithm", "Unsupported algorithm")},
	{protocol.ErrMalformedJSON, mapping(http.StatusBadRequest, "malformed_request", "Malformed request payload")},
	{protocol.ErrTruncated, mapping(http.StatusBadRequest, "malformed_request", "Malformed request payload")},
	{protocol.ErrBadFlagLayout, mapping(http.StatusBadRequest, "malformed_request", "Malformed request payload")},
	{protocol.ErrMalformedCBOR, mapping(http.StatusBadRequest, "malformed_request", "Malformed request payload")},
	{protocol.ErrBadKeyStructure, mapping(http.StatusBadRequest, "malformed_request", "Malformed request payload")},
	{core.ErrDuplicateCredentialID, mapping(http.StatusConflict, "duplicate_credential", "Credential already registered")},
	{core.ErrCredentialNotFound, mapping(http.StatusNotFound, "credential_not_found", "Credential not found")},
	{core.ErrStoreUnavailable, mapping(http.StatusServiceUnavailable, "store_unavailable", "Storage backend unavailable")},
}

// mapError translates internal errors to the stable external code set.
func mapError(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.mapping
		}
	}
	return mapping(http.StatusInternalServerError, "internal_error", "Internal error")
}
