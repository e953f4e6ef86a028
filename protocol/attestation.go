package protocol

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Attestation formats this package knows how to structurally validate.
const (
	AttestationFormatNone   = "none"
	AttestationFormatPacked = "packed"
)

// AttestationObject is the CBOR envelope returned at registration.
// AuthData is kept raw; callers decode it with UnmarshalAuthenticatorData.
type AttestationObject struct {
	Format   string          `cbor:"fmt"`
	AttStmt  cbor.RawMessage `cbor:"attStmt"`
	AuthData []byte          `cbor:"authData"`
}

// ParseAttestationObject decodes the attestation object envelope.
func ParseAttestationObject(raw []byte) (*AttestationObject, error) {
	obj := &AttestationObject{}
	if err := cbor.Unmarshal(raw, obj); err != nil {
		return nil, errors.Wrap(ErrMalformedCBOR, "attestation object")
	}
	if obj.Format == "" {
		return nil, errors.Wrap(ErrMalformedCBOR, "attestation object missing fmt")
	}
	if len(obj.AuthData) == 0 {
		return nil, errors.Wrap(ErrMalformedCBOR, "attestation object missing authData")
	}
	return obj, nil
}

// Statement decodes the attestation statement into a generic map.
// Statement keys are strings in every registered format.
func (a *AttestationObject) Statement() (map[string]any, error) {
	stmt := map[string]any{}
	if len(a.AttStmt) == 0 {
		return stmt, nil
	}
	if err := cbor.Unmarshal(a.AttStmt, &stmt); err != nil {
		return nil, errors.Wrap(ErrMalformedCBOR, "attestation statement")
	}
	return stmt, nil
}
