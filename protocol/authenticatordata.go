package protocol

import (
	"github.com/fxamacker/cbor/v2"
	cose_key "github.com/ldclabs/cose/key"
)

// Authenticator data flag bits.
// https://www.w3.org/TR/webauthn/#sctn-authenticator-data
const (
	ADF_USER_PRESENT                 = byte(1)
	ADF_RFU1                         = byte(1 << 1)
	ADF_USER_VERIFIED                = byte(1 << 2)
	ADF_BACKUP_ELIGIBLE              = byte(1 << 3)
	ADF_BACKUP_STATE                 = byte(1 << 4)
	ADF_HAS_ATTESTED_CREDENTIAL_DATA = byte(1 << 6)
	ADF_HAS_EXTENSION_DATA           = byte(1 << 7)
)

// AuthenticatorData is the parsed form of the binary authenticator data blob.
type AuthenticatorData struct {
	RPIDHash               []byte
	Flags                  byte
	SignCount              uint32
	AttestedCredentialData AttestedCredentialData
	Extensions             cbor.RawMessage
}

// AttestedCredentialData is present only when ADF_HAS_ATTESTED_CREDENTIAL_DATA
// is set, i.e. at registration.
type AttestedCredentialData struct {
	AAGUID              []byte
	CredentialID        []byte
	CredentialPublicKey cose_key.Key
}

func (ad *AuthenticatorData) UserPresent() bool {
	return ad.Flags&ADF_USER_PRESENT != 0
}

func (ad *AuthenticatorData) UserVerified() bool {
	return ad.Flags&ADF_USER_VERIFIED != 0
}

func (ad *AuthenticatorData) BackupEligible() bool {
	return ad.Flags&ADF_BACKUP_ELIGIBLE != 0
}

func (ad *AuthenticatorData) BackupState() bool {
	return ad.Flags&ADF_BACKUP_STATE != 0
}

func (ad *AuthenticatorData) HasAttestedCredentialData() bool {
	return ad.Flags&ADF_HAS_ATTESTED_CREDENTIAL_DATA != 0
}

func (ad *AuthenticatorData) HasExtensionData() bool {
	return ad.Flags&ADF_HAS_EXTENSION_DATA != 0
}
