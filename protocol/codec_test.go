package protocol_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/splitsecure/go-webauthn-rp/protocol"
)

func testAuthenticatorData(t *testing.T, flags byte) (*protocol.AuthenticatorData, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	rpIDHash := sha256.Sum256([]byte("example.com"))
	ad := &protocol.AuthenticatorData{
		RPIDHash:  rpIDHash[:],
		Flags:     flags,
		SignCount: 7,
	}

	if ad.HasAttestedCredentialData() {
		ad.AttestedCredentialData = protocol.AttestedCredentialData{
			AAGUID:              make([]byte, 16),
			CredentialID:        []byte("credential-0001"),
			CredentialPublicKey: protocol.COSEKeyFromECDSA(&key.PublicKey),
		}
	}

	return ad, key
}

func TestAuthenticatorDataRoundtrip(t *testing.T) {
	ad, key := testAuthenticatorData(t, protocol.ADF_USER_PRESENT|protocol.ADF_HAS_ATTESTED_CREDENTIAL_DATA)

	encoded, err := protocol.MarshalAuthenticatorData(ad)
	require.NoError(t, err)

	decoded := protocol.AuthenticatorData{}
	require.NoError(t, protocol.UnmarshalAuthenticatorData(encoded, &decoded))

	require.Equal(t, ad.RPIDHash, decoded.RPIDHash)
	require.Equal(t, ad.Flags, decoded.Flags)
	require.Equal(t, uint32(7), decoded.SignCount)
	require.True(t, decoded.UserPresent())
	require.Equal(t, ad.AttestedCredentialData.AAGUID, decoded.AttestedCredentialData.AAGUID)
	require.Equal(t, ad.AttestedCredentialData.CredentialID, decoded.AttestedCredentialData.CredentialID)

	// Compare keys through the typed variant; CBOR integer widths make the
	// raw containers incomparable.
	wantKey, err := protocol.PublicKeyFromCOSE(ad.AttestedCredentialData.CredentialPublicKey)
	require.NoError(t, err)
	gotKey, err := protocol.PublicKeyFromCOSE(decoded.AttestedCredentialData.CredentialPublicKey)
	require.NoError(t, err)
	require.Equal(t, wantKey, gotKey)

	wantPub, err := gotKey.ECDSA()
	require.NoError(t, err)
	require.Equal(t, key.PublicKey.X, wantPub.X)
	require.Equal(t, key.PublicKey.Y, wantPub.Y)
}

func TestAuthenticatorDataRoundtripBareHeader(t *testing.T) {
	ad, _ := testAuthenticatorData(t, protocol.ADF_USER_PRESENT|protocol.ADF_USER_VERIFIED|protocol.ADF_BACKUP_ELIGIBLE|protocol.ADF_BACKUP_STATE)

	encoded, err := protocol.MarshalAuthenticatorData(ad)
	require.NoError(t, err)
	require.Len(t, encoded, 37)

	decoded := protocol.AuthenticatorData{}
	require.NoError(t, protocol.UnmarshalAuthenticatorData(encoded, &decoded))
	require.True(t, decoded.UserVerified())
	require.True(t, decoded.BackupEligible())
	require.True(t, decoded.BackupState())
	require.False(t, decoded.HasAttestedCredentialData())
}

func TestAuthenticatorDataRoundtripExtensions(t *testing.T) {
	ad, _ := testAuthenticatorData(t, protocol.ADF_USER_PRESENT|protocol.ADF_HAS_EXTENSION_DATA)

	ext, err := cbor.Marshal(map[string]any{"credProtect": uint64(2)})
	require.NoError(t, err)
	ad.Extensions = cbor.RawMessage(ext)

	encoded, err := protocol.MarshalAuthenticatorData(ad)
	require.NoError(t, err)

	decoded := protocol.AuthenticatorData{}
	require.NoError(t, protocol.UnmarshalAuthenticatorData(encoded, &decoded))
	require.Equal(t, ad.Extensions, decoded.Extensions)
}

func TestAuthenticatorDataTruncatedHeader(t *testing.T) {
	err := protocol.UnmarshalAuthenticatorData(make([]byte, 36), &protocol.AuthenticatorData{})
	require.ErrorIs(t, err, protocol.ErrTruncated)
}

func TestAuthenticatorDataMissingAttestedBlock(t *testing.T) {
	ad, _ := testAuthenticatorData(t, protocol.ADF_USER_PRESENT)
	encoded, err := protocol.MarshalAuthenticatorData(ad)
	require.NoError(t, err)

	// Claim an attested credential block that is not there.
	encoded[32] |= protocol.ADF_HAS_ATTESTED_CREDENTIAL_DATA

	err = protocol.UnmarshalAuthenticatorData(encoded, &protocol.AuthenticatorData{})
	require.ErrorIs(t, err, protocol.ErrTruncated)
}

func TestAuthenticatorDataCredentialIDOverrun(t *testing.T) {
	ad, _ := testAuthenticatorData(t, protocol.ADF_USER_PRESENT|protocol.ADF_HAS_ATTESTED_CREDENTIAL_DATA)
	encoded, err := protocol.MarshalAuthenticatorData(ad)
	require.NoError(t, err)

	// Inflate the declared credential id length past the end of the input.
	encoded[37+16] = 0xff
	encoded[37+16+1] = 0xff

	err = protocol.UnmarshalAuthenticatorData(encoded, &protocol.AuthenticatorData{})
	require.ErrorIs(t, err, protocol.ErrTruncated)
}

func TestAuthenticatorDataTrailingBytes(t *testing.T) {
	ad, _ := testAuthenticatorData(t, protocol.ADF_USER_PRESENT)
	encoded, err := protocol.MarshalAuthenticatorData(ad)
	require.NoError(t, err)

	err = protocol.UnmarshalAuthenticatorData(append(encoded, 0x00), &protocol.AuthenticatorData{})
	require.ErrorIs(t, err, protocol.ErrBadFlagLayout)
}
