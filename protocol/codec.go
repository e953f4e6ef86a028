package protocol

import (
	"bytes"
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

const (
	rpIDHashLen    = 32
	fixedHeaderLen = rpIDHashLen + 1 + 4 // hash + flags + big-endian sign count
	aaguidLen      = 16
)

// UnmarshalAuthenticatorData decodes the binary authenticator data blob:
// the fixed 37-byte header, then the attested credential data block and the
// trailing extension CBOR map when the corresponding flags are set.
// https://www.w3.org/TR/webauthn/#sctn-authenticator-data
func UnmarshalAuthenticatorData(src []byte, dst *AuthenticatorData) error {
	rest, err := unmarshalHeader(src, dst)
	if err != nil {
		return err
	}

	if dst.HasAttestedCredentialData() {
		rest, err = unmarshalAttestedCredentialData(rest, &dst.AttestedCredentialData)
		if err != nil {
			return err
		}
	}

	if dst.HasExtensionData() {
		rest, err = unmarshalExtensions(rest, dst)
		if err != nil {
			return err
		}
	}

	if len(rest) != 0 {
		return errors.Wrap(ErrBadFlagLayout, "trailing bytes after authenticator data")
	}
	return nil
}

func unmarshalHeader(src []byte, dst *AuthenticatorData) (rest []byte, err error) {
	if len(src) < fixedHeaderLen {
		return nil, errors.Wrapf(ErrTruncated, "need %d header bytes, have %d", fixedHeaderLen, len(src))
	}

	cursor := src

	dst.RPIDHash = cursor[0:rpIDHashLen]
	cursor = cursor[rpIDHashLen:]

	dst.Flags = cursor[0]
	cursor = cursor[1:]

	dst.SignCount = binary.BigEndian.Uint32(cursor)
	cursor = cursor[4:]

	return cursor, nil
}

func unmarshalAttestedCredentialData(src []byte, dst *AttestedCredentialData) (rest []byte, err error) {
	if len(src) < aaguidLen+2 {
		return nil, errors.Wrap(ErrTruncated, "attested credential data header")
	}

	dst.AAGUID = src[0:aaguidLen]

	credLen := int(binary.BigEndian.Uint16(src[aaguidLen : aaguidLen+2]))
	if len(src) < aaguidLen+2+credLen {
		return nil, errors.Wrapf(ErrTruncated, "credential id declares %d bytes", credLen)
	}
	dst.CredentialID = src[aaguidLen+2 : aaguidLen+2+credLen]

	keyStart := aaguidLen + 2 + credLen
	dec := cbor.NewDecoder(bytes.NewReader(src[keyStart:]))
	if err := dec.Decode(&dst.CredentialPublicKey); err != nil {
		return nil, errors.Wrap(ErrMalformedCBOR, "credential public key")
	}

	return src[keyStart+dec.NumBytesRead():], nil
}

func unmarshalExtensions(src []byte, dst *AuthenticatorData) (rest []byte, err error) {
	dec := cbor.NewDecoder(bytes.NewReader(src))
	var ext map[any]any
	if err := dec.Decode(&ext); err != nil {
		return nil, errors.Wrap(ErrMalformedCBOR, "extension data")
	}
	dst.Extensions = cbor.RawMessage(bytes.Clone(src[:dec.NumBytesRead()]))
	return src[dec.NumBytesRead():], nil
}

// MarshalAuthenticatorData is the inverse of UnmarshalAuthenticatorData.
// The attested credential data block is emitted only when the flag is set.
func MarshalAuthenticatorData(src *AuthenticatorData) ([]byte, error) {
	if len(src.RPIDHash) != rpIDHashLen {
		return nil, errors.Wrapf(ErrBadFlagLayout, "rp id hash must be %d bytes", rpIDHashLen)
	}

	buf := bytes.Buffer{}
	buf.Write(src.RPIDHash)
	buf.WriteByte(src.Flags)

	count := [4]byte{}
	binary.BigEndian.PutUint32(count[:], src.SignCount)
	buf.Write(count[:])

	if src.HasAttestedCredentialData() {
		acd := &src.AttestedCredentialData
		if len(acd.AAGUID) != aaguidLen {
			return nil, errors.Wrapf(ErrBadFlagLayout, "aaguid must be %d bytes", aaguidLen)
		}
		if len(acd.CredentialID) > 0xffff {
			return nil, errors.Wrap(ErrBadFlagLayout, "credential id too long")
		}
		buf.Write(acd.AAGUID)

		credLen := [2]byte{}
		binary.BigEndian.PutUint16(credLen[:], uint16(len(acd.CredentialID)))
		buf.Write(credLen[:])
		buf.Write(acd.CredentialID)

		keyBytes, err := cbor.Marshal(acd.CredentialPublicKey)
		if err != nil {
			return nil, errors.Wrap(err, "marshalling credential public key")
		}
		buf.Write(keyBytes)
	}

	if src.HasExtensionData() {
		buf.Write(src.Extensions)
	}

	return buf.Bytes(), nil
}
