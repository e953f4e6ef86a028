// Package mint fabricates authenticator responses for tests: synthetic
// attestations and assertions that verify against the ceremony engine
// without any hardware in the loop.
package mint

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/fxamacker/cbor/v2"
	cose_key "github.com/ldclabs/cose/key"
	"github.com/pkg/errors"

	"github.com/splitsecure/go-webauthn-rp/protocol"
	"github.com/splitsecure/go-webauthn-rp/webauthn"
)

type RegistrationInput struct {
	Signer crypto.Signer // *ecdsa.PrivateKey (P-256) or *rsa.PrivateKey

	Challenge    []byte
	Origin       string
	RPID         string
	CredentialID []byte
	AAGUID       []byte // 16 bytes; zeroed when nil
	SignCount    uint32

	// Flags is the raw flag byte; ADF_HAS_ATTESTED_CREDENTIAL_DATA is
	// always forced on since the attested block is always emitted.
	Flags byte

	// Format selects the attestation format, "none" by default.
	// "packed" emits a self attestation signed with Signer.
	Format string

	// MutateClientData lets a test tamper with the client data before it
	// is serialized.
	MutateClientData func(*protocol.CollectedClientData)
}

type RegistrationOutput struct {
	Response webauthn.RegistrationResponse

	AuthData       []byte
	ClientDataJSON []byte
}

// GenerateRegistration builds a complete attestation response for the given
// ceremony context.
func GenerateRegistration(in *RegistrationInput) (RegistrationOutput, error) {
	coseKey, err := coseKeyFor(in.Signer)
	if err != nil {
		return RegistrationOutput{}, err
	}

	aaguid := in.AAGUID
	if aaguid == nil {
		aaguid = make([]byte, 16)
	}

	rpIDHash := sha256.Sum256([]byte(in.RPID))
	authenticatorData := protocol.AuthenticatorData{
		RPIDHash:  rpIDHash[:],
		Flags:     in.Flags | protocol.ADF_HAS_ATTESTED_CREDENTIAL_DATA,
		SignCount: in.SignCount,
		AttestedCredentialData: protocol.AttestedCredentialData{
			AAGUID:              aaguid,
			CredentialID:        in.CredentialID,
			CredentialPublicKey: coseKey,
		},
	}

	authData, err := protocol.MarshalAuthenticatorData(&authenticatorData)
	if err != nil {
		return RegistrationOutput{}, err
	}

	clientDataJSON, err := buildClientData(protocol.ClientDataTypeCreate, in.Challenge, in.Origin, in.MutateClientData)
	if err != nil {
		return RegistrationOutput{}, err
	}

	attStmt, err := buildAttStmt(in.Format, in.Signer, authData, clientDataJSON)
	if err != nil {
		return RegistrationOutput{}, err
	}

	format := in.Format
	if format == "" {
		format = protocol.AttestationFormatNone
	}

	attObj, err := cbor.Marshal(&protocol.AttestationObject{
		Format:   format,
		AttStmt:  attStmt,
		AuthData: authData,
	})
	if err != nil {
		return RegistrationOutput{}, err
	}

	return RegistrationOutput{
		Response: webauthn.RegistrationResponse{
			ID:    protocol.Base64URL(in.CredentialID).String(),
			RawID: in.CredentialID,
			Type:  "public-key",
			Response: webauthn.AuthenticatorAttestationReply{
				ClientDataJSON:    clientDataJSON,
				AttestationObject: attObj,
			},
		},
		AuthData:       authData,
		ClientDataJSON: clientDataJSON,
	}, nil
}

func coseKeyFor(signer crypto.Signer) (cose_key.Key, error) {
	switch pub := signer.Public().(type) {
	case *ecdsa.PublicKey:
		return protocol.COSEKeyFromECDSA(pub), nil
	case *rsa.PublicKey:
		return protocol.COSEKeyFromRSA(pub), nil
	default:
		return nil, errors.Errorf("unsupported signer key type %T", pub)
	}
}

func buildClientData(typ string, challenge []byte, origin string, mutate func(*protocol.CollectedClientData)) ([]byte, error) {
	if mutate == nil {
		return protocol.BuildClientDataJSON(typ, challenge, origin)
	}

	raw, err := protocol.BuildClientDataJSON(typ, challenge, origin)
	if err != nil {
		return nil, err
	}
	clientData, err := protocol.ParseClientData(raw)
	if err != nil {
		return nil, err
	}
	mutate(clientData)
	return protocol.BuildClientDataJSON(clientData.Type, mustChallengeBytes(clientData), clientData.Origin)
}

func mustChallengeBytes(cd *protocol.CollectedClientData) []byte {
	raw, err := cd.ChallengeBytes()
	if err != nil {
		panic(err)
	}
	return raw
}

func buildAttStmt(format string, signer crypto.Signer, authData, clientDataJSON []byte) (cbor.RawMessage, error) {
	switch format {
	case "", protocol.AttestationFormatNone:
		return cbor.Marshal(map[string]any{})
	case protocol.AttestationFormatPacked:
		sig, err := signOver(signer, authData, clientDataJSON)
		if err != nil {
			return nil, err
		}
		alg := protocol.AlgES256
		if _, ok := signer.Public().(*rsa.PublicKey); ok {
			alg = protocol.AlgRS256
		}
		return cbor.Marshal(map[string]any{
			"alg": int64(alg),
			"sig": sig,
		})
	default:
		return nil, errors.Errorf("unsupported attestation format %q", format)
	}
}

// signOver signs authData || SHA256(clientDataJSON) the way an authenticator
// does. crypto.Signer produces ASN.1 DER for ECDSA keys and PKCS#1 v1.5 for
// RSA keys, matching the verifier's expectations per algorithm.
func signOver(signer crypto.Signer, authData, clientDataJSON []byte) ([]byte, error) {
	digest := sha256.Sum256(webauthn.SignedData(authData, clientDataJSON))
	return signer.Sign(rand.Reader, digest[:], crypto.SHA256)
}
