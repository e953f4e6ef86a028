package mint

import (
	"crypto"
	"crypto/sha256"

	"github.com/splitsecure/go-webauthn-rp/protocol"
	"github.com/splitsecure/go-webauthn-rp/webauthn"
)

type AssertionInput struct {
	Signer crypto.Signer

	Challenge    []byte
	Origin       string
	RPID         string
	CredentialID []byte
	SignCount    uint32
	Flags        byte
	UserHandle   []byte

	MutateClientData func(*protocol.CollectedClientData)
}

type AssertionOutput struct {
	Response webauthn.AssertionResponse

	AuthData       []byte
	ClientDataJSON []byte
	Signature      []byte
}

// GenerateAssertion builds a signed assertion response for the given ceremony
// context.
func GenerateAssertion(in *AssertionInput) (AssertionOutput, error) {
	rpIDHash := sha256.Sum256([]byte(in.RPID))
	authenticatorData := protocol.AuthenticatorData{
		RPIDHash:  rpIDHash[:],
		Flags:     in.Flags,
		SignCount: in.SignCount,
	}

	authData, err := protocol.MarshalAuthenticatorData(&authenticatorData)
	if err != nil {
		return AssertionOutput{}, err
	}

	clientDataJSON, err := buildClientData(protocol.ClientDataTypeGet, in.Challenge, in.Origin, in.MutateClientData)
	if err != nil {
		return AssertionOutput{}, err
	}

	sig, err := signOver(in.Signer, authData, clientDataJSON)
	if err != nil {
		return AssertionOutput{}, err
	}

	return AssertionOutput{
		Response: webauthn.AssertionResponse{
			ID:    protocol.Base64URL(in.CredentialID).String(),
			RawID: in.CredentialID,
			Type:  "public-key",
			Response: webauthn.AuthenticatorAssertionReply{
				ClientDataJSON:    clientDataJSON,
				AuthenticatorData: authData,
				Signature:         sig,
				UserHandle:        in.UserHandle,
			},
		},
		AuthData:       authData,
		ClientDataJSON: clientDataJSON,
		Signature:      sig,
	}, nil
}
