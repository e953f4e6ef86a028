package webauthn

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/pkg/errors"
	"github.com/splitsecure/go-webauthn-rp/protocol"
)

// SignedData builds the byte string the authenticator signed:
// authenticatorData || SHA256(clientDataJSON). Identical for both ceremonies.
func SignedData(authData, clientDataJSON []byte) []byte {
	clientDataHash := protocol.ClientDataHash(clientDataJSON)
	signed := make([]byte, 0, len(authData)+len(clientDataHash))
	signed = append(signed, authData...)
	signed = append(signed, clientDataHash[:]...)
	return signed
}

// VerifySignature checks the signature over signedData against the credential
// public key. This is the trust boundary of the whole module: an unknown
// algorithm is rejected, never silently accepted.
func VerifySignature(key *protocol.PublicKey, signedData, signature []byte) error {
	digest := sha256.Sum256(signedData)

	switch key.Algorithm {
	case protocol.AlgES256:
		pub, err := key.ECDSA()
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(pub, digest[:], signature) {
			return ErrSignatureInvalid
		}
		return nil

	case protocol.AlgRS256:
		pub, err := key.RSAPublic()
		if err != nil {
			return err
		}
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], signature); err != nil {
			return ErrSignatureInvalid
		}
		return nil

	default:
		return errors.Wrapf(protocol.ErrUnsupportedAlgorithm, "cose algorithm %d", key.Algorithm)
	}
}
