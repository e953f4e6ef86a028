package protocol

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Client data types as defined by the ceremony that produced them.
const (
	ClientDataTypeCreate = "webauthn.create"
	ClientDataTypeGet    = "webauthn.get"
)

// CollectedClientData is the clientDataJSON structure the browser signs over.
// https://www.w3.org/TR/webauthn/#dictionary-client-data
type CollectedClientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"` // base64url-encoded challenge
	Origin      string `json:"origin"`
	CrossOrigin bool   `json:"crossOrigin,omitempty"`
}

// ChallengeBytes decodes the embedded base64url challenge.
func (c *CollectedClientData) ChallengeBytes() ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(c.Challenge, "="))
	if err != nil {
		return nil, errors.Wrap(ErrMalformedJSON, "invalid base64url challenge")
	}
	return raw, nil
}

// ParseClientData decodes clientDataJSON bytes.
func ParseClientData(raw []byte) (*CollectedClientData, error) {
	cd := &CollectedClientData{}
	if err := json.Unmarshal(raw, cd); err != nil {
		return nil, errors.Wrap(ErrMalformedJSON, err.Error())
	}
	if cd.Type == "" || cd.Challenge == "" || cd.Origin == "" {
		return nil, errors.Wrap(ErrMalformedJSON, "missing required client data field")
	}
	return cd, nil
}

// BuildClientDataJSON constructs clientDataJSON bytes the way a browser would.
// typ is ClientDataTypeCreate or ClientDataTypeGet.
func BuildClientDataJSON(typ string, challenge []byte, origin string) ([]byte, error) {
	return json.Marshal(CollectedClientData{
		Type:      typ,
		Challenge: base64.RawURLEncoding.EncodeToString(challenge),
		Origin:    origin,
	})
}

// ClientDataHash computes the SHA-256 of clientDataJSON, the second half of
// the signed data in both ceremonies.
func ClientDataHash(clientDataJSON []byte) [sha256.Size]byte {
	return sha256.Sum256(clientDataJSON)
}
