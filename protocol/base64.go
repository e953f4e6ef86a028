package protocol

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Base64URL is a byte string that crosses the wire as a base64url string,
// as all binary fields in WebAuthn JSON payloads do. Padded and unpadded
// encodings are both accepted on input; output is always unpadded.
type Base64URL []byte

func (b Base64URL) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.RawURLEncoding.EncodeToString(b))
}

func (b *Base64URL) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(ErrMalformedJSON, "base64url field is not a string")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return errors.Wrap(ErrMalformedJSON, "invalid base64url")
	}
	*b = raw
	return nil
}

func (b Base64URL) String() string {
	return base64.RawURLEncoding.EncodeToString(b)
}
