package protocol

import "errors"

// Codec errors. Every decode in this package validates length bounds before
// indexing; out-of-range or truncated input surfaces as one of these values,
// usually wrapped with context.
var (
	ErrMalformedJSON        = errors.New("malformed client data JSON")
	ErrTruncated            = errors.New("truncated authenticator data")
	ErrBadFlagLayout        = errors.New("flag set but corresponding data block missing")
	ErrMalformedCBOR        = errors.New("malformed CBOR structure")
	ErrBadKeyStructure      = errors.New("bad COSE key structure")
	ErrUnsupportedAlgorithm = errors.New("unsupported COSE algorithm")
)
