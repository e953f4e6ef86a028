package protocol

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/ldclabs/cose/iana"
	cose_key "github.com/ldclabs/cose/key"
	"github.com/pkg/errors"
)

// Algorithm is a COSE algorithm identifier.
// https://www.iana.org/assignments/cose/cose.xhtml#algorithms
type Algorithm int64

const (
	AlgES256 Algorithm = iana.AlgorithmES256 // ECDSA-P256 with SHA-256
	AlgRS256 Algorithm = iana.AlgorithmRS256 // RSASSA-PKCS1-v1_5 with SHA-256
)

// PublicKey is a closed variant over the credential key types this relying
// party accepts, keyed by the COSE algorithm. Exactly one of EC2/RSA is set.
type PublicKey struct {
	Algorithm Algorithm `json:"algorithm"`
	EC2       *EC2Key   `json:"ec2,omitempty"`
	RSA       *RSAKey   `json:"rsa,omitempty"`
}

// EC2Key holds P-256 point coordinates, 32 bytes each.
type EC2Key struct {
	X Base64URL `json:"x"`
	Y Base64URL `json:"y"`
}

// RSAKey holds a big-endian modulus and public exponent.
type RSAKey struct {
	N Base64URL `json:"n"`
	E Base64URL `json:"e"`
}

// coseKeyFields is the raw CBOR shape of a COSE_Key. The meaning of the
// negative labels depends on the key type: for EC2 -1 is the curve and
// -2/-3 are coordinates, for RSA -1/-2 are modulus and exponent.
type coseKeyFields struct {
	KeyType   int64           `cbor:"1,keyasint"`
	Algorithm int64           `cbor:"3,keyasint"`
	Label1    cbor.RawMessage `cbor:"-1,keyasint,omitempty"`
	Label2    cbor.RawMessage `cbor:"-2,keyasint,omitempty"`
	Label3    cbor.RawMessage `cbor:"-3,keyasint,omitempty"`
}

// ParseCOSEKey decodes a CBOR-encoded COSE public key into the typed variant.
func ParseCOSEKey(raw []byte) (*PublicKey, error) {
	fields := coseKeyFields{}
	if err := cbor.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(ErrBadKeyStructure, err.Error())
	}

	switch fields.Algorithm {
	case int64(AlgES256):
		return parseEC2Key(&fields)
	case int64(AlgRS256):
		return parseRSAKey(&fields)
	default:
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "cose algorithm %d", fields.Algorithm)
	}
}

// PublicKeyFromCOSE converts an ldclabs COSE key container, as carried inside
// attested credential data, into the typed variant.
func PublicKeyFromCOSE(k cose_key.Key) (*PublicKey, error) {
	raw, err := cbor.Marshal(k)
	if err != nil {
		return nil, errors.Wrap(ErrBadKeyStructure, err.Error())
	}
	return ParseCOSEKey(raw)
}

func parseEC2Key(fields *coseKeyFields) (*PublicKey, error) {
	if fields.KeyType != iana.KeyTypeEC2 {
		return nil, errors.Wrapf(ErrBadKeyStructure, "ES256 requires EC2 key type, got %d", fields.KeyType)
	}

	var crv int64
	if err := cbor.Unmarshal(fields.Label1, &crv); err != nil || crv != iana.EllipticCurveP_256 {
		return nil, errors.Wrap(ErrBadKeyStructure, "ES256 requires curve P-256")
	}

	var x, y []byte
	if err := cbor.Unmarshal(fields.Label2, &x); err != nil {
		return nil, errors.Wrap(ErrBadKeyStructure, "ec2 x coordinate")
	}
	if err := cbor.Unmarshal(fields.Label3, &y); err != nil {
		return nil, errors.Wrap(ErrBadKeyStructure, "ec2 y coordinate")
	}
	if len(x) != 32 || len(y) != 32 {
		return nil, errors.Wrap(ErrBadKeyStructure, "ec2 coordinates must be 32 bytes")
	}

	return &PublicKey{
		Algorithm: AlgES256,
		EC2:       &EC2Key{X: x, Y: y},
	}, nil
}

func parseRSAKey(fields *coseKeyFields) (*PublicKey, error) {
	if fields.KeyType != iana.KeyTypeRSA {
		return nil, errors.Wrapf(ErrBadKeyStructure, "RS256 requires RSA key type, got %d", fields.KeyType)
	}

	var n, e []byte
	if err := cbor.Unmarshal(fields.Label1, &n); err != nil || len(n) == 0 {
		return nil, errors.Wrap(ErrBadKeyStructure, "rsa modulus")
	}
	if err := cbor.Unmarshal(fields.Label2, &e); err != nil || len(e) == 0 || len(e) > 8 {
		return nil, errors.Wrap(ErrBadKeyStructure, "rsa exponent")
	}

	return &PublicKey{
		Algorithm: AlgRS256,
		RSA:       &RSAKey{N: n, E: e},
	}, nil
}

// ECDSA materializes the P-256 public key. Only valid for AlgES256.
func (k *PublicKey) ECDSA() (*ecdsa.PublicKey, error) {
	if k.Algorithm != AlgES256 || k.EC2 == nil {
		return nil, errors.Wrap(ErrBadKeyStructure, "not an EC2 key")
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(k.EC2.X),
		Y:     new(big.Int).SetBytes(k.EC2.Y),
	}, nil
}

// RSAPublic materializes the RSA public key. Only valid for AlgRS256.
func (k *PublicKey) RSAPublic() (*rsa.PublicKey, error) {
	if k.Algorithm != AlgRS256 || k.RSA == nil {
		return nil, errors.Wrap(ErrBadKeyStructure, "not an RSA key")
	}
	e := new(big.Int).SetBytes(k.RSA.E)
	if !e.IsInt64() || e.Int64() < 3 {
		return nil, errors.Wrap(ErrBadKeyStructure, "rsa exponent out of range")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(k.RSA.N),
		E: int(e.Int64()),
	}, nil
}

// COSEKeyFromECDSA builds the COSE container for a P-256 public key.
func COSEKeyFromECDSA(pub *ecdsa.PublicKey) cose_key.Key {
	x := make([]byte, 32)
	y := make([]byte, 32)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)

	return cose_key.Key{
		iana.KeyParameterKty:    iana.KeyTypeEC2,
		iana.KeyParameterAlg:    iana.AlgorithmES256,
		iana.EC2KeyParameterCrv: iana.EllipticCurveP_256,
		iana.EC2KeyParameterX:   x,
		iana.EC2KeyParameterY:   y,
	}
}

// COSEKeyFromRSA builds the COSE container for an RSA public key.
func COSEKeyFromRSA(pub *rsa.PublicKey) cose_key.Key {
	return cose_key.Key{
		iana.KeyParameterKty:  iana.KeyTypeRSA,
		iana.KeyParameterAlg:  iana.AlgorithmRS256,
		iana.RSAKeyParameterN: pub.N.Bytes(),
		iana.RSAKeyParameterE: big.NewInt(int64(pub.E)).Bytes(),
	}
}
