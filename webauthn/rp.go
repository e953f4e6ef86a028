package webauthn

import (
	"github.com/pkg/errors"

	"github.com/splitsecure/go-webauthn-rp/protocol"
)

// RelyingParty is the immutable per-deployment identity of this server.
// It is passed into the engine at construction, never read from mutable
// process-wide state.
type RelyingParty struct {
	ID     string // rp id, the effective domain, e.g. "example.com"
	Name   string // human-readable display name
	Origin string // expected web origin, e.g. "https://example.com"
}

// AttestationPolicy decides whether an attestation statement is acceptable.
// The default accepts "none" and structurally well-formed self attestations;
// trust-chain validation belongs to callers that need it.
type AttestationPolicy func(format string, statement map[string]any, authData, clientDataHash []byte) error

// Engine runs registration and authentication ceremonies for one relying
// party. It is stateless between calls apart from the challenge store and is
// safe for concurrent use across independent ceremonies.
type Engine struct {
	rp         RelyingParty
	challenges *ChallengeManager
	policy     AttestationPolicy
}

type optionsState struct {
	policy AttestationPolicy
}

type option struct {
	apply func(*optionsState)
}

func newoption(fn func(*optionsState)) option {
	return option{apply: fn}
}

// WithAttestationPolicy replaces the default attestation statement policy.
func WithAttestationPolicy(policy AttestationPolicy) option {
	return newoption(func(s *optionsState) {
		s.policy = policy
	})
}

// NewEngine builds a ceremony engine for the given relying party.
func NewEngine(rp RelyingParty, challenges *ChallengeManager, options ...option) *Engine {
	state := optionsState{}
	for _, option := range options {
		option.apply(&state)
	}

	policy := state.policy
	if policy == nil {
		policy = DefaultAttestationPolicy
	}

	return &Engine{
		rp:         rp,
		challenges: challenges,
		policy:     policy,
	}
}

// RP returns the relying party the engine was built for.
func (e *Engine) RP() RelyingParty {
	return e.rp
}

// DefaultAttestationPolicy accepts "none" attestation unconditionally and
// requires declared formats to carry the fields that make them decodable.
// Formats this policy cannot structurally validate are rejected outright.
// It performs no trust-chain validation.
func DefaultAttestationPolicy(format string, statement map[string]any, authData, clientDataHash []byte) error {
	switch format {
	case protocol.AttestationFormatNone:
		if len(statement) != 0 {
			return ErrAttestationFormat
		}
	case protocol.AttestationFormatPacked:
		if _, ok := statement["alg"]; !ok {
			return ErrAttestationFormat
		}
		if _, ok := statement["sig"]; !ok {
			return ErrAttestationFormat
		}
	default:
		return errors.Wrapf(ErrAttestationFormat, "unknown attestation format %q", format)
	}
	return nil
}
