package service

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/splitsecure/go-webauthn-rp/core"
	"github.com/splitsecure/go-webauthn-rp/ports"
	"github.com/splitsecure/go-webauthn-rp/protocol"
	"github.com/splitsecure/go-webauthn-rp/webauthn"
)

// storeTimeout bounds credential-store calls made by the service.
const storeTimeout = 3 * time.Second

// CeremonyService orchestrates ceremony verification with credential
// persistence and security event publishing.
type CeremonyService struct {
	engine      *webauthn.Engine
	credentials ports.CredentialStore
	events      ports.EventPublisher
}

// NewCeremonyService creates a new ceremony service.
func NewCeremonyService(engine *webauthn.Engine, credentials ports.CredentialStore, events ports.EventPublisher) *CeremonyService {
	return &CeremonyService{
		engine:      engine,
		credentials: credentials,
		events:      events,
	}
}

// BeginRegistrationRequest mirrors the register/options request body.
type BeginRegistrationRequest struct {
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
	UserDisplayName string `json:"user_display_name"`

	AuthenticatorAttachment string `json:"authenticator_attachment,omitempty"`
	ResidentKey             string `json:"resident_key,omitempty"`
	Attestation             string `json:"attestation,omitempty"`
	TimeoutMillis           int    `json:"timeout,omitempty"`
}

// BeginRegistration issues a registration challenge and returns the creation
// options payload.
func (s *CeremonyService) BeginRegistration(ctx context.Context, req *BeginRegistrationRequest) (*webauthn.CredentialCreationOptions, error) {
	residentKey := req.ResidentKey
	if residentKey == "" {
		residentKey = webauthn.ResidentKeyPreferred
	}

	return s.engine.CreateRegistrationOptions(ctx, &webauthn.RegistrationOptionsInput{
		UserHandle:      []byte(req.UserID),
		UserName:        req.UserName,
		UserDisplayName: req.UserDisplayName,
		AuthenticatorSelection: &webauthn.AuthenticatorSelection{
			AuthenticatorAttachment: req.AuthenticatorAttachment,
			ResidentKey:             residentKey,
		},
		Attestation:   req.Attestation,
		TimeoutMillis: req.TimeoutMillis,
	})
}

// FinishRegistrationRequest mirrors the register/verify request body.
type FinishRegistrationRequest struct {
	Credential        webauthn.RegistrationResponse `json:"credential"`
	ExpectedChallenge protocol.Base64URL            `json:"expected_challenge"`
	ExpectedOrigin    string                        `json:"expected_origin,omitempty"`
	ExpectedRPID      string                        `json:"expected_rp_id,omitempty"`
	UserID            string                        `json:"user_id"`

	RequireUserVerification bool `json:"require_user_verification"`
}

// RegistrationResult is the credential summary returned to the caller.
type RegistrationResult struct {
	CredentialID protocol.Base64URL `json:"credential_id"`
	SignCount    uint32             `json:"sign_count"`
	UserHandle   protocol.Base64URL `json:"user_handle"`
	CreatedAt    time.Time          `json:"created_at"`
}

// FinishRegistration verifies an attestation response and persists the
// resulting credential record. A duplicate credential id is a conflict.
func (s *CeremonyService) FinishRegistration(ctx context.Context, req *FinishRegistrationRequest) (*RegistrationResult, error) {
	out, err := s.engine.VerifyRegistration(ctx, &webauthn.VerifyRegistrationInput{
		Response:                &req.Credential,
		ExpectedChallenge:       req.ExpectedChallenge,
		ExpectedOrigin:          req.ExpectedOrigin,
		ExpectedRPID:            req.ExpectedRPID,
		UserHandle:              []byte(req.UserID),
		RequireUserVerification: req.RequireUserVerification,
	})
	if err != nil {
		return nil, err
	}

	saveCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.credentials.Save(saveCtx, &out.Credential); err != nil {
		if errors.Is(err, core.ErrDuplicateCredentialID) {
			return nil, err
		}
		return nil, errors.Wrap(core.ErrStoreUnavailable, err.Error())
	}

	// Event delivery is best effort; the credential is already persisted.
	rp := s.engine.RP()
	if err := s.events.PublishCredentialRegistered(ctx, rp.ID, out.Credential.CredentialID, out.Credential.UserHandle); err != nil {
		log.Printf("warning: failed to publish registration event: %v", err)
	}

	return &RegistrationResult{
		CredentialID: out.Credential.CredentialID,
		SignCount:    out.Credential.SignCount,
		UserHandle:   out.Credential.UserHandle,
		CreatedAt:    out.Credential.CreatedAt,
	}, nil
}

// BeginAuthenticationRequest mirrors the auth/options request body.
type BeginAuthenticationRequest struct {
	CredentialID     protocol.Base64URL `json:"credential_id"`
	UserVerification string             `json:"user_verification,omitempty"`
	TimeoutMillis    int                `json:"timeout,omitempty"`
}

// BeginAuthentication issues an authentication challenge and returns the
// request options payload.
func (s *CeremonyService) BeginAuthentication(ctx context.Context, req *BeginAuthenticationRequest) (*webauthn.CredentialRequestOptions, error) {
	allowed := []core.CredentialDescriptor{}
	if len(req.CredentialID) > 0 {
		descriptor := core.CredentialDescriptor{
			CredentialID: req.CredentialID,
			Transports:   []core.AuthenticatorTransport{core.TransportInternal},
		}
		loadCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		if record, err := s.credentials.Load(loadCtx, req.CredentialID); err == nil && len(record.Transports) > 0 {
			descriptor.Transports = record.Transports
		}
		allowed = append(allowed, descriptor)
	}

	return s.engine.CreateAuthenticationOptions(ctx, &webauthn.AuthenticationOptionsInput{
		AllowedCredentials: allowed,
		UserVerification:   req.UserVerification,
		TimeoutMillis:      req.TimeoutMillis,
	})
}

// FinishAuthenticationRequest mirrors the auth/verify request body.
type FinishAuthenticationRequest struct {
	Credential        webauthn.AssertionResponse `json:"credential"`
	ExpectedChallenge protocol.Base64URL         `json:"expected_challenge"`
	ExpectedOrigin    string                     `json:"expected_origin,omitempty"`
	ExpectedRPID      string                     `json:"expected_rp_id,omitempty"`

	RequireUserVerification bool `json:"require_user_verification"`
}

// AuthenticationResult reports the persisted counter after a verified
// assertion.
type AuthenticationResult struct {
	CredentialID protocol.Base64URL `json:"credential_id"`
	NewSignCount uint32             `json:"new_sign_count"`
}

// FinishAuthentication verifies an assertion against the stored credential
// and persists the new sign count. Clone detection is published as an event
// in addition to the returned error so fraud pipelines see it even when the
// transport caller mishandles the response.
func (s *CeremonyService) FinishAuthentication(ctx context.Context, req *FinishAuthenticationRequest) (*AuthenticationResult, error) {
	loadCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	record, err := s.credentials.Load(loadCtx, req.Credential.RawID)
	if err != nil {
		if errors.Is(err, core.ErrCredentialNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(core.ErrStoreUnavailable, err.Error())
	}

	rp := s.engine.RP()
	out, err := s.engine.VerifyAuthentication(ctx, &webauthn.VerifyAuthenticationInput{
		Response:                &req.Credential,
		ExpectedChallenge:       req.ExpectedChallenge,
		ExpectedOrigin:          req.ExpectedOrigin,
		ExpectedRPID:            req.ExpectedRPID,
		Credential:              record,
		RequireUserVerification: req.RequireUserVerification,
	})
	if err != nil {
		if errors.Is(err, webauthn.ErrPossibleCloneDetected) {
			if pubErr := s.events.PublishCloneDetected(ctx, rp.ID, record.CredentialID, record.SignCount, signCountOf(&req.Credential)); pubErr != nil {
				log.Printf("warning: failed to publish clone detection event: %v", pubErr)
			}
		}
		return nil, err
	}

	updateCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.credentials.UpdateSignCount(updateCtx, record.CredentialID, out.NewSignCount); err != nil {
		return nil, errors.Wrap(core.ErrStoreUnavailable, err.Error())
	}

	return &AuthenticationResult{
		CredentialID: record.CredentialID,
		NewSignCount: out.NewSignCount,
	}, nil
}

// signCountOf extracts the asserted counter for event reporting; a response
// that fails to parse reports zero.
func signCountOf(response *webauthn.AssertionResponse) uint32 {
	authData := protocol.AuthenticatorData{}
	if err := protocol.UnmarshalAuthenticatorData(response.Response.AuthenticatorData, &authData); err != nil {
		return 0
	}
	return authData.SignCount
}
