package creds

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoCredential means no credential is present at all.
	ErrNoCredential = errors.New("no credential")

	// ErrUnauthorized classifies a remote call rejected for a
	// missing, invalid or expired credential. WithAuth inspects this
	// to decide on its one refresh-and-retry.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConsentRequired is the permanent silent-refresh failure:
	// the grant cannot proceed without interactive user consent.
	ErrConsentRequired = errors.New("interactive consent required")

	// ErrReauthRequired is surfaced when the one-shot refresh-and-retry
	// has been exhausted and the caller must re-authenticate.
	ErrReauthRequired = errors.New("re-authentication required")
)

// CredentialStore persists one credential in durable local storage.
type CredentialStore interface {
	// LoadCredential returns the persisted credential, or nil when absent.
	LoadCredential() (*Credential, error)
	SaveCredential(cred *Credential) error
	ClearCredential() error
}

// IdentityProvider performs grants against an identity service.
// Implementations classify failures: a refresh that cannot succeed
// without user interaction wraps ErrConsentRequired; network faults
// stay transient.
type IdentityProvider interface {
	// Refresh exchanges cred for a new credential without user interaction.
	Refresh(ctx context.Context, cred *Credential) (*Credential, error)

	// SignIn runs the interactive consent flow, surfacing verification
	// details through prompt while it waits for the user.
	SignIn(ctx context.Context, prompt ConsentPrompt) (*Credential, error)

	// Validate performs one call against the identity service to check
	// that cred is still accepted.
	Validate(ctx context.Context, cred *Credential) error

	// Revoke invalidates cred with the identity service.
	Revoke(ctx context.Context, cred *Credential) error
}

// ConsentInfo describes a pending interactive authorization.
type ConsentInfo struct {
	// VerificationURL is where the user completes the authorization.
	VerificationURL string
	// UserCode is entered at the verification URL.
	UserCode string
	// ExpiresIn is how long the authorization request stays valid.
	ExpiresIn time.Duration
}

// ConsentPrompt surfaces an interactive authorization request to the
// user. Returning an error aborts the sign-in.
type ConsentPrompt interface {
	Consent(info ConsentInfo) error
}

// ConsentFunc adapts a function to a ConsentPrompt.
type ConsentFunc func(info ConsentInfo) error

func (f ConsentFunc) Consent(info ConsentInfo) error {
	return f(info)
}
