// Package creds manages the access credential lifecycle: persistence,
// expiry tracking, silent refresh and the retry-after-refresh wrapper
// used by authenticated remote calls.
package creds

import (
	"time"
)

// ExpirySafetyMargin is how close to expiry a credential may get before
// it is refreshed instead of used as-is.
const ExpirySafetyMargin = 5 * time.Minute

// Credential is an access token plus its expiry and the refresh token
// a prompt-less grant exchanges. ExpiresAt is ms since epoch, 0 when
// the identity provider reported no expiry.
type Credential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    int64  `json:"expiresAt,omitempty"`
}

// HasExpiry reports whether expiry metadata is present.
func (c *Credential) HasExpiry() bool {
	return c != nil && c.ExpiresAt > 0
}

// ExpiresIn returns the time remaining until expiry at the given instant.
// Negative when already expired. Zero when no expiry metadata exists.
func (c *Credential) ExpiresIn(now time.Time) time.Duration {
	if !c.HasExpiry() {
		return 0
	}
	return time.UnixMilli(c.ExpiresAt).Sub(now)
}

// Expired reports whether the credential's expiry has passed.
func (c *Credential) Expired(now time.Time) bool {
	return c.HasExpiry() && c.ExpiresIn(now) <= 0
}

// FreshFor reports whether the expiry is known and further than margin away.
func (c *Credential) FreshFor(now time.Time, margin time.Duration) bool {
	return c.HasExpiry() && c.ExpiresIn(now) > margin
}

// Clone returns a copy so callers cannot mutate managed state.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
