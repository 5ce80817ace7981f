package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"resty.dev/v3"

	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/utils"
	"github.com/forkedapp/forked/internal/version"
)

const (
	authDeviceStart = "/auth/device/start"
	authDeviceToken = "/auth/device/token"
	authRefresh     = "/auth/refresh"
	authWhoAmI      = "/auth/whoami"
	authRevoke      = "/auth/revoke"

	devicePollInterval = 5 * time.Second
)

var (
	// ErrAuthorizationDenied means the user refused the consent request.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrAuthorizationExpired means the device authorization lapsed
	// before the user completed it.
	ErrAuthorizationExpired = errors.New("authorization request expired")

	errAuthorizationPending = errors.New("authorization pending")
	errSlowDown             = errors.New("slow down")
)

// identityClient talks to the Forked Cloud identity endpoints. It
// implements creds.IdentityProvider: permanent grant failures wrap
// creds.ErrConsentRequired, rejected access tokens wrap
// creds.ErrUnauthorized, network faults stay transient.
type identityClient struct {
	client   *resty.Client
	clientID string
	email    string
}

func newIdentityClient(authURL, clientID, email string) *identityClient {
	client := resty.New().
		SetBaseURL(authURL).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader(HeaderUserAgent, ForkedUserAgent).
		SetHeader(HeaderForkedVersion, version.Version).
		SetHeader(HeaderForkedDeviceId, utils.HWID).
		AddContentTypeEncoder("json", encodeJSON).
		AddContentTypeDecoder("json", decodeJSON)

	return &identityClient{
		client:   client,
		clientID: clientID,
		email:    email,
	}
}

func (c *identityClient) Close() error {
	return c.client.Close()
}

// SignIn runs the device authorization grant: request a user code,
// surface it through prompt, then poll the token endpoint until the
// user approves, refuses, or the authorization expires.
func (c *identityClient) SignIn(ctx context.Context, prompt creds.ConsentPrompt) (*creds.Credential, error) {
	start, err := c.startDeviceAuth(ctx)
	if err != nil {
		return nil, err
	}

	slog.Debug("device auth started", "verificationUrl", start.VerificationURL, "userCode", start.UserCode)

	if prompt != nil {
		err := prompt.Consent(creds.ConsentInfo{
			VerificationURL: start.VerificationURL,
			UserCode:        start.UserCode,
			ExpiresIn:       time.Duration(start.ExpiresIn) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("consent aborted: %w", err)
		}
	}

	interval := time.Duration(start.Interval) * time.Second
	if interval <= 0 {
		interval = devicePollInterval
	}
	deadline := time.Now().Add(time.Duration(start.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		if time.Now().After(deadline) {
			return nil, ErrAuthorizationExpired
		}

		tok, err := c.pollDeviceToken(ctx, start.DeviceCode)
		switch {
		case errors.Is(err, errAuthorizationPending):
			continue
		case errors.Is(err, errSlowDown):
			interval += devicePollInterval
			continue
		case err != nil:
			return nil, err
		}

		return tokenToCredential(tok, time.Now()), nil
	}
}

// Refresh exchanges the refresh token for a fresh credential. A grant
// the server will never honor again (revoked, expired) wraps
// creds.ErrConsentRequired so the manager falls back to interactive
// sign-in instead of retrying forever.
func (c *identityClient) Refresh(ctx context.Context, cred *creds.Credential) (*creds.Credential, error) {
	if cred == nil || cred.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token: %w", creds.ErrConsentRequired)
	}

	var tok TokenResponse
	var authErr AuthError

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(&RefreshTokenRequest{RefreshToken: cred.RefreshToken}).
		SetResult(&tok).
		SetError(&authErr).
		Post(authRefresh)

	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	if res.IsError() {
		switch authErr.Code {
		case oauthInvalidGrant, oauthExpiredToken:
			return nil, fmt.Errorf("refresh grant rejected: %w", creds.ErrConsentRequired)
		}
		if authErr.Code != "" {
			return nil, fmt.Errorf("refresh token: %w", &authErr)
		}
		return nil, fmt.Errorf("refresh token: %s", res.String())
	}

	slog.Debug("token refreshed", "accessToken", utils.MaskSecret(tok.AccessToken))
	return tokenToCredential(&tok, time.Now()), nil
}

// Validate makes one authenticated call to check the access token is
// still accepted.
func (c *identityClient) Validate(ctx context.Context, cred *creds.Credential) error {
	if cred == nil || cred.AccessToken == "" {
		return creds.ErrNoCredential
	}

	var who WhoAmIResponse
	var authErr AuthError

	res, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(cred.AccessToken).
		SetResult(&who).
		SetError(&authErr).
		Get(authWhoAmI)

	if err != nil {
		return fmt.Errorf("validate token: %w", err)
	}

	if res.IsError() {
		if res.StatusCode() == 401 {
			return fmt.Errorf("validate token: %w", creds.ErrUnauthorized)
		}
		return fmt.Errorf("validate token: %s", res.String())
	}

	slog.Debug("token valid", "email", who.Email)
	return nil
}

// Revoke invalidates the grant server-side. Revoking the refresh token
// kills the whole session, not just the current access token.
func (c *identityClient) Revoke(ctx context.Context, cred *creds.Credential) error {
	if cred == nil || cred.RefreshToken == "" {
		return nil
	}

	var authErr AuthError

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(&RevokeTokenRequest{Token: cred.RefreshToken}).
		SetError(&authErr).
		Post(authRevoke)

	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	if res.IsError() {
		return fmt.Errorf("revoke token: %s", res.String())
	}

	return nil
}

func (c *identityClient) startDeviceAuth(ctx context.Context) (*DeviceAuthResponse, error) {
	var start DeviceAuthResponse
	var authErr AuthError

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(&DeviceAuthRequest{ClientID: c.clientID, Email: c.email}).
		SetResult(&start).
		SetError(&authErr).
		Post(authDeviceStart)

	if err != nil {
		return nil, fmt.Errorf("start device auth: %w", err)
	}

	if res.IsError() {
		if authErr.Code != "" {
			return nil, fmt.Errorf("start device auth: %w", &authErr)
		}
		return nil, fmt.Errorf("start device auth: %s", res.String())
	}

	if start.DeviceCode == "" || start.VerificationURL == "" {
		return nil, fmt.Errorf("start device auth: malformed response")
	}

	return &start, nil
}

func (c *identityClient) pollDeviceToken(ctx context.Context, deviceCode string) (*TokenResponse, error) {
	var tok TokenResponse
	var authErr AuthError

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(&DeviceTokenRequest{ClientID: c.clientID, DeviceCode: deviceCode}).
		SetResult(&tok).
		SetError(&authErr).
		Post(authDeviceToken)

	if err != nil {
		return nil, fmt.Errorf("poll device token: %w", err)
	}

	if res.IsError() {
		switch authErr.Code {
		case oauthAuthorizationPending:
			return nil, errAuthorizationPending
		case oauthSlowDown:
			return nil, errSlowDown
		case oauthAccessDenied:
			return nil, ErrAuthorizationDenied
		case oauthExpiredToken:
			return nil, ErrAuthorizationExpired
		}
		if authErr.Code != "" {
			return nil, fmt.Errorf("poll device token: %w", &authErr)
		}
		return nil, fmt.Errorf("poll device token: %s", res.String())
	}

	return &tok, nil
}

// tokenToCredential converts a token response into a stored credential.
// When the server omits expiresIn, the exp claim of the JWT access
// token is used; tokens carrying neither are stored without expiry
// metadata and validated on demand.
func tokenToCredential(tok *TokenResponse, now time.Time) *creds.Credential {
	cred := &creds.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}

	if tok.ExpiresIn > 0 {
		cred.ExpiresAt = now.Add(time.Duration(tok.ExpiresIn) * time.Second).UnixMilli()
	} else if exp, ok := tokenExpiry(tok.AccessToken); ok {
		cred.ExpiresAt = exp.UnixMilli()
	}

	return cred
}

// tokenExpiry extracts the exp claim without verifying the signature.
// The server remains the authority on validity; the client only needs
// the timestamp to schedule refreshes.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
