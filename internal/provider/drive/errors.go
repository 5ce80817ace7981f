package drive

import (
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"

	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/provider"
)

// Error codes of the Forked Cloud API. The identity endpoints use the
// RFC 8628 grant values below instead.
const (
	CodeBadRequest   = "bad_request"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
	CodeForbidden    = "forbidden"
	CodeTokenInvalid = "token_invalid"

	CodeFileNotFound      = "file_not_found"
	CodeContainerNotFound = "container_not_found"
	CodeContainerExists   = "container_exists"
)

// OAuth device-grant error codes (RFC 8628 section 3.5 values).
const (
	oauthAuthorizationPending = "authorization_pending"
	oauthSlowDown             = "slow_down"
	oauthAccessDenied         = "access_denied"
	oauthExpiredToken         = "expired_token"
	oauthInvalidGrant         = "invalid_grant"
)

// APIError is the error envelope the Forked Cloud API returns on
// non-2xx responses.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s: %s", e.Code, e.Message)
}

// AuthError is the OAuth-style error envelope of the identity
// endpoints. Code carries an RFC 8628 grant error value.
type AuthError struct {
	Code        string `json:"error"`
	Description string `json:"errorDescription,omitempty"`
}

func (e *AuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("auth %s: %s", e.Code, e.Description)
	}
	return "auth " + e.Code
}

// apiError folds the transport error and the error envelope into one
// classified error. Whole-credential failures map to
// creds.ErrUnauthorized so the manager can run its refresh-and-retry;
// missing resources map to provider.ErrNotFound.
func apiError(op string, res *req.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !res.IsErrorState() {
		return nil
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, creds.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, provider.ErrNotFound)
	}

	if apiErr, ok := res.ErrorResult().(*APIError); ok && apiErr.Code != "" {
		return fmt.Errorf("%s: %w", op, apiErr)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status)
}
