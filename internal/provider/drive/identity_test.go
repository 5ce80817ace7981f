package drive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkedapp/forked/internal/creds"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newIdentityServer(t *testing.T, mux *http.ServeMux) *identityClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newIdentityClient(srv.URL, "forked-cli", "")
	t.Cleanup(func() { c.Close() })
	return c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "chef@example.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestIdentityRefresh_ExchangesToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body RefreshTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body.RefreshToken)

		writeJSON(t, w, http.StatusOK, &TokenResponse{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			ExpiresIn:    3600,
		})
	})
	c := newIdentityServer(t, mux)

	cred, err := c.Refresh(context.Background(), &creds.Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-2", cred.AccessToken)
	assert.Equal(t, "refresh-2", cred.RefreshToken)
	assert.InDelta(t, time.Now().Add(time.Hour).UnixMilli(), cred.ExpiresAt, float64(10*time.Second.Milliseconds()))
}

func TestIdentityRefresh_InvalidGrantNeedsConsent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, &AuthError{Code: oauthInvalidGrant})
	})
	c := newIdentityServer(t, mux)

	_, err := c.Refresh(context.Background(), &creds.Credential{RefreshToken: "revoked"})

	assert.ErrorIs(t, err, creds.ErrConsentRequired)
}

func TestIdentityRefresh_NoRefreshTokenNeedsConsent(t *testing.T) {
	c := newIdentityServer(t, http.NewServeMux())

	_, err := c.Refresh(context.Background(), &creds.Credential{AccessToken: "only-access"})

	assert.ErrorIs(t, err, creds.ErrConsentRequired)
}

func TestIdentityValidate_ClassifiesOutcome(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/whoami", func(w http.ResponseWriter, r *http.Request) {
		if code := int(status.Load()); code != http.StatusOK {
			writeJSON(t, w, code, &AuthError{Code: oauthInvalidGrant})
			return
		}
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, &WhoAmIResponse{Email: "chef@example.com"})
	})
	c := newIdentityServer(t, mux)
	cred := &creds.Credential{AccessToken: "access-1"}

	require.NoError(t, c.Validate(context.Background(), cred))

	status.Store(http.StatusUnauthorized)
	assert.ErrorIs(t, c.Validate(context.Background(), cred), creds.ErrUnauthorized)
}

func TestIdentityDeviceStart_ReturnsConsentDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/device/start", func(w http.ResponseWriter, r *http.Request) {
		var body DeviceAuthRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "forked-cli", body.ClientID)

		writeJSON(t, w, http.StatusOK, &DeviceAuthResponse{
			DeviceCode:      "dev-1",
			UserCode:        "WXYZ-1234",
			VerificationURL: "https://forked.app/activate",
			ExpiresIn:       600,
			Interval:        5,
		})
	})
	c := newIdentityServer(t, mux)

	start, err := c.startDeviceAuth(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "dev-1", start.DeviceCode)
	assert.Equal(t, "WXYZ-1234", start.UserCode)
}

func TestIdentityPollDeviceToken_MapsGrantErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"pending", oauthAuthorizationPending, errAuthorizationPending},
		{"slow down", oauthSlowDown, errSlowDown},
		{"denied", oauthAccessDenied, ErrAuthorizationDenied},
		{"expired", oauthExpiredToken, ErrAuthorizationExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /auth/device/token", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusBadRequest, &AuthError{Code: tt.code})
			})
			c := newIdentityServer(t, mux)

			_, err := c.pollDeviceToken(context.Background(), "dev-1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIdentitySignIn_PollsUntilGranted(t *testing.T) {
	var polls atomic.Int32
	var consented atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/device/start", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, &DeviceAuthResponse{
			DeviceCode:      "dev-1",
			UserCode:        "WXYZ-1234",
			VerificationURL: "https://forked.app/activate",
			ExpiresIn:       600,
			Interval:        1,
		})
	})
	mux.HandleFunc("POST /auth/device/token", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) == 1 {
			writeJSON(t, w, http.StatusBadRequest, &AuthError{Code: oauthAuthorizationPending})
			return
		}
		writeJSON(t, w, http.StatusOK, &TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
		})
	})
	c := newIdentityServer(t, mux)

	prompt := creds.ConsentFunc(func(info creds.ConsentInfo) error {
		consented.Store(true)
		assert.Equal(t, "WXYZ-1234", info.UserCode)
		assert.Equal(t, "https://forked.app/activate", info.VerificationURL)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cred, err := c.SignIn(ctx, prompt)

	require.NoError(t, err)
	assert.True(t, consented.Load(), "consent prompt must run before polling completes")
	assert.Equal(t, int32(2), polls.Load())
	assert.Equal(t, "access-1", cred.AccessToken)
	assert.Equal(t, "refresh-1", cred.RefreshToken)
}

func TestIdentitySignIn_ConsentAbortStopsFlow(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/device/start", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, &DeviceAuthResponse{
			DeviceCode:      "dev-1",
			UserCode:        "WXYZ-1234",
			VerificationURL: "https://forked.app/activate",
			ExpiresIn:       600,
			Interval:        1,
		})
	})
	mux.HandleFunc("POST /auth/device/token", func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		writeJSON(t, w, http.StatusBadRequest, &AuthError{Code: oauthAuthorizationPending})
	})
	c := newIdentityServer(t, mux)

	abort := errors.New("user closed the screen")
	_, err := c.SignIn(context.Background(), creds.ConsentFunc(func(creds.ConsentInfo) error {
		return abort
	}))

	assert.ErrorIs(t, err, abort)
	assert.Equal(t, int32(0), polls.Load(), "aborted consent must never poll")
}

func TestTokenToCredential_ExpirySources(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("expiresIn wins", func(t *testing.T) {
		cred := tokenToCredential(&TokenResponse{AccessToken: "a", ExpiresIn: 600}, now)
		assert.Equal(t, now.Add(10*time.Minute).UnixMilli(), cred.ExpiresAt)
	})

	t.Run("falls back to jwt exp claim", func(t *testing.T) {
		exp := now.Add(45 * time.Minute)
		cred := tokenToCredential(&TokenResponse{AccessToken: signedToken(t, exp)}, now)
		assert.Equal(t, exp.Unix()*1000, cred.ExpiresAt)
	})

	t.Run("no expiry metadata at all", func(t *testing.T) {
		cred := tokenToCredential(&TokenResponse{AccessToken: "opaque-token"}, now)
		assert.False(t, cred.HasExpiry())
	})
}
