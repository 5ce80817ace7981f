package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/client/middleware"
)

func TestAddrToURL(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
		err  bool
	}{
		{"addr-with-host-port", "localhost:8080", "http://localhost:8080", false},
		{"addr-with-ip-port", "0.0.0.0:8080", "http://0.0.0.0:8080", false},
		{"addr-with-only-port", ":8080", "http://0.0.0.0:8080", false},
		{"addr-with-only-host", "localhost:", "", true},
		{"addr-missing-host", "8080", "", true},
		{"addr-missing-port", "localhost", "", true},
		{"addr-with-http", "http://localhost:8080", "", true},
		{"empty", "", "", true},
	}
	for _, test := range tests {
		val, err := addrToURL(test.addr)
		if test.err {
			assert.Error(t, err, test.name)
		} else {
			assert.NoError(t, err)
			assert.Equal(t, test.want, val, test.name)
		}
	}
}

// newTestRouter wires the full route stack over a throwaway app. None
// of the exercised routes touch the network.
func newTestRouter(t *testing.T, token string) http.Handler {
	t.Helper()

	cfg := &config.Config{DataDir: t.TempDir()}
	cfg.ApplyDefaults()

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return SetupRoutes(a, &RouteConfig{
		Auth: middleware.TokenAuthConfig{Token: token},
	})
}

func TestRoutes_Index(t *testing.T) {
	router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Forked", body["app"])
	assert.NotEmpty(t, body["version"])
}

func TestRoutes_UnknownPath(t *testing.T) {
	router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/recipes", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRoutes_TokenGuard(t *testing.T) {
	router := newTestRouter(t, "hunter2")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/recipes", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no token")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/recipes", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recipes":[]}`, w.Body.String())
}

func TestRoutes_SyncWaitWithoutContainer(t *testing.T) {
	router := newTestRouter(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/sync?wait=true", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no container selected")
}

func TestRoutes_RateLimited(t *testing.T) {
	router := newTestRouter(t, "")

	last := 0
	for i := 0; i < 11; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		last = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last, "11th request within a second")
}
