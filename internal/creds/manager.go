package creds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/forkedapp/forked/internal/utils"
)

// Manager guarantees that authenticated calls either run with a usable
// credential or fail with a classified error, while minimizing
// interactive prompts. The credential store is mutated only here.
type Manager struct {
	store CredentialStore
	idp   IdentityProvider

	mu    sync.Mutex
	cred  *Credential
	ready bool

	now func() time.Time
}

func NewManager(store CredentialStore, idp IdentityProvider) *Manager {
	return &Manager{
		store: store,
		idp:   idp,
		now:   time.Now,
	}
}

// Initialize loads the persisted credential. A credential with a fresh
// expiry marks the manager authenticated without a network round-trip.
// An expired credential leaves the manager unauthenticated but is NOT
// cleared from the store: expired is not the same as unrefreshable, and
// clearing here would destroy the only token a refresh grant can exchange.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, err := m.store.LoadCredential()
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return nil
	}

	m.cred = cred
	if cred.FreshFor(m.now(), ExpirySafetyMargin) {
		m.ready = true
	}
	return nil
}

// Valid reports whether a usable credential is on hand. A credential
// whose expiry is further than the safety margin away answers true with
// zero network calls. One within the margin triggers exactly one silent
// refresh and returns its outcome. A credential without expiry metadata
// gets one validating call, falling back to a silent refresh; the stored
// credential is cleared only when both fail.
func (m *Manager) Valid(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred := m.loadLocked()
	if cred == nil {
		return false
	}

	if cred.HasExpiry() {
		if cred.FreshFor(m.now(), ExpirySafetyMargin) {
			m.ready = true
			return true
		}
		if err := m.refreshLocked(ctx); err != nil {
			slog.Debug("credential refresh failed", "error", err)
			m.ready = false
			return false
		}
		return true
	}

	if err := m.idp.Validate(ctx, cred); err == nil {
		m.ready = true
		return true
	}

	if err := m.refreshLocked(ctx); err != nil {
		// Neither validation nor refresh accepted it. Now it is safe to clear.
		if cerr := m.store.ClearCredential(); cerr != nil {
			slog.Warn("clear credential", "error", cerr)
		}
		m.cred = nil
		m.ready = false
		return false
	}
	return true
}

// SilentRefresh obtains a new credential through a prompt-less grant and
// persists it. On failure the stored credential stays in place; whether
// it is still usable is the caller's decision, not this method's.
func (m *Manager) SilentRefresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

// Authenticate obtains a credential: a prompt-less grant when a prior
// credential exists, interactive consent otherwise. A prompt-less grant
// refused for missing consent falls through to the interactive flow.
func (m *Manager) Authenticate(ctx context.Context, prompt ConsentPrompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadLocked() != nil {
		err := m.refreshLocked(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConsentRequired) {
			return err
		}
		slog.Debug("prompt-less grant refused, starting interactive consent")
	}

	cred, err := m.idp.SignIn(ctx, prompt)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := m.store.SaveCredential(cred); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	m.cred = cred
	m.ready = true
	slog.Info("signed in", "token", utils.MaskSecret(cred.AccessToken))
	return nil
}

// WithAuth runs call. On an unauthorized failure it performs exactly one
// silent refresh followed by one retry, then propagates. It never
// retries more than once per invocation.
func (m *Manager) WithAuth(ctx context.Context, call func(ctx context.Context) error) error {
	err := call(ctx)
	if err == nil || !errors.Is(err, ErrUnauthorized) {
		return err
	}

	if rerr := m.SilentRefresh(ctx); rerr != nil {
		return fmt.Errorf("%w: %w", ErrReauthRequired, rerr)
	}

	if err := call(ctx); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return fmt.Errorf("%w: %w", ErrReauthRequired, err)
		}
		return err
	}
	return nil
}

// SignOut revokes the credential with the identity provider and clears
// all persisted credential state. Revocation is best-effort.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cred := m.loadLocked(); cred != nil {
		if err := m.idp.Revoke(ctx, cred); err != nil {
			slog.Warn("revoke credential", "error", err)
		}
	}

	if err := m.store.ClearCredential(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	m.cred = nil
	m.ready = false
	slog.Info("signed out")
	return nil
}

// Authenticated reports the manager's optimistic signed-in state. It
// never touches the network.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Credential returns a copy of the current credential, or nil.
func (m *Manager) Credential() *Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked().Clone()
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	cred := m.loadLocked()
	if cred == nil {
		return fmt.Errorf("silent refresh: %w", ErrNoCredential)
	}

	fresh, err := m.idp.Refresh(ctx, cred)
	if err != nil {
		return fmt.Errorf("silent refresh: %w", err)
	}

	if err := m.store.SaveCredential(fresh); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	m.cred = fresh
	m.ready = true
	slog.Debug("credential refreshed", "token", utils.MaskSecret(fresh.AccessToken))
	return nil
}

func (m *Manager) loadLocked() *Credential {
	if m.cred != nil {
		return m.cred
	}
	cred, err := m.store.LoadCredential()
	if err != nil {
		slog.Warn("load credential", "error", err)
		return nil
	}
	m.cred = cred
	return cred
}
