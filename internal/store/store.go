// Package store is the durable local key-value store backed by SQLite.
// It persists the merged content collections, scalar sync metadata and
// the access credential.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/db"
)

// Logical keys for persisted state.
const (
	keyLastSyncTime = "last-sync-time"
	keyContainerID  = "selected-container-id"
	keyCredential   = "credential"
)

func itemsKey(class content.Class) string {
	return "content-items:" + class.String()
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TEXT NOT NULL -- RFC3339
);
`

// Store holds all persisted client state in one SQLite database.
type Store struct {
	db     *sqlx.DB
	dbPath string
}

var _ creds.CredentialStore = (*Store)(nil)

// Open creates or opens the store at dbPath. Use ":memory:" for an
// ephemeral store.
func Open(dbPath string) (*Store, error) {
	database, err := db.Open(dbPath, db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}

	return &Store{db: database, dbPath: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	s.db = nil
	slog.Debug("store closed", "path", s.dbPath)
	return nil
}

// Get returns the raw value for key. ok is false when the key is absent.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	err = s.db.Get(&value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store get %q: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value for key.
func (s *Store) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("store delete %q: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys, for diagnostics.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	if err := s.db.Select(&keys, "SELECT key FROM kv ORDER BY key"); err != nil {
		return nil, fmt.Errorf("store keys: %w", err)
	}
	return keys, nil
}

// Items returns the merged local collection for a content class. An
// absent key yields an empty collection.
func (s *Store) Items(class content.Class) (content.Collection, error) {
	raw, ok, err := s.Get(itemsKey(class))
	if err != nil || !ok {
		return nil, err
	}

	var items content.Collection
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %q: %w", itemsKey(class), err)
	}
	return items, nil
}

// SetItems persists the full collection for a content class in one write.
func (s *Store) SetItems(class content.Class, items content.Collection) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %q: %w", itemsKey(class), err)
	}
	return s.Set(itemsKey(class), raw)
}

// LastSyncTime returns the completion time of the last successful sync.
func (s *Store) LastSyncTime() (time.Time, bool, error) {
	raw, ok, err := s.Get(keyLastSyncTime)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	t, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %q: %w", keyLastSyncTime, err)
	}
	return t, true, nil
}

// SetLastSyncTime records the completion time of a successful sync.
func (s *Store) SetLastSyncTime(t time.Time) error {
	return s.Set(keyLastSyncTime, []byte(t.UTC().Format(time.RFC3339)))
}

// ContainerID returns the selected remote container id, or "" when none
// has been chosen.
func (s *Store) ContainerID() (string, error) {
	raw, _, err := s.Get(keyContainerID)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SetContainerID persists the selected remote container.
func (s *Store) SetContainerID(id string) error {
	return s.Set(keyContainerID, []byte(id))
}

// ClearContainerID forgets the selected container, forcing re-selection.
func (s *Store) ClearContainerID() error {
	return s.Delete(keyContainerID)
}

// LoadCredential implements creds.CredentialStore.
func (s *Store) LoadCredential() (*creds.Credential, error) {
	raw, ok, err := s.Get(keyCredential)
	if err != nil || !ok {
		return nil, err
	}

	var cred creds.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("decode %q: %w", keyCredential, err)
	}
	return &cred, nil
}

// SaveCredential implements creds.CredentialStore.
func (s *Store) SaveCredential(cred *creds.Credential) error {
	if cred == nil {
		return fmt.Errorf("cannot save nil credential")
	}
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode %q: %w", keyCredential, err)
	}
	return s.Set(keyCredential, raw)
}

// ClearCredential implements creds.CredentialStore.
func (s *Store) ClearCredential() error {
	return s.Delete(keyCredential)
}
