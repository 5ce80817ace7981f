// Package provider defines the remote store contract the sync engine
// drives, plus the name-keyed registry used to construct providers at
// runtime.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/store"
)

var (
	// ErrUnknownProvider is returned by registry lookups for names
	// nothing was registered under.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNotFound classifies a remote object or container that no
	// longer exists.
	ErrNotFound = errors.New("not found")

	// ErrSelectionRequired means the selected container is gone or
	// inaccessible and the user must pick one again.
	ErrSelectionRequired = errors.New("container selection required")
)

// RemoteItem is one listing entry from the remote store.
type RemoteItem struct {
	RemoteID     string `json:"remoteId"`
	Name         string `json:"name"`
	LastModified int64  `json:"lastModified"` // ms since epoch
	Size         int64  `json:"size"`
}

// RemoteContent is the full payload of one remote item.
type RemoteContent struct {
	Name         string `json:"name"`
	Content      []byte `json:"content"`
	LastModified int64  `json:"lastModified"`
}

// PutResult reports the stable id the remote assigned (or kept) for an
// uploaded item.
type PutResult struct {
	RemoteID string `json:"remoteId"`
}

// Container is a remote location (folder equivalent) that holds synced
// items.
type Container struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Status is a provider's view of its own connection.
type Status struct {
	Online        bool      `json:"online"`
	Authenticated bool      `json:"authenticated"`
	LastSync      time.Time `json:"lastSync"`
}

// Provider is the remote store adapter contract. All failures surface
// as classified errors: creds.ErrUnauthorized for rejected credentials,
// ErrNotFound for missing objects; everything else is treated as
// transient by callers.
type Provider interface {
	Name() string

	// List returns the remote listing for a content class within the
	// selected container.
	List(ctx context.Context, class content.Class) ([]RemoteItem, error)

	// Fetch retrieves full content by remote id.
	Fetch(ctx context.Context, remoteID string) (*RemoteContent, error)

	// Put creates or updates an item by NAME, not by cached remote id.
	// It is idempotent under retry: putting the same name twice updates
	// rather than duplicates.
	Put(ctx context.Context, class content.Class, item content.Item) (*PutResult, error)

	// Remove deletes an item by remote id.
	Remove(ctx context.Context, remoteID string) error

	// AuthCheck verifies the provider can make authenticated calls.
	AuthCheck(ctx context.Context) error

	// SignIn runs the provider's interactive consent flow.
	SignIn(ctx context.Context, prompt creds.ConsentPrompt) error

	// SignOut revokes and clears the provider's credential state.
	SignOut(ctx context.Context) error

	// Status reports reachability and the last successful sync.
	Status(ctx context.Context) (*Status, error)

	// Containers lists remote locations available to hold synced items.
	Containers(ctx context.Context) ([]Container, error)

	// EnsureContainer finds or creates a container by name.
	EnsureContainer(ctx context.Context, name string) (*Container, error)

	// VerifyContainer checks that a previously selected container is
	// still accessible. Inaccessible containers surface
	// ErrSelectionRequired.
	VerifyContainer(ctx context.Context, id string) error
}

// Deps carries the shared dependencies provider constructors receive.
// Provider-specific settings are captured by each factory closure.
type Deps struct {
	// Store gives providers access to persisted client state: the
	// selected container, the last sync time and credential storage.
	Store *store.Store
}
