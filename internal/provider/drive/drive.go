// Package drive implements the Forked Cloud remote store: a REST file
// API authenticated with OAuth device-grant credentials.
package drive

import (
	"context"
	"errors"
	"fmt"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/provider"
	"github.com/forkedapp/forked/internal/store"
)

const ProviderName = "drive"

var ErrNoBaseURL = errors.New("drive: base url missing")

// Config carries the per-deployment settings of the drive provider.
type Config struct {
	// BaseURL of the data-plane API.
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	// AuthURL of the identity endpoints. Defaults to BaseURL.
	AuthURL string `json:"auth_url,omitempty" mapstructure:"auth_url"`
	// ClientID identifies this app to the identity service.
	ClientID string `json:"client_id,omitempty" mapstructure:"client_id"`
	// Email is an optional account hint passed on sign-in.
	Email string `json:"email,omitempty" mapstructure:"email"`
}

// Drive syncs content against the Forked Cloud API. Every data-plane
// call runs under the credential manager's refresh-and-retry.
type Drive struct {
	cfg   Config
	store *store.Store
	api   *driveAPI
	idc   *identityClient
	auth  *creds.Manager
}

var _ provider.Provider = (*Drive)(nil)

func New(cfg Config, st *store.Store) (*Drive, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = cfg.BaseURL
	}

	idc := newIdentityClient(cfg.AuthURL, cfg.ClientID, cfg.Email)
	mgr := creds.NewManager(st, idc)

	d := &Drive{
		cfg:   cfg,
		store: st,
		idc:   idc,
		auth:  mgr,
	}
	d.api = newDriveAPI(cfg.BaseURL, d.accessToken)

	if err := mgr.Initialize(); err != nil {
		return nil, fmt.Errorf("init credentials: %w", err)
	}

	return d, nil
}

// Factory adapts a Config into a registry constructor.
func Factory(cfg Config) provider.Factory {
	return func(deps provider.Deps) (provider.Provider, error) {
		return New(cfg, deps.Store)
	}
}

func (d *Drive) Name() string {
	return ProviderName
}

// Close releases the identity client's connections.
func (d *Drive) Close() error {
	return d.idc.Close()
}

func (d *Drive) List(ctx context.Context, class content.Class) ([]provider.RemoteItem, error) {
	container, err := d.container()
	if err != nil {
		return nil, err
	}

	var listing *ListFilesResponse
	err = d.auth.WithAuth(ctx, func(ctx context.Context) error {
		var apiErr error
		listing, apiErr = d.api.ListFiles(ctx, &ListFilesParams{
			Container: container,
			Class:     class.String(),
		})
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	items := make([]provider.RemoteItem, 0, len(listing.Files))
	for _, f := range listing.Files {
		items = append(items, provider.RemoteItem{
			RemoteID:     f.ID,
			Name:         f.Name,
			LastModified: f.LastModified,
			Size:         f.Size,
		})
	}
	return items, nil
}

func (d *Drive) Fetch(ctx context.Context, remoteID string) (*provider.RemoteContent, error) {
	var file *FileContentResponse
	err := d.auth.WithAuth(ctx, func(ctx context.Context) error {
		var apiErr error
		file, apiErr = d.api.GetFile(ctx, remoteID)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	return &provider.RemoteContent{
		Name:         file.Name,
		Content:      file.Content,
		LastModified: file.LastModified,
	}, nil
}

func (d *Drive) Put(ctx context.Context, class content.Class, item content.Item) (*provider.PutResult, error) {
	container, err := d.container()
	if err != nil {
		return nil, err
	}

	var up *UploadResponse
	err = d.auth.WithAuth(ctx, func(ctx context.Context) error {
		var apiErr error
		up, apiErr = d.api.PutFile(ctx, &UploadParams{
			Container:    container,
			Class:        class.String(),
			Name:         item.Name,
			Content:      item.Content,
			LastModified: item.LastModified,
		})
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	return &provider.PutResult{RemoteID: up.File.ID}, nil
}

func (d *Drive) Remove(ctx context.Context, remoteID string) error {
	return d.auth.WithAuth(ctx, func(ctx context.Context) error {
		return d.api.DeleteFile(ctx, remoteID)
	})
}

func (d *Drive) AuthCheck(ctx context.Context) error {
	if d.auth.Credential() == nil {
		return creds.ErrNoCredential
	}
	if !d.auth.Valid(ctx) {
		return creds.ErrReauthRequired
	}
	return nil
}

func (d *Drive) SignIn(ctx context.Context, prompt creds.ConsentPrompt) error {
	return d.auth.Authenticate(ctx, prompt)
}

func (d *Drive) SignOut(ctx context.Context) error {
	return d.auth.SignOut(ctx)
}

func (d *Drive) Status(ctx context.Context) (*provider.Status, error) {
	st := &provider.Status{
		Authenticated: d.auth.Authenticated(),
		Online:        d.api.Ping(ctx) == nil,
	}
	if last, ok, err := d.store.LastSyncTime(); err == nil && ok {
		st.LastSync = last
	}
	return st, nil
}

func (d *Drive) Containers(ctx context.Context) ([]provider.Container, error) {
	var listing *ListContainersResponse
	err := d.auth.WithAuth(ctx, func(ctx context.Context) error {
		var apiErr error
		listing, apiErr = d.api.ListContainers(ctx)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	containers := make([]provider.Container, 0, len(listing.Containers))
	for _, c := range listing.Containers {
		containers = append(containers, provider.Container{ID: c.ID, Name: c.Name})
	}
	return containers, nil
}

func (d *Drive) EnsureContainer(ctx context.Context, name string) (*provider.Container, error) {
	var info *ContainerInfo
	err := d.auth.WithAuth(ctx, func(ctx context.Context) error {
		var apiErr error
		info, apiErr = d.api.CreateContainer(ctx, name)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	return &provider.Container{ID: info.ID, Name: info.Name}, nil
}

func (d *Drive) VerifyContainer(ctx context.Context, id string) error {
	return d.auth.WithAuth(ctx, func(ctx context.Context) error {
		_, err := d.api.GetContainer(ctx, id)
		return err
	})
}

// accessToken feeds the data-plane client its bearer token, re-read on
// every request because the manager rotates credentials underneath.
func (d *Drive) accessToken() string {
	if cred := d.auth.Credential(); cred != nil {
		return cred.AccessToken
	}
	return ""
}

func (d *Drive) container() (string, error) {
	id, err := d.store.ContainerID()
	if err != nil {
		return "", fmt.Errorf("read selected container: %w", err)
	}
	if id == "" {
		return "", provider.ErrSelectionRequired
	}
	return id, nil
}
