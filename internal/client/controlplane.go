package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/client/middleware"
	"github.com/forkedapp/forked/internal/utils"
)

// ControlPlaneServer exposes the daemon's HTTP API to the desktop UI
// and local tooling. It binds to localhost; token auth is the only
// remote-facing guard.
type ControlPlaneServer struct {
	config *config.ControlPlaneConfig
	server *http.Server
}

func NewControlPlaneServer(config *config.ControlPlaneConfig, app *app.App) *ControlPlaneServer {
	routes := SetupRoutes(app, &RouteConfig{
		Auth: middleware.TokenAuthConfig{
			Token: config.Token,
		},
	})

	// Sync result payloads can be large, so writes get the most room.
	httpServer := &http.Server{
		Addr:              config.Addr,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	return &ControlPlaneServer{
		config: config,
		server: httpServer,
	}
}

func (s *ControlPlaneServer) Start(ctx context.Context) error {
	url, err := addrToURL(s.config.Addr)
	if err != nil {
		return fmt.Errorf("control plane addr: %w", err)
	}

	slog.Info("control plane start", "url", url, "token", utils.MaskSecret(s.config.Token))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control plane listen: %w", err)
	}

	return nil
}

func (s *ControlPlaneServer) Stop(ctx context.Context) error {
	slog.Info("control plane stop")
	return s.server.Shutdown(ctx)
}

// addrToURL renders a listen address as a browsable URL. A blank host
// binds every interface, so it reads back as 0.0.0.0.
func addrToURL(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid addr %q: %w", addr, err)
	}
	if port == "" {
		return "", fmt.Errorf("invalid addr %q: missing port", addr)
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("http://%s:%s", host, port), nil
}
