// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jeranaias/chatmon-tui/internal/auth"
	"github.com/jeranaias/chatmon-tui/internal/chat"
	"github.com/jeranaias/chatmon-tui/internal/config"
	"github.com/jeranaias/chatmon-tui/internal/logging"
	"github.com/jeranaias/chatmon-tui/internal/storage"
	"github.com/jeranaias/chatmon-tui/internal/stream"
	"github.com/jeranaias/chatmon-tui/internal/telemetry"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	apiHost    string
	verbose    bool
	ephemeral  bool
}

// App holds what commands share: the loaded config and the long-lived
// resources built from it.
type App struct {
	Version string

	flags globalFlags

	cfg     *config.Config
	logger  *zap.Logger
	tracing *telemetry.Provider
	store   storage.KV
	auth    *auth.Provider

	// transport replaces the SSE client when set.
	transport chat.Transport
	// newInput replaces the liner prompt of the chat command when set.
	newInput func(complete func(string) []string) lineReader
}

// NewApp returns an App for version.
func NewApp(version string) *App {
	return &App{Version: version}
}

// loadConfig reads --config or the default location, then applies
// --api-host.
func (a *App) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.flags.configPath != "" {
		cfg, err = config.LoadFromPath(a.flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if a.flags.apiHost != "" {
		cfg.API.Host = a.flags.apiHost
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --api-host: %w", err)
		}
	}
	return cfg, nil
}

// configPath returns the file config commands operate on.
func (a *App) configPath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	return config.ConfigPath()
}

// setup loads config and opens logging, tracing and the login store.
func (a *App) setup(ctx context.Context) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	config.SetGlobal(cfg)

	if err := config.EnsureConfigDir(); err != nil {
		return err
	}

	a.logger, err = logging.New(logging.Options{
		Path:    cfg.LogPath(),
		Level:   cfg.Logging.Level,
		Verbose: a.flags.verbose,
	})
	if err != nil {
		return err
	}

	a.tracing, err = telemetry.NewProvider(telemetry.Config{
		Enabled:    cfg.Tracing.Enabled,
		Exporter:   cfg.Tracing.Exporter,
		FilePath:   cfg.TracePath(),
		SampleRate: cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if a.flags.ephemeral {
		a.store = storage.NewMemoryStore()
	} else {
		store, err := storage.OpenSQLite(cfg.StatePath())
		if err != nil {
			return err
		}
		a.store = store
	}

	a.auth, err = auth.NewProvider(ctx, a.store, cfg.Auth.Password, a.logger.Named("auth"))
	if err != nil {
		return err
	}

	a.logger.Debug("startup",
		zap.String("version", a.Version),
		zap.String("api_host", cfg.API.Host),
		zap.Bool("ephemeral", a.flags.ephemeral),
	)
	return nil
}

// Close releases everything setup opened.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.tracing != nil {
		errs = append(errs, a.tracing.Shutdown(ctx))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// =============================================================================
// ORCHESTRATOR WIRING
// =============================================================================

// turnFlags select models and comparison for ask, chat and tui.
type turnFlags struct {
	compare bool
	left    string
	right   string
}

// newTransport builds the SSE client from config.
func (a *App) newTransport() (chat.Transport, error) {
	if a.transport != nil {
		return a.transport, nil
	}
	client, err := stream.NewClient(stream.Options{
		Host:         a.cfg.API.Host,
		Path:         a.cfg.API.Path,
		IdleTimeout:  a.cfg.IdleTimeout(),
		MaxEventSize: a.cfg.API.MaxEventKB * 1024,
		Logger:       a.logger.Named("stream"),
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newOrchestrator builds an orchestrator from config overridden by tf.
func (a *App) newOrchestrator(tf turnFlags, extra ...chat.Option) (*chat.Orchestrator, error) {
	catalog := a.cfg.Catalog()
	left, right := a.cfg.Models.Left, a.cfg.Models.Right
	if tf.left != "" {
		left = tf.left
	}
	if tf.right != "" {
		right = tf.right
	}
	for _, id := range []string{left, right} {
		if _, ok := catalog.Lookup(id); !ok {
			return nil, fmt.Errorf("%w %q (see 'chatmon models')", chat.ErrUnknownModel, id)
		}
	}

	transport, err := a.newTransport()
	if err != nil {
		return nil, err
	}

	opts := []chat.Option{
		chat.WithLogger(a.logger.Named("chat")),
		chat.WithTracer(a.tracing.Tracer()),
		chat.WithUserSource(a.auth),
		chat.WithCatalog(catalog),
		chat.WithModels(left, right),
		chat.WithCompare(tf.compare || a.cfg.Models.Compare),
	}
	return chat.New(transport, append(opts, extra...)...), nil
}

// requireLogin ensures a user is signed in. On a terminal it prompts for
// the password instead of failing.
func (a *App) requireLogin(ctx context.Context, in io.Reader, out io.Writer) error {
	if a.auth.IsAuthenticated() {
		return nil
	}
	if !isTerminal(in) {
		return ErrNotLoggedIn
	}
	password, err := readPassword(in, out, "Password: ")
	if err != nil {
		return err
	}
	_, err = a.auth.Login(ctx, auth.DefaultUsername, password)
	return err
}
