// Package app wires configuration, storage, the gateway and the UI into a
// running application.
package app

import (
	"context"
	"fmt"

	"chirp/internal/api"
	"chirp/internal/config"
	"chirp/internal/feed"
	"chirp/internal/localdata"
	"chirp/internal/logging"
	"chirp/internal/prefs"
	"chirp/internal/session"
	"chirp/internal/ui"
)

// Options configure the chirp application.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses default ~/.config/chirp/prefs.toml
	SessionPath string // empty uses default ~/.config/chirp/session.toml
}

// Run boots the chirp TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	logger, closeLog, err := logging.Open(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	client, err := api.NewClient(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	sessions := session.NewStore(opts.SessionPath)
	local := localdata.NewStore(cfg.FollowsPath(), cfg.CommentsPath())

	cache := feed.NewCache()
	cache.SeedOverlays(local.LoadFollows(), local.LoadComments())

	reconciler := feed.NewReconciler(client, cache, sessions, local, logger)

	// Populate the feed before the first render; a failed fetch is recorded
	// in the cache and shown by the UI rather than aborting startup.
	_ = reconciler.Refresh(ctx)

	logger.Info().Str("api", cfg.APIURL).Msg("chirp starting")

	uiOpts := ui.Options{
		Context:    ctx,
		Reconciler: reconciler,
		Cache:      cache,
		Prefs:      userPrefs,
		PrefsPath:  opts.PrefsPath,
	}
	return ui.Run(uiOpts)
}
