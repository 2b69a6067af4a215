package main

import (
	"context"
	"os"

	"github.com/foreman-rs/foreman/internal/auth"
	"github.com/foreman-rs/foreman/internal/config"
	"github.com/foreman-rs/foreman/internal/home"
	"github.com/foreman-rs/foreman/internal/trampoline"
)

// setupHome resolves and ensures the foreman home directory exists.
func setupHome() (*home.Home, error) {
	h, err := home.Resolve()
	if err != nil {
		return nil, err
	}
	if err := h.Ensure(); err != nil {
		return nil, err
	}
	return h, nil
}

// loadMergedConfig discovers and merges every foreman.toml visible from
// the current working directory.
func loadMergedConfig(h *home.Home) (*config.MergedConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	paths, err := config.Discover(cwd, h.Root())
	if err != nil {
		return nil, err
	}

	return config.Load(paths)
}

func loadAuthStore(h *home.Home) (*auth.Store, error) {
	return auth.Load(h.AuthPath())
}

func runTrampoline(ctx context.Context, alias string, args []string) (int, error) {
	h, err := setupHome()
	if err != nil {
		return 1, err
	}

	merged, err := loadMergedConfig(h)
	if err != nil {
		return 1, err
	}

	return trampoline.Run(ctx, h, merged, alias, args)
}
