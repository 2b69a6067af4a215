// Package home resolves the foreman home directory and exposes the
// canonical subpaths every other component touches.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvHome is the environment variable that overrides the default home
// directory location.
const EnvHome = "FOREMAN_HOME"

const (
	binDirName         = "bin"
	toolsDirName       = "tools"
	cacheIndexFileName = "tool-cache.json"
	cacheIndexLockName = "tool-cache.json.lock"
	configFileName     = "foreman.toml"
	authFileName       = "auth.toml"
	logsDirName        = "logs"
)

// Home is the resolved foreman home directory plus its canonical subpaths.
type Home struct {
	root string
}

// Resolve determines the foreman home directory.
//
// Priority order:
//  1. FOREMAN_HOME environment variable
//  2. <user home>/.foreman
func Resolve() (*Home, error) {
	if override := os.Getenv(EnvHome); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", EnvHome, err)
		}
		return &Home{root: abs}, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine user home directory: %w", err)
	}

	return &Home{root: filepath.Join(userHome, ".foreman")}, nil
}

// Root returns the home directory itself.
func (h *Home) Root() string {
	return h.root
}

// BinDir returns the directory containing trampolines, meant to be on PATH.
func (h *Home) BinDir() string {
	return filepath.Join(h.root, binDirName)
}

// ToolsDir returns the directory holding extracted tool installations.
func (h *Home) ToolsDir() string {
	return filepath.Join(h.root, toolsDirName)
}

// LogsDir returns the directory holding per-session install logs.
func (h *Home) LogsDir() string {
	return filepath.Join(h.root, logsDirName)
}

// CacheIndexPath returns the path to tool-cache.json.
func (h *Home) CacheIndexPath() string {
	return filepath.Join(h.root, cacheIndexFileName)
}

// CacheIndexLockPath returns the path to the advisory lock guarding
// concurrent writers of tool-cache.json.
func (h *Home) CacheIndexLockPath() string {
	return filepath.Join(h.root, cacheIndexLockName)
}

// ConfigPath returns the path to the system-level foreman.toml.
func (h *Home) ConfigPath() string {
	return filepath.Join(h.root, configFileName)
}

// AuthPath returns the path to auth.toml.
func (h *Home) AuthPath() string {
	return filepath.Join(h.root, authFileName)
}

// ToolLockPath returns the advisory lock path for a single (host, repo,
// version) install, keyed by the cache directory name for that tuple.
func (h *Home) ToolLockPath(key string) string {
	return filepath.Join(h.ToolsDir(), key+".lock")
}

const authTemplate = `# foreman auth.toml
#
# Uncomment and fill in tokens to authenticate against hosts with low
# unauthenticated rate limits or private repositories.
#
# github = "<token>"
# gitlab = "<token>"
#
# [hosts]
# my-artifactory = "<token>"
`

// Ensure creates bin/, tools/, logs/ and a templated auth.toml if any of
// them are missing. Safe to call on every startup.
func (h *Home) Ensure() error {
	for _, dir := range []string{h.root, h.BinDir(), h.ToolsDir(), h.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	authPath := h.AuthPath()
	if _, err := os.Stat(authPath); os.IsNotExist(err) {
		if err := os.WriteFile(authPath, []byte(authTemplate), 0o600); err != nil {
			return fmt.Errorf("failed to create %s: %w", authPath, err)
		}
	}

	return nil
}
