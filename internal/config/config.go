// Package config discovers and merges foreman.toml files from the
// current working directory up to the user's home, producing the
// effective set of tool aliases and host definitions for a run.
package config

import (
	"os"
	"path/filepath"

	"github.com/foreman-rs/foreman/internal/host"
)

// FileName is the name of a foreman configuration file, looked for at
// every directory level during discovery and once more at Home.
const FileName = "foreman.toml"

// ToolRef is a single tool declaration resolved from either the
// current (host-keyed) or legacy (`source = ...`) config shape.
type ToolRef struct {
	Host    string
	Repo    string
	Version string
}

// ConfigFile is one parsed foreman.toml, with its originating path
// kept for error messages.
type ConfigFile struct {
	Path  string
	Tools map[string]ToolRef
	Hosts map[string]host.Host
}

// MergedConfig is the result of folding a discovered chain of
// ConfigFiles together, most-specific first, plus the builtin hosts.
type MergedConfig struct {
	Tools map[string]ToolRef
	Hosts *host.Registry
}

// Discover walks cwd upward to the filesystem root collecting every
// foreman.toml found along the way (deepest directory first), then
// appends `<home>/foreman.toml` if it exists and wasn't already
// collected. Symlink loops are guarded against by tracking each
// visited directory's identity via os.SameFile rather than its path,
// so two different paths to the same directory only count once.
func Discover(cwd, homeDir string) ([]string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, err
	}

	var paths []string
	var visited []os.FileInfo

	dir := abs
	for {
		info, statErr := os.Stat(dir)
		if statErr != nil {
			break
		}
		if alreadyVisited(visited, info) {
			break
		}
		visited = append(visited, info)

		candidate := filepath.Join(dir, FileName)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			paths = append(paths, candidate)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	homeConfig := filepath.Join(homeDir, FileName)
	if fi, err := os.Stat(homeConfig); err == nil && !fi.IsDir() {
		if !containsPath(paths, homeConfig) {
			paths = append(paths, homeConfig)
		}
	}

	return paths, nil
}

func alreadyVisited(visited []os.FileInfo, info os.FileInfo) bool {
	for _, v := range visited {
		if os.SameFile(v, info) {
			return true
		}
	}
	return false
}

func containsPath(paths []string, target string) bool {
	for _, p := range paths {
		if p == target {
			return true
		}
	}
	return false
}
