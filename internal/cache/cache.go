// Package cache persists the index mapping (host, repo, version) tuples
// to installed executable paths under Home, and the per-tuple and
// cross-process locks that guard it.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/foreman-rs/foreman/internal/home"
)

// CacheEntry records where a successfully installed tool's primary
// executable lives, relative to Home.
type CacheEntry struct {
	Host    string `json:"host"`
	Repo    string `json:"repo"`
	Version string `json:"version"`
	Path    string `json:"path"`
}

// Index is the in-memory view of tool-cache.json.
type Index struct {
	home    *home.Home
	Entries []CacheEntry
}

// Key builds the tools/ directory name for a (host, repo, version)
// tuple: "<host>__<owner>__<name>-<version>", so that distinct hosts
// never collide even over identical repo paths.
func Key(hostName, repo, version string) string {
	owner, name := splitRepo(repo)
	return fmt.Sprintf("%s__%s__%s-%s", hostName, owner, name, version)
}

func splitRepo(repo string) (owner, name string) {
	if i := strings.IndexByte(repo, '/'); i >= 0 {
		return repo[:i], repo[i+1:]
	}
	return repo, repo
}

// Load reads tool-cache.json, returning an empty Index if it doesn't
// exist yet.
func Load(h *home.Home) (*Index, error) {
	idx := &Index{home: h}

	data, err := os.ReadFile(h.CacheIndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("failed to read tool cache index: %w", err)
	}
	if len(data) == 0 {
		return idx, nil
	}
	if err := json.Unmarshal(data, &idx.Entries); err != nil {
		return nil, fmt.Errorf("failed to parse tool cache index: %w", err)
	}
	return idx, nil
}

// Save rewrites tool-cache.json atomically: write to a sibling
// temporary file, then rename over the original.
func (idx *Index) Save() error {
	data, err := json.MarshalIndent(idx.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tool cache index: %w", err)
	}

	path := idx.home.CacheIndexPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tool cache index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename tool cache index: %w", err)
	}
	return nil
}

// Lookup returns the entry for (host, repo, version) only if it is
// present in the index AND its referenced path still exists and is
// executable; otherwise the caller must treat this as a cache miss.
func (idx *Index) Lookup(hostName, repo, version string) (*CacheEntry, bool) {
	for i := range idx.Entries {
		e := &idx.Entries[i]
		if e.Host != hostName || e.Repo != repo || e.Version != version {
			continue
		}
		if isExecutable(filepath.Join(idx.home.Root(), e.Path)) {
			return e, true
		}
		return nil, false
	}
	return nil, false
}

// Put inserts or replaces the entry for entry's (Host, Repo, Version),
// keeping Entries sorted for deterministic `foreman list` output.
func (idx *Index) Put(entry CacheEntry) {
	for i := range idx.Entries {
		e := &idx.Entries[i]
		if e.Host == entry.Host && e.Repo == entry.Repo && e.Version == entry.Version {
			idx.Entries[i] = entry
			return
		}
	}
	idx.Entries = append(idx.Entries, entry)
	sort.Slice(idx.Entries, func(i, j int) bool {
		if idx.Entries[i].Host != idx.Entries[j].Host {
			return idx.Entries[i].Host < idx.Entries[j].Host
		}
		if idx.Entries[i].Repo != idx.Entries[j].Repo {
			return idx.Entries[i].Repo < idx.Entries[j].Repo
		}
		return idx.Entries[i].Version < idx.Entries[j].Version
	})
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}

// WithLock runs fn against the index loaded under the exclusive
// cross-process lock guarding tool-cache.json, persisting whatever
// changes fn made before releasing the lock.
func WithLock(h *home.Home, fn func(idx *Index) error) error {
	fl := flock.New(h.CacheIndexLockPath())
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("failed to acquire tool cache lock: %w", err)
	}
	defer fl.Unlock()

	idx, err := Load(h)
	if err != nil {
		return err
	}

	if err := fn(idx); err != nil {
		return err
	}

	return idx.Save()
}

// InstallLock returns the advisory lock guarding a single (host, repo,
// version) install, held for the duration of download+extract so that
// at most one process installs that tuple at a time.
func InstallLock(h *home.Home, key string) *flock.Flock {
	return flock.New(h.ToolLockPath(key))
}
