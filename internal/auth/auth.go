// Package auth manages per-host API tokens persisted in auth.toml.
package auth

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
)

// Store is the decoded contents of auth.toml.
type Store struct {
	GitHub string            `toml:"github,omitempty"`
	GitLab string            `toml:"gitlab,omitempty"`
	Hosts  map[string]string `toml:"hosts,omitempty"`
}

// Load reads and parses auth.toml at path. A missing file returns an empty
// Store, not an error: tokens are optional and the file may not exist yet
// until the user runs github-auth/gitlab-auth.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{Hosts: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("failed to read auth file %s: %w", path, err)
	}

	var s Store
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, &foremanErrors.Error{
			Category: foremanErrors.CategoryConfig,
			Code:     foremanErrors.CodeConfigParse,
			Message:  fmt.Sprintf("failed to parse auth file %s", path),
			Cause:    err,
		}
	}
	if s.Hosts == nil {
		s.Hosts = map[string]string{}
	}
	return &s, nil
}

// Save writes the store to path, replacing its contents atomically and
// restricting permissions to the current user (0600) on Unix.
func (s *Store) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal auth file: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename auth file: %w", err)
	}
	return nil
}

// TokenForHost returns the token for hostName, falling back to the
// top-level github/gitlab fields for those two builtin host names.
func (s *Store) TokenForHost(hostName string) string {
	switch hostName {
	case "github", "source":
		if s.GitHub != "" {
			return s.GitHub
		}
	case "gitlab":
		if s.GitLab != "" {
			return s.GitLab
		}
	}
	return s.Hosts[hostName]
}

// SetToken records a token for hostName, routing github/gitlab to their
// dedicated fields and everything else into the Hosts map.
func (s *Store) SetToken(hostName, token string) {
	switch hostName {
	case "github", "source":
		s.GitHub = token
	case "gitlab":
		s.GitLab = token
	default:
		if s.Hosts == nil {
			s.Hosts = map[string]string{}
		}
		s.Hosts[hostName] = token
	}
}
