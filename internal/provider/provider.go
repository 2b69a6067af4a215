// Package provider implements the per-host protocol adapters that list
// releases and resolve asset download URLs: github, gitlab, and
// artifactory.
package provider

import (
	"context"
	"fmt"

	"github.com/foreman-rs/foreman/internal/host"
)

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
	ContentType string
	// Digest is an "algorithm:hash" checksum advertised by the host for
	// this asset, e.g. "sha256:abc123...". Empty when the host's API
	// doesn't expose one.
	Digest string
}

// Release is a single tagged release as returned by a provider.
type Release struct {
	Tag    string
	Assets []Asset
}

// Provider lists releases for a repository on a single host.
type Provider interface {
	ListReleases(ctx context.Context, repo string) ([]Release, error)
}

// New constructs the Provider for h's protocol, authenticating requests
// with token when non-empty.
func New(h host.Host, token string) (Provider, error) {
	switch h.Protocol {
	case host.ProtocolGitHub:
		return NewGitHub(h.BaseURL, token), nil
	case host.ProtocolGitLab:
		return NewGitLab(h.BaseURL, token), nil
	case host.ProtocolArtifactory:
		return NewArtifactory(h.BaseURL, token), nil
	default:
		return nil, fmt.Errorf("unsupported host protocol: %s", h.Protocol)
	}
}
