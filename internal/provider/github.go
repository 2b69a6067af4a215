package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/foreman-rs/foreman/internal/provider/httpx"
)

// GitHub talks to the GitHub Releases API: GET /repos/{repo}/releases.
type GitHub struct {
	baseURL string
	client  *http.Client
}

// NewGitHub constructs a GitHub provider against baseURL (api.github.com,
// or a GitHub Enterprise host), authenticating with token when set.
func NewGitHub(baseURL, token string) *GitHub {
	return &GitHub{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpx.NewClient(httpx.BearerAuth(token, isGitHubHost)),
	}
}

// isGitHubHost matches api.github.com, github.com, and their asset CDN
// subdomains, so the bearer token is never leaked to an unrelated host
// a redirect might point at.
func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	return host == "github.com" ||
		host == "api.github.com" ||
		strings.HasSuffix(host, ".github.com") ||
		strings.HasSuffix(host, ".githubusercontent.com")
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
	// Digest is "algorithm:hash", populated by GitHub for assets
	// uploaded after digest support landed; older releases leave it
	// empty.
	Digest string `json:"digest"`
}

type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

// ListReleases fetches the release listing for repo ("owner/name").
func (g *GitHub) ListReleases(ctx context.Context, repo string) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases", g.baseURL, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, transportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError(url, resp)
	}

	var releases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("failed to decode GitHub releases response: %w", err)
	}

	result := make([]Release, 0, len(releases))
	for _, r := range releases {
		assets := make([]Asset, 0, len(r.Assets))
		for _, a := range r.Assets {
			assets = append(assets, Asset{
				Name:        a.Name,
				DownloadURL: a.BrowserDownloadURL,
				ContentType: a.ContentType,
				Digest:      a.Digest,
			})
		}
		result = append(result, Release{Tag: r.TagName, Assets: assets})
	}
	return result, nil
}
