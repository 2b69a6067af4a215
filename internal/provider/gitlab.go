package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/foreman-rs/foreman/internal/provider/httpx"
)

// GitLab talks to the GitLab Releases API:
// GET /api/v4/projects/{url-encoded repo}/releases.
type GitLab struct {
	baseURL string
	client  *http.Client
}

// NewGitLab constructs a GitLab provider against baseURL (gitlab.com, or
// a self-hosted instance), authenticating with token when set.
func NewGitLab(baseURL, token string) *GitLab {
	return &GitLab{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpx.NewClient(httpx.HeaderAuth("PRIVATE-TOKEN", token, sameHost(baseURL))),
	}
}

// sameHost returns a host matcher that only matches baseURL's own host,
// so the private token is never sent to a different GitLab-hosted asset
// CDN the release response might point redirects at.
func sameHost(baseURL string) func(string) bool {
	u, err := url.Parse(baseURL)
	if err != nil {
		return func(string) bool { return false }
	}
	want := strings.ToLower(u.Host)
	return func(host string) bool { return strings.ToLower(host) == want }
}

type gitlabAssetLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type gitlabAssets struct {
	Links []gitlabAssetLink `json:"links"`
}

type gitlabRelease struct {
	TagName string       `json:"tag_name"`
	Assets  gitlabAssets `json:"assets"`
}

// ListReleases fetches the release listing for repo ("group/project").
func (g *GitLab) ListReleases(ctx context.Context, repo string) ([]Release, error) {
	reqURL := fmt.Sprintf("%s/api/v4/projects/%s/releases", g.baseURL, url.QueryEscape(repo))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, transportError(reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError(reqURL, resp)
	}

	var releases []gitlabRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("failed to decode GitLab releases response: %w", err)
	}

	result := make([]Release, 0, len(releases))
	for _, r := range releases {
		assets := make([]Asset, 0, len(r.Assets.Links))
		for _, link := range r.Assets.Links {
			assets = append(assets, Asset{Name: link.Name, DownloadURL: link.URL})
		}
		result = append(result, Release{Tag: r.TagName, Assets: assets})
	}
	return result, nil
}
