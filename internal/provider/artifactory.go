package provider

import (
	"context"
	"net/http"

	"github.com/foreman-rs/foreman/internal/provider/httpx"
	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
)

// Artifactory is a host contract named by the spec but left
// intentionally opaque: the exact version/asset-listing endpoint
// (Artifactory AQL, the search API, a generic repository layout...)
// is unspecified upstream and varies by installation. Configuring an
// artifactory host is accepted; resolving a release against it fails
// with a descriptive error until the endpoint contract is pinned down
// for a specific deployment.
type Artifactory struct {
	baseURL string
	client  *http.Client
}

// NewArtifactory constructs an Artifactory provider against baseURL,
// authenticating with token (sent as X-JFrog-Art-Api) when set.
func NewArtifactory(baseURL, token string) *Artifactory {
	return &Artifactory{
		baseURL: baseURL,
		client:  httpx.NewClient(httpx.HeaderAuth("X-JFrog-Art-Api", token, sameHost(baseURL))),
	}
}

// ListReleases always fails: see the Artifactory doc comment above.
func (a *Artifactory) ListReleases(ctx context.Context, repo string) ([]Release, error) {
	return nil, &foremanErrors.Error{
		Category: foremanErrors.CategoryConfig,
		Code:     foremanErrors.CodeConfigUnsupportedHost,
		Message:  "artifactory hosts are declared but not yet resolvable: the asset-listing endpoint is installation-specific",
		Details: map[string]any{"repo": repo, "base_url": a.baseURL},
		Hint:    "use a github or gitlab host for this tool until an artifactory endpoint contract is configured",
	}
}
