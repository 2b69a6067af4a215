// Package httpx provides the shared HTTP transport every provider
// protocol adapter uses: per-host bearer/token authentication plus
// retry-with-backoff for 5xx and network failures.
package httpx

import (
	"log/slog"
	"math"
	"net/http"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
	baseBackoff    = 500 * time.Millisecond
)

// AuthHeader names the header and value a provider adapter must attach
// to authenticate a request, e.g. {"Authorization", "Bearer tok"} for
// GitHub or {"PRIVATE-TOKEN", "tok"} for GitLab.
type AuthHeader struct {
	Name  string
	Value string
}

// TokenSource returns the AuthHeader to attach for a request, or the
// zero value to send the request unauthenticated.
type TokenSource func(req *http.Request) (AuthHeader, bool)

// NewClient builds an *http.Client that authenticates requests via
// source and retries 5xx responses and network errors up to three times
// with exponential backoff. 4xx responses are never retried: they are
// fatal protocol errors per host, not transient transport failures.
func NewClient(source TokenSource) *http.Client {
	return &http.Client{
		Timeout: defaultTimeout,
		Transport: &retryingTransport{
			base:   http.DefaultTransport,
			source: source,
		},
	}
}

type retryingTransport struct {
	base   http.RoundTripper
	source TokenSource
}

func (t *retryingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * baseBackoff
			slog.Debug("retrying HTTP request", "url", req.URL.String(), "attempt", attempt+1, "delay", delay)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		attemptReq := req.Clone(req.Context())
		if source := t.source; source != nil {
			if auth, ok := source(attemptReq); ok {
				attemptReq.Header.Set(auth.Name, auth.Value)
			}
		}

		resp, err := t.base.RoundTrip(attemptReq)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = errHTTPStatus{status: resp.StatusCode}
			continue
		}

		return resp, nil
	}
	return nil, lastErr
}

type errHTTPStatus struct {
	status int
}

func (e errHTTPStatus) Error() string {
	return http.StatusText(e.status)
}

// BearerAuth returns a TokenSource that sends "Authorization: Bearer
// <token>" when hostMatches(req.URL.Host) and token is non-empty.
func BearerAuth(token string, hostMatches func(host string) bool) TokenSource {
	return func(req *http.Request) (AuthHeader, bool) {
		if token == "" || !hostMatches(req.URL.Host) {
			return AuthHeader{}, false
		}
		return AuthHeader{Name: "Authorization", Value: "Bearer " + token}, true
	}
}

// HeaderAuth returns a TokenSource that sends the token verbatim under
// the given header name, for protocols that don't use Bearer (GitLab's
// PRIVATE-TOKEN, Artifactory's X-JFrog-Art-Api).
func HeaderAuth(headerName, token string, hostMatches func(host string) bool) TokenSource {
	return func(req *http.Request) (AuthHeader, bool) {
		if token == "" || !hostMatches(req.URL.Host) {
			return AuthHeader{}, false
		}
		return AuthHeader{Name: headerName, Value: token}, true
	}
}
