package provider

import (
	"fmt"
	"io"
	"net/http"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
)

// transportError wraps a network-level failure (DNS, TLS, connection
// reset) as a foreman transport error.
func transportError(url string, cause error) error {
	return &foremanErrors.Error{
		Category: foremanErrors.CategoryTransport,
		Code:     foremanErrors.CodeNetworkFailed,
		Message:  fmt.Sprintf("failed to reach %s", url),
		Cause:    cause,
	}
}

// httpStatusError wraps a non-2xx HTTP response as a foreman transport
// error, including a truncated body snippet for diagnosis.
func httpStatusError(url string, resp *http.Response) error {
	const snippetLimit = 256
	body, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLimit))
	return &foremanErrors.Error{
		Category: foremanErrors.CategoryTransport,
		Code:     foremanErrors.CodeHTTPError,
		Message:  fmt.Sprintf("%s returned HTTP %d", url, resp.StatusCode),
		Details: map[string]any{
			"url":         url,
			"status_code": resp.StatusCode,
			"body":        string(body),
		},
	}
}
