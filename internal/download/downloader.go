package download

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
	"github.com/foreman-rs/foreman/internal/provider/httpx"
)

// ProgressCallback is called during download to report progress.
// total is -1 if Content-Length is unknown.
type ProgressCallback func(downloaded, total int64)

// Downloader defines the interface for downloading and verifying artifacts.
type Downloader interface {
	// Download downloads a file from the given URL to destPath.
	// Returns the path to the downloaded file.
	Download(ctx context.Context, url, destPath string) (string, error)

	// DownloadWithProgress downloads a file with progress callback.
	DownloadWithProgress(ctx context.Context, url, destPath string, callback ProgressCallback) (string, error)

	// Verify verifies filePath's hash against digest, a provider-advertised
	// "algorithm:hash" value such as "sha256:abc123...". An empty digest
	// skips verification.
	Verify(ctx context.Context, filePath, digest string) error
}

// httpDownloader implements Downloader using HTTP.
type httpDownloader struct {
	client *http.Client
}

// NewDownloader creates a new Downloader using the shared retrying
// transport (exponential backoff on 5xx/network failures, matching the
// release-listing providers), unauthenticated since asset download URLs
// are generally pre-signed or public.
func NewDownloader() Downloader {
	return &httpDownloader{
		client: httpx.NewClient(nil),
	}
}

// NewDownloaderWithClient creates a new Downloader with the given HTTP client.
func NewDownloaderWithClient(client *http.Client) Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpDownloader{
		client: client,
	}
}

// Download downloads a file from the given URL to destPath.
// Returns the path to the downloaded file.
func (d *httpDownloader) Download(ctx context.Context, url, destPath string) (string, error) {
	return d.DownloadWithProgress(ctx, url, destPath, nil)
}

// DownloadWithProgress downloads a file with optional progress callback.
func (d *httpDownloader) DownloadWithProgress(ctx context.Context, url, destPath string, callback ProgressCallback) (string, error) {
	slog.Debug("downloading file", "url", url, "dest", destPath)

	// Create HTTP request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Execute request
	resp, err := d.client.Do(req)
	if err != nil {
		return "", &foremanErrors.Error{
			Category: foremanErrors.CategoryTransport,
			Code:     foremanErrors.CodeNetworkFailed,
			Message:  fmt.Sprintf("failed to download from %s", url),
			Cause:    err,
		}
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode != http.StatusOK {
		return "", &foremanErrors.Error{
			Category: foremanErrors.CategoryTransport,
			Code:     foremanErrors.CodeHTTPError,
			Message:  fmt.Sprintf("failed to download: HTTP %d", resp.StatusCode),
			Details:  map[string]any{"url": url, "status_code": resp.StatusCode},
		}
	}

	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	// Create destination file
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // Clean up on error
	}()

	// Download with progress
	total := resp.ContentLength
	var reader io.Reader = resp.Body

	if callback != nil {
		reader = &progressReader{
			reader:   resp.Body,
			total:    total,
			callback: callback,
		}
	}

	if _, err := io.Copy(f, reader); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	// Close file before rename
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("failed to rename file: %w", err)
	}

	slog.Debug("download completed", "path", destPath)
	return destPath, nil
}

// progressReader wraps an io.Reader and reports progress.
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressCallback
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.downloaded += int64(n)
		r.callback(r.downloaded, r.total)
	}
	return n, err
}

// Verify verifies filePath's hash against digest. An empty digest
// skips verification; no provider is required to advertise one.
func (d *httpDownloader) Verify(ctx context.Context, filePath, digest string) error {
	if digest == "" {
		slog.Debug("no checksum advertised, skipping verification")
		return nil
	}

	algorithm, expectedHash, err := parseDigest(digest)
	if err != nil {
		return err
	}

	slog.Debug("verifying checksum", "file", filePath, "algorithm", algorithm)

	actualHash, err := hashFile(filePath, algorithm)
	if err != nil {
		return err
	}

	if actualHash != expectedHash {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedHash, actualHash)
	}

	slog.Debug("checksum verified", "algorithm", algorithm)
	return nil
}

// parseDigest splits a provider-advertised digest of the form
// "algorithm:hash", rejecting anything but the two algorithms foreman
// knows how to verify.
func parseDigest(digest string) (algorithm, expectedHash string, err error) {
	parts := strings.SplitN(digest, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid checksum format: expected 'algorithm:hash', got %q", digest)
	}

	switch parts[0] {
	case "sha256", "sha512":
	default:
		return "", "", fmt.Errorf("unsupported hash algorithm: %s", parts[0])
	}

	return parts[0], parts[1], nil
}

// hashFile hex-encodes the hash of filePath's contents using algorithm,
// one of "sha256" or "sha512".
func hashFile(filePath, algorithm string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var h hash.Hash
	switch algorithm {
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
