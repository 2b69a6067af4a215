// Package installer orchestrates a full `foreman install` run: for
// every tool in a MergedConfig, resolve its version, consult the cache,
// download and extract on a miss, record the cache entry, and ensure
// its trampoline exists in bin/.
package installer

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/foreman-rs/foreman/internal/auth"
	"github.com/foreman-rs/foreman/internal/cache"
	"github.com/foreman-rs/foreman/internal/config"
	"github.com/foreman-rs/foreman/internal/download"
	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
	"github.com/foreman-rs/foreman/internal/extract"
	"github.com/foreman-rs/foreman/internal/home"
	"github.com/foreman-rs/foreman/internal/host"
	foremanlog "github.com/foreman-rs/foreman/internal/log"
	"github.com/foreman-rs/foreman/internal/provider"
	"github.com/foreman-rs/foreman/internal/selector"
	"github.com/foreman-rs/foreman/internal/versionspec"
)

// ProgressReporter is notified as a tool's download proceeds. Start may
// return a nil download.ProgressCallback (e.g. a non-interactive renderer
// that never constructs a bar); the downloader then reports no progress.
type ProgressReporter interface {
	Start(alias string) download.ProgressCallback
	Complete(alias string)
	Fail(alias string)
}

// Result is the outcome of installing a single tool alias.
type Result struct {
	Alias string
	Err   error
}

// Options configures an install run.
type Options struct {
	// Parallelism is the number of tools installed concurrently. Values
	// less than 2 install sequentially.
	Parallelism int
	// Progress receives download progress notifications. May be nil.
	Progress ProgressReporter
}

// Installer installs tools per a MergedConfig into Home.
type Installer struct {
	home       *home.Home
	auth       *auth.Store
	target     selector.Target
	logStore   *foremanlog.Store
	downloader download.Downloader
}

// New creates an Installer rooted at h, authenticating provider
// requests with tokens from authStore and selecting assets for target.
func New(h *home.Home, authStore *auth.Store, target selector.Target, logStore *foremanlog.Store) *Installer {
	return &Installer{
		home:       h,
		auth:       authStore,
		target:     target,
		logStore:   logStore,
		downloader: download.NewDownloader(),
	}
}

// InstallAll installs every tool in merged.Tools, alphabetically by
// alias. Errors installing one tool never abort the others ("install
// all before fail"): every tool is attempted, and the caller inspects
// the returned Results to decide the process exit code.
func (in *Installer) InstallAll(ctx context.Context, merged *config.MergedConfig, opts Options) []Result {
	aliases := make([]string, 0, len(merged.Tools))
	for alias := range merged.Tools {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	results := make([]Result, len(aliases))

	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	if parallelism == 1 {
		for i, alias := range aliases {
			err := in.installOne(ctx, alias, merged.Tools[alias], merged.Hosts, opts.Progress)
			results[i] = Result{Alias: alias, Err: err}
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, alias := range aliases {
		i, alias := i, alias
		g.Go(func() error {
			err := in.installOne(gctx, alias, merged.Tools[alias], merged.Hosts, opts.Progress)
			results[i] = Result{Alias: alias, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (in *Installer) installOne(ctx context.Context, alias string, ref config.ToolRef, hosts *host.Registry, progress ProgressReporter) error {
	if in.logStore != nil {
		in.logStore.RecordStart(alias, ref.Repo)
	}

	err := in.installOneInner(ctx, alias, ref, hosts, progress)

	if in.logStore != nil {
		if err != nil {
			in.logStore.RecordError(alias, err)
		} else {
			in.logStore.RecordComplete(alias)
		}
	}

	return foremanErrors.WithAlias(err, alias)
}

func (in *Installer) installOneInner(ctx context.Context, alias string, ref config.ToolRef, hosts *host.Registry, progress ProgressReporter) error {
	h, err := hosts.Resolve(ref.Host)
	if err != nil {
		return err
	}

	req, err := versionspec.Parse(ref.Version)
	if err != nil {
		return err
	}

	token := ""
	if in.auth != nil {
		token = in.auth.TokenForHost(ref.Host)
	}
	p, err := provider.New(h, token)
	if err != nil {
		return err
	}

	releases, err := p.ListReleases(ctx, ref.Repo)
	if err != nil {
		return err
	}

	vsReleases := make([]versionspec.Release[[]provider.Asset], len(releases))
	for i, r := range releases {
		vsReleases[i] = versionspec.Release[[]provider.Asset]{Tag: r.Tag, Assets: r.Assets}
	}

	selected, err := versionspec.SelectRelease(req, ref.Repo, vsReleases)
	if err != nil {
		return err
	}
	version := selected.Version.String()
	tupleKey := cache.Key(ref.Host, ref.Repo, version)

	execPath, hit, err := lookupCachedPath(in.home, ref.Host, ref.Repo, version)
	if err != nil {
		return err
	}

	if !hit {
		asset, err := selector.Select(in.target, selected.Assets, alias)
		if err != nil {
			return err
		}

		// The global index lock only ever guards the read-modify-write of
		// tool-cache.json; it's released before this blocks on the
		// per-tuple lock, so distinct tools' downloads never serialize
		// on each other under --parallel.
		installLock := cache.InstallLock(in.home, tupleKey)
		if lockErr := installLock.Lock(); lockErr != nil {
			return fmt.Errorf("failed to acquire install lock for %s: %w", alias, lockErr)
		}
		defer installLock.Unlock()

		// Another installer may have finished this exact tuple while we
		// waited for the lock above.
		execPath, hit, err = lookupCachedPath(in.home, ref.Host, ref.Repo, version)
		if err != nil {
			return err
		}

		if !hit {
			destDir := filepath.Join(in.home.ToolsDir(), tupleKey)
			path, err := in.downloadAndExtract(ctx, alias, ref.Repo, asset, destDir, progress)
			if err != nil {
				return err
			}
			execPath = path

			rel, err := filepath.Rel(in.home.Root(), path)
			if err != nil {
				rel = path
			}

			if err := cache.WithLock(in.home, func(idx *cache.Index) error {
				idx.Put(cache.CacheEntry{Host: ref.Host, Repo: ref.Repo, Version: version, Path: rel})
				return nil
			}); err != nil {
				return err
			}
		}
	}

	_ = execPath

	return in.ensureTrampoline(alias)
}

// lookupCachedPath reports whether (hostName, repo, version) already has
// a live cached executable, taking the global index lock only for the
// read — never across a download.
func lookupCachedPath(h *home.Home, hostName, repo, version string) (path string, hit bool, err error) {
	err = cache.WithLock(h, func(idx *cache.Index) error {
		if entry, ok := idx.Lookup(hostName, repo, version); ok {
			path = filepath.Join(h.Root(), entry.Path)
			hit = true
		}
		return nil
	})
	return path, hit, err
}

func (in *Installer) downloadAndExtract(ctx context.Context, alias, repo string, asset provider.Asset, destDir string, progress ProgressReporter) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create tool directory: %w", err)
	}

	downloadPath := filepath.Join(destDir, asset.Name)

	var cb download.ProgressCallback
	if progress != nil {
		cb = progress.Start(alias)
	}

	archivePath, err := in.downloader.DownloadWithProgress(ctx, asset.DownloadURL, downloadPath, cb)
	if progress != nil {
		if err != nil {
			progress.Fail(alias)
		} else {
			progress.Complete(alias)
		}
	}
	if err != nil {
		return "", err
	}

	if err := in.downloader.Verify(ctx, archivePath, asset.Digest); err != nil {
		return "", err
	}

	archiveType := extract.DetectArchiveType(asset.Name)
	if archiveType == "" {
		header := make([]byte, 4)
		if f, ferr := os.Open(archivePath); ferr == nil {
			f.Read(header)
			f.Close()
		}
		archiveType = extract.DetectArchiveTypeFromMagic(header)
	}

	extractor, err := extract.NewExtractor(archiveType)
	if err != nil {
		return "", &foremanErrors.Error{
			Category: foremanErrors.CategoryExtraction,
			Code:     foremanErrors.CodeUnknownArchive,
			Message:  fmt.Sprintf("unrecognized archive format for %s", asset.Name),
			Cause:    err,
		}
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open downloaded archive: %w", err)
	}
	extractErr := extractor.Extract(f, destDir)
	f.Close()
	if extractErr != nil {
		// extractTar/zipExtractor already report path traversal as a
		// fully-formed *Error; only wrap the generic failures (corrupt
		// headers, truncated streams) that surface as plain errors.
		var fe *foremanErrors.Error
		if stderrors.As(extractErr, &fe) {
			return "", fe
		}
		return "", &foremanErrors.Error{
			Category: foremanErrors.CategoryExtraction,
			Code:     foremanErrors.CodeCorruptArchive,
			Message:  fmt.Sprintf("failed to extract %s", asset.Name),
			Cause:    extractErr,
		}
	}

	// The archive itself was extracted into destDir alongside its
	// contents (raw downloads land there directly); remove it so it
	// never gets mistaken for the tool's primary executable.
	os.Remove(archivePath)

	if err := cache.FixPermissions(destDir); err != nil {
		return "", fmt.Errorf("failed to fix extracted permissions: %w", err)
	}

	return cache.FindPrimaryExecutable(destDir, alias, repo)
}

// ensureTrampoline copies the current foreman executable's bytes to
// bin/<alias>[.exe], skipping the write when the bytes already match.
func (in *Installer) ensureTrampoline(alias string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve foreman's own executable path: %w", err)
	}
	selfData, err := os.ReadFile(self)
	if err != nil {
		return fmt.Errorf("failed to read foreman executable: %w", err)
	}

	name := alias
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	dest := filepath.Join(in.home.BinDir(), name)

	if existing, err := os.ReadFile(dest); err == nil && bytes.Equal(existing, selfData) {
		return nil
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, selfData, 0o755); err != nil {
		return fmt.Errorf("failed to write trampoline for %s: %w", alias, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to place trampoline for %s: %w", alias, err)
	}
	return nil
}
