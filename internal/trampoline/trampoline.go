// Package trampoline implements foreman's second entry point: when the
// running binary is invoked under a name other than "foreman", it looks
// that name up as a tool alias, resolves its cached executable, and
// execs it transparently, forwarding stdio, signals, and exit status.
package trampoline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/foreman-rs/foreman/internal/cache"
	"github.com/foreman-rs/foreman/internal/config"
	"github.com/foreman-rs/foreman/internal/home"
	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
)

// AliasFromArgv0 strips a path and an executable extension from argv[0],
// returning the basename the process was invoked under. Returns "" for
// an empty argv[0].
func AliasFromArgv0(argv0 string) string {
	base := argv0
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if runtime.GOOS == "windows" {
		base = strings.TrimSuffix(base, ".exe")
	}
	return base
}

// IsForeman reports whether alias names the CLI entry point itself,
// rather than a trampoline.
func IsForeman(alias string) bool {
	return alias == "foreman"
}

// Run resolves alias against merged, execs its cached executable with
// args, and returns the exit code foreman itself should exit with. It
// never returns a non-nil error for a child that ran and exited —
// failures there are reported purely through the returned code, per
// the component's "no Retry state" contract.
func Run(ctx context.Context, h *home.Home, merged *config.MergedConfig, alias string, args []string) (int, error) {
	ref, ok := merged.Tools[alias]
	if !ok {
		return 1, &foremanErrors.Error{
			Category: foremanErrors.CategoryDispatch,
			Code:     foremanErrors.CodeUnknownAlias,
			Message:  fmt.Sprintf("unknown tool %q; is it listed in foreman.toml?", alias),
			Alias:    alias,
		}
	}

	idx, err := cache.Load(h)
	if err != nil {
		return 1, err
	}

	execPath, err := resolveExecPath(idx, h, ref, alias)
	if err != nil {
		return 1, err
	}

	return spawn(ctx, execPath, args)
}

func resolveExecPath(idx *cache.Index, h *home.Home, ref config.ToolRef, alias string) (string, error) {
	// Versions are pinned at install time; the trampoline trusts whatever
	// single cached version exists for this (host, repo), since the
	// ToolRef's VersionReq may have since matched a newer release than
	// what's on disk.
	for _, e := range idx.Entries {
		if e.Host != ref.Host || e.Repo != ref.Repo {
			continue
		}
		full := filepath.Join(h.Root(), e.Path)
		if info, statErr := os.Stat(full); statErr == nil && !info.IsDir() {
			return full, nil
		}
	}
	return "", &foremanErrors.Error{
		Category: foremanErrors.CategoryCache,
		Code:     foremanErrors.CodeMissingCachedBinary,
		Message:  fmt.Sprintf("%s is not installed; run `foreman install`", alias),
		Alias:    alias,
		Hint:     "run `foreman install` from a directory whose foreman.toml declares this tool",
	}
}

// spawn execs execPath with args, inheriting stdio, forwarding SIGINT
// and SIGTERM to the child while it runs, and translating its exit
// status: the child's own exit code, or 128+N if it died from signal N
// (POSIX only — Windows processes don't expose a signal-terminated exit
// status this way).
func spawn(ctx context.Context, execPath string, args []string) (int, error) {
	cmd := exec.Command(execPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("failed to start %s: %w", execPath, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	// ctx is typically cancelled by the same SIGINT/SIGTERM sigCh just
	// received (main installs both), so ctx.Done() stays permanently
	// ready afterwards. Forward once on it, then nil the channel out so
	// the select stops re-selecting it every iteration and spamming the
	// child with signals while it's still shutting down.
	ctxDone := ctx.Done()
	for {
		select {
		case sig := <-sigCh:
			forwardSignal(cmd, sig)
		case err := <-done:
			return exitCodeFor(err), nil
		case <-ctxDone:
			forwardSignal(cmd, syscall.SIGTERM)
			ctxDone = nil
		}
	}
}

func forwardSignal(cmd *exec.Cmd, sig os.Signal) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(sig); err != nil {
		slog.Debug("failed to forward signal to child", "signal", sig, "error", err)
	}
}

func exitCodeFor(waitErr error) int {
	if waitErr == nil {
		return 0
	}

	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		return 1
	}

	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && runtime.GOOS != "windows" {
		if ws.Signaled() {
			return 128 + int(ws.Signal())
		}
	}
	return exitErr.ExitCode()
}
