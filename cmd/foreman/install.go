package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/foreman-rs/foreman/internal/cli"
	"github.com/foreman-rs/foreman/internal/installer"
	foremanlog "github.com/foreman-rs/foreman/internal/log"
	"github.com/foreman-rs/foreman/internal/selector"
)

// keepLogSessions is the number of past install-log sessions retained
// under <Home>/logs before older ones are pruned.
const keepLogSessions = 10

var installParallelism int

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install every tool declared in foreman.toml for the current directory",
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().IntVar(&installParallelism, "parallel", 1, "number of tools to download and install concurrently")
}

func runInstall(cmd *cobra.Command, args []string) error {
	h, err := setupHome()
	if err != nil {
		return err
	}

	merged, err := loadMergedConfig(h)
	if err != nil {
		return err
	}

	authStore, err := loadAuthStore(h)
	if err != nil {
		return err
	}

	target, err := selector.HostTarget(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}

	logStore := foremanlog.NewStore(h.LogsDir())
	defer logStore.Close()

	progress := cli.NewProgress(cmd.OutOrStdout())
	printer := cli.NewPrinter(cmd.OutOrStdout())

	in := installer.New(h, authStore, target, logStore)
	results := in.InstallAll(cmd.Context(), merged, installer.Options{
		Parallelism: installParallelism,
		Progress:    progress,
	})
	progress.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			printer.ToolFailed(r.Alias, r.Err)
			continue
		}
		printer.ToolOK(r.Alias)
	}
	printer.Summary(len(results), failed)

	if err := logStore.Flush(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to persist install logs: %v\n", err)
	}
	if err := logStore.Cleanup(keepLogSessions); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to clean up old install logs: %v\n", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tools failed to install", failed, len(results))
	}
	return nil
}
