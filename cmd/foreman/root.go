package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "A multi-tool version manager for developer toolchains",
	Long: `Foreman installs and dispatches pinned versions of developer tools
declared in foreman.toml, from GitHub and GitLab releases. Artifactory
hosts are accepted in configuration, but listing their releases fails.

Running a tool's name directly (via a trampoline in ~/.foreman/bin) looks
up its pinned version and execs the cached binary; foreman itself only
handles installation and bookkeeping.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: verbosityToLevel(verbosity),
		})))
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv and above debug)")

	rootCmd.AddCommand(
		installCmd,
		listCmd,
		githubAuthCmd,
		gitlabAuthCmd,
	)
}

// verbosityToLevel maps the repeated -v flag to a slog level: silent by
// default (warnings only), -v for info, -vv and above for debug.
func verbosityToLevel(n int) slog.Level {
	switch {
	case n >= 2:
		return slog.LevelDebug
	case n == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}
