package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var githubAuthCmd = &cobra.Command{
	Use:   "github-auth [token]",
	Short: "Store a GitHub API token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHostAuth(cmd, "github", args)
	},
}

var gitlabAuthCmd = &cobra.Command{
	Use:   "gitlab-auth [token]",
	Short: "Store a GitLab API token",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHostAuth(cmd, "gitlab", args)
	},
}

func runHostAuth(cmd *cobra.Command, hostName string, args []string) error {
	token := ""
	if len(args) == 1 {
		token = args[0]
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s token: ", hostName)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read token from stdin: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return fmt.Errorf("no token provided")
	}

	h, err := setupHome()
	if err != nil {
		return err
	}

	store, err := loadAuthStore(h)
	if err != nil {
		return err
	}

	store.SetToken(hostName, token)
	if err := store.Save(h.AuthPath()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stored %s token\n", hostName)
	return nil
}
