package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foreman-rs/foreman/internal/cache"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print installed tools from the cache index",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	h, err := setupHome()
	if err != nil {
		return err
	}

	idx, err := cache.Load(h)
	if err != nil {
		return err
	}

	if len(idx.Entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no tools installed")
		return nil
	}

	for _, e := range idx.Entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\t%s\t%s\n", e.Host, e.Repo, e.Version, e.Path)
	}
	return nil
}
