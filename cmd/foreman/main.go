package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	foremanErrors "github.com/foreman-rs/foreman/internal/errors"
	"github.com/foreman-rs/foreman/internal/trampoline"
)

func main() {
	alias := trampoline.AliasFromArgv0(os.Args[0])

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if trampoline.IsForeman(alias) {
		if err := rootCmd.ExecuteContext(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "foreman: %v\n", err)
			os.Exit(foremanErrors.ExitCode(err))
		}
		return
	}

	code, err := runTrampoline(ctx, alias, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", alias, err)
	}
	os.Exit(code)
}
