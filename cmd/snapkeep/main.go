// Package main is the entry point for the snapkeep CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands"
	"github.com/thoreinstein/snapkeep/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := commands.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), errors.Summary(err))
		os.Exit(errors.CodeOf(err))
	}
}
