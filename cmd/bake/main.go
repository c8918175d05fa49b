// Package main is the entry point for the bake build tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/bake/cmd/bake/commands"
	"go.trai.ch/bake/internal/app"
	"go.trai.ch/bake/internal/core/domain"
	_ "go.trai.ch/bake/internal/wiring"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, func(ctx context.Context) (*app.Components, error) {
		c, _, err := graft.ExecuteFor[*app.Components](ctx)
		return c, err
	}))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, provider ComponentProvider) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, err := provider(ctx)
	if err != nil {
		// The logger is part of the components; write directly.
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return exitFailure
	}

	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(stdout, stderr)

	err = cli.Execute(ctx)
	code := exitCode(err)
	switch code {
	case exitOK:
	case exitInterrupted:
		_, _ = fmt.Fprintln(stderr, "interrupted")
	default:
		components.Logger.Error(err)
	}
	return code
}

// exitCode maps the error a command returned to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrInterrupted):
		return exitInterrupted
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrInvalidUsage),
		errors.Is(err, domain.ErrUnsatisfiedDependency):
		return exitUsage
	default:
		return exitFailure
	}
}
