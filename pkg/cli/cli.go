// Package cli wires the halopub commands: publish, pull, watch, and site
// management.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// Version is stamped onto log records and the version command output.
const Version = "0.1.0"

// Run executes the CLI with the given arguments. The returned exit code is
// 0 on success, 130 on interrupt, and 1 on any other failure.
func Run(ctx context.Context, args []string) (int, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return 130, err
		}
		return 1, err
	}
	return 0, nil
}
