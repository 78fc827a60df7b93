package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jlrickert/halopub/pkg/engine"
	"github.com/jlrickert/halopub/pkg/internal"
)

// NewPullCmd constructs the `pull` subcommand, which replaces the local
// document with the remote post's state.
func NewPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <file>",
		Short: "update a document from its linked remote post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			path := args[0]
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			eng := engine.New(cfg)
			res, err := eng.Pull(ctx, string(raw))
			if err != nil {
				return err
			}

			if err := internal.AtomicWriteFile(path, []byte(res.Text), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			reportResult(cmd, path, res)
			return nil
		},
	}
	return cmd
}
