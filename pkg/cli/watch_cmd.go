package cli

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jlrickert/halopub/pkg/engine"
	"github.com/jlrickert/halopub/pkg/internal"
	"github.com/jlrickert/halopub/pkg/log"
)

// NewWatchCmd constructs the `watch` subcommand: republish a document every
// time it is saved, until interrupted.
func NewWatchCmd() *cobra.Command {
	var siteRef string
	var useDefault bool

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "republish a document whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lg := log.FromContext(ctx)

			cfg, _, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			eng := engine.New(cfg)
			opts := engine.PublishOptions{SiteName: siteRef, UseDefault: useDefault}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("watch file: %w", err)
			}
			defer func() {
				_ = watcher.Close()
			}()
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("watch directory: %w", err)
			}

			var (
				hasHash  bool
				lastHash [sha256.Size]byte
			)
			if initial, err := os.ReadFile(path); err == nil {
				lastHash = sha256.Sum256(initial)
				hasHash = true
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("read watched file: %w", err)
			}

			process := func() {
				raw, err := os.ReadFile(path)
				if err != nil {
					if !os.IsNotExist(err) {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: read %s: %v\n", path, err)
					}
					return
				}
				sum := sha256.Sum256(raw)
				if hasHash && sum == lastHash {
					return
				}
				lastHash = sum
				hasHash = true

				res, err := eng.Publish(ctx, string(raw), opts)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: publish failed: %v\n", err)
					return
				}
				// Writing the reconciled document back fires another event;
				// recording its hash first keeps the loop quiet.
				lastHash = sha256.Sum256([]byte(res.Text))
				if err := internal.AtomicWriteFile(path, []byte(res.Text), 0o644); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: write %s: %v\n", path, err)
					return
				}
				reportResult(cmd, args[0], res)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", args[0])

			var (
				pending     bool
				pendingFrom time.Time
			)
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if pending && time.Since(pendingFrom) >= 120*time.Millisecond {
						process()
						pending = false
					}
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != path {
						continue
					}
					if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
						continue
					}
					pending = true
					pendingFrom = time.Now()
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					lg.Warn("watch error", "error", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&siteRef, "site", "", "site name or URL to publish to")
	cmd.Flags().BoolVarP(&useDefault, "default", "d", false, "publish to the default site")

	return cmd
}
