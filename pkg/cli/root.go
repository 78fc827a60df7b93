package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/jlrickert/halopub/pkg/log"
	"github.com/jlrickert/halopub/pkg/site"
)

type shutdownKey struct{}
type configPathKey struct{}

// NewRootCmd builds the root cobra command and wires persistent flags. The
// PersistentPreRunE only installs a production logger when the incoming
// command context does not already carry one, so tests can inject a test
// logger via cmd.SetContext before Execute.
func NewRootCmd() *cobra.Command {
	var configPath string
	var logFile string
	var logLevel string
	var logJSON bool

	cmd := &cobra.Command{
		Use:           "halopub",
		Short:         "publish and sync local markdown documents with Halo sites",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !hasLogger(ctx) {
				var out = os.Stderr
				var f *os.File
				if logFile != "" {
					var err error
					f, err = os.OpenFile(logFile,
						os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
					if err != nil {
						return err
					}
					out = f
				}
				lg := log.NewLogger(log.LoggerConfig{
					Out:     out,
					Level:   log.ParseLevel(logLevel),
					JSON:    logJSON,
					Version: Version,
				})
				ctx = log.ContextWithLogger(ctx, lg)
				if f != nil {
					file := f
					ctx = context.WithValue(ctx, shutdownKey{}, func() {
						_ = file.Close()
					})
				}
			}

			if configPath != "" {
				ctx = context.WithValue(ctx, configPathKey{}, configPath)
			}

			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if v := cmd.Context().Value(shutdownKey{}); v != nil {
				if sd, ok := v.(func()); ok && sd != nil {
					sd()
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the halopub config file")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file (default stderr)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"minimum log level")
	cmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"output logs as JSON")

	cmd.AddCommand(
		NewPublishCmd(),
		NewPullCmd(),
		NewWatchCmd(),
		NewSiteCmd(),
	)

	return cmd
}

func hasLogger(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	return log.FromContext(ctx) != log.FromContext(context.Background())
}

// resolveConfigPath returns the --config override from ctx or the default
// location.
func resolveConfigPath(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(configPathKey{}).(string); ok && v != "" {
		return v, nil
	}
	return site.DefaultPath()
}

// loadConfig loads the configuration the commands operate on, returning the
// path it came from so mutating commands can write back.
func loadConfig(ctx context.Context) (site.Config, string, error) {
	path, err := resolveConfigPath(ctx)
	if err != nil {
		return site.Config{}, "", err
	}
	cfg, err := site.Load(path)
	if err != nil {
		return site.Config{}, "", err
	}
	return cfg, path, nil
}
