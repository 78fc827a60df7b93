package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jlrickert/halopub/pkg/engine"
	"github.com/jlrickert/halopub/pkg/internal"
	"github.com/jlrickert/halopub/pkg/site"
)

// NewPublishCmd constructs the `publish` subcommand.
//
// Usage examples:
//
//	halopub publish post.md
//	halopub publish --site blog post.md
//	halopub publish --default post.md
func NewPublishCmd() *cobra.Command {
	var siteRef string
	var useDefault bool
	var noInput bool

	cmd := &cobra.Command{
		Use:     "publish <file>",
		Short:   "publish or update a markdown document on a site",
		Aliases: []string{"push"},
		Args:    cobra.ExactArgs(1),
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

			opts := engine.PublishOptions{
				SiteName:   siteRef,
				UseDefault: useDefault,
			}
			if !noInput {
				if piped, err := internal.IsPipe(); err == nil && !piped {
					opts.Selector = promptSiteSelection(cmd.InOrStdin(), cmd.ErrOrStderr())
				}
			}

			eng := engine.New(cfg)
			res, err := eng.Publish(ctx, string(raw), opts)
			if errors.Is(err, engine.ErrCanceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "publish canceled")
				return nil
			}
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

	cmd.Flags().StringVar(&siteRef, "site", "", "site name or URL to publish to")
	cmd.Flags().BoolVarP(&useDefault, "default", "d", false, "publish to the default site")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "never prompt for a site")

	return cmd
}

func reportResult(cmd *cobra.Command, path string, res *engine.Result) {
	for _, w := range res.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: "+w)
	}
	state := "draft"
	if res.Published {
		state = "published"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s) on %s\n",
		path, res.PostName, state, res.Site.URL)
}

// promptSiteSelection returns a selector that asks the user to pick a site
// by number. An empty or invalid answer cancels.
func promptSiteSelection(in io.Reader, out io.Writer) func([]site.Site) (*site.Site, error) {
	return func(sites []site.Site) (*site.Site, error) {
		fmt.Fprintln(out, "Select a site to publish to:")
		for i, s := range sites {
			label := s.Name
			if label == "" {
				label = s.URL
			}
			marker := ""
			if s.Default {
				marker = " (default)"
			}
			fmt.Fprintf(out, "  %d. %s%s\n", i+1, label, marker)
		}
		fmt.Fprint(out, "Site number: ")

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(sites) {
			return nil, nil
		}
		return &sites[n-1], nil
	}
}
