package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jlrickert/halopub/pkg/site"
)

// NewSiteCmd constructs the `site` command group for managing configured
// sites.
func NewSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "manage configured sites",
	}
	cmd.AddCommand(
		newSiteListCmd(),
		newSiteAddCmd(),
		newSiteRemoveCmd(),
		newSiteDefaultCmd(),
		newSiteAutoPublishCmd(),
	)
	return cmd
}

func newSiteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "list configured sites",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			registry := cfg.Registry()
			if registry.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sites configured")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tURL\tDEFAULT")
			for _, s := range registry.Sites() {
				marker := ""
				if s.Default {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.URL, marker)
			}
			return w.Flush()
		},
	}
}

func newSiteAddCmd() *cobra.Command {
	var name string
	var token string
	var makeDefault bool

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "add or update a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			registry := cfg.Registry()
			s := site.Site{Name: name, URL: args[0], Token: token, Default: makeDefault}
			if !registry.Add(s) {
				return fmt.Errorf("invalid site: a URL with a host and a token are required")
			}
			if makeDefault {
				registry.SetDefault(args[0])
			}

			cfg.Sites = registry.Sites()
			if err := site.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", site.NormalizeURL(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "short name for the site")
	cmd.Flags().StringVar(&token, "token", "", "personal access token with post permissions")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "make this the default site")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newSiteRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name-or-url>",
		Short:   "remove a configured site",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			registry := cfg.Registry()
			if !registry.Remove(args[0]) {
				return fmt.Errorf("site %q is not configured", args[0])
			}

			cfg.Sites = registry.Sites()
			if err := site.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newSiteDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <name-or-url>",
		Short: "set the default site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			registry := cfg.Registry()
			if !registry.SetDefault(args[0]) {
				return fmt.Errorf("site %q is not configured", args[0])
			}

			cfg.Sites = registry.Sites()
			if err := site.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default site is now %s\n", args[0])
			return nil
		},
	}
}

func newSiteAutoPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto-publish <true|false>",
		Short: "set whether documents publish by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", args[0])
			}

			cfg, path, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			cfg.PublishByDefault = value
			if err := site.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "auto-publish set to %t\n", value)
			return nil
		},
	}
}
