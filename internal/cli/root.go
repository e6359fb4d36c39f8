package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	"github.com/matzehuels/kintree/pkg/observability"
)

// RootCommand builds the kintree command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "kintree lays out family trees from GEDCOM files",
		Long: `kintree reads a genealogy (GEDCOM or its JSON form) and lays out the
ancestors and descendants of a root person as a positioned tree. Layouts can
be written as JSON, DOT, SVG, PDF or PNG, browsed in the terminal or served
over HTTP. Per-file view settings (root, collapsed entities, box sizes) are
remembered between runs.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if c.Logger.GetLevel() <= LogDebug {
				hooks := &logHooks{logger: c.Logger}
				observability.SetPipelineHooks(hooks)
				observability.SetCacheHooks(hooks)
				observability.SetTreeHooks(hooks)
			}
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.redisURL, "redis", "", "cache layouts and artifacts in Redis (redis://host:port/db)")
	root.PersistentFlags().StringVar(&c.mongoURI, "mongo", "", "store views in MongoDB instead of TOML files")
	root.PersistentFlags().StringVar(&c.mongoDB, "mongo-db", appName, "MongoDB database for views")
	root.PersistentFlags().StringVar(&c.viewDir, "view-dir", "", "directory for TOML view files (default: user config dir)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.rootCommand())
	root.AddCommand(c.collapseCommand())
	root.AddCommand(c.viewsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
