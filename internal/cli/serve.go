package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/server"
)

// serveCommand creates the serve command, which exposes a tree engine over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags layoutFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve [file.ged]",
		Short: "Serve a family tree layout over HTTP",
		Long: `Serve the laid out tree as JSON and SVG. Root changes, collapse toggles
and clicks made through the API are saved to the file's view.

Routes:
  GET  /healthz                 build information
  GET  /layout                  layout document (JSON)
  GET  /layout.svg              rendered SVG
  GET  /links/at?x=&y=          link under a point
  PUT  /root/{id}               change the root
  POST /collapse/{id}           toggle a collapsed entity
  POST /links/{index}/click     activate a link
  POST /links/{index}/dclick    re-root on a link`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), cmd, args[0], &flags, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cmd *cobra.Command, input string, f *layoutFlags, addr string) error {
	s, err := c.openSession(ctx, cmd, input, f)
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.runner.Engine(s.gedcom, s.opts)
	if err != nil {
		return err
	}
	e.SetStickToRoot(s.view.StickToRoot)

	srv := server.New(s.gedcom, e,
		server.WithLogger(c.Logger),
		server.WithRunner(s.runner),
		server.WithStore(s.store, s.view.Name),
	)
	printInfo("Serving %s on http://%s", input, addr)
	return srv.ListenAndServe(ctx, addr)
}
