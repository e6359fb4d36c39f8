package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/prefs"
	"github.com/matzehuels/kintree/pkg/render"
)

// register adds the layout flags to cmd.
func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.view, "view", "", "saved view to use (default: input file name)")
	cmd.Flags().StringVarP(&f.root, "root", "r", "", "root person or family id")
	cmd.Flags().StringSliceVarP(&f.collapsed, "collapse", "c", nil, "entity ids to collapse (repeatable)")
	cmd.Flags().BoolVar(&f.horizontal, "horizontal", false, "lay generations out left to right")
	cmd.Flags().StringVar(&f.personSize, "person-size", "", "person box size WIDTHxHEIGHT")
	cmd.Flags().StringVar(&f.familySize, "family-size", "", "family box size WIDTHxHEIGHT")
	cmd.Flags().BoolVar(&f.noSymbols, "no-marriage-symbols", false, "omit marriage symbols between spouses")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// session is what every layout-based command needs: a runner, the loaded
// genealogy, the merged options and the view they came from.
type session struct {
	runner *pipeline.Runner
	store  prefs.Store
	gedcom *gedcom.Gedcom
	hash   string
	view   *prefs.View
	opts   pipeline.Options
}

func (s *session) Close() {
	_ = s.runner.Close()
	_ = s.store.Close()
}

// openSession loads input and merges its saved view with the flags set on cmd.
func (c *CLI) openSession(ctx context.Context, cmd *cobra.Command, input string, f *layoutFlags) (*session, error) {
	store, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	s := &session{runner: runner, store: store}

	name := viewName(f.view, input)
	if s.view, err = prefs.LoadOrNew(ctx, store, name); err != nil {
		s.Close()
		return nil, fmt.Errorf("load view %s: %w", name, err)
	}
	if s.opts, err = f.options(input, s.view, cmd.Flags().Changed); err != nil {
		s.Close()
		return nil, err
	}
	logger := loggerFromContext(ctx)
	s.opts.Logger = logger

	prog := newProgress(logger)
	if s.gedcom, s.hash, err = runner.Load(ctx, input); err != nil {
		s.Close()
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d persons, %d families", s.gedcom.PersonCount(), s.gedcom.FamilyCount()))
	return s, nil
}

// layoutCommand creates the layout command, which writes the positioned tree
// as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout [file.ged]",
		Short: "Lay out a family tree and write it as JSON",
		Long: `Lay out the family tree around a root person and write the positioned
links as JSON (the same document as 'render -f json').

The root, collapsed entities and box sizes come from the file's saved view
unless overridden by flags. Results are cached locally for faster
subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), cmd, args[0], &flags, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, cmd *cobra.Command, input string, f *layoutFlags, output string) error {
	s, err := c.openSession(ctx, cmd, input, f)
	if err != nil {
		return err
	}
	defer s.Close()

	l, hit, err := s.runner.Layout(ctx, s.gedcom, s.hash, s.opts)
	if err != nil {
		return err
	}
	data, err := render.MarshalJSON(render.Export(l, render.Labels(s.gedcom)))
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	outputPath := output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if outputPath == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := writeOutput(outputPath, data); err != nil {
		return err
	}

	printSuccess("Layout written")
	printStats(s.gedcom.PersonCount(), s.gedcom.FamilyCount(), l.Len(), hit)
	printFile(outputPath)
	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}
