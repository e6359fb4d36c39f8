package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/pipeline"
)

// renderCommand creates the render command, which lays out a tree and writes
// it in one or more output formats.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		output     string
		formatsStr string
		scale      float64
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "render [file.ged]",
		Short: "Render a family tree to SVG, PDF, PNG, DOT or JSON",
		Long: `Render the family tree around a root person.

With a single format, -o names the output file. With several formats, -o is
a base path and each format gets its own extension. PDF and PNG conversion
needs rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd, args[0], &flags, renderOutput{
				output:  output,
				formats: formats,
				scale:   scale,
				refresh: refresh,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, pdf, png (comma-separated)")
	cmd.Flags().Float64Var(&scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached artifacts")
	flags.register(cmd)

	return cmd
}

type renderOutput struct {
	output  string
	formats []string
	scale   float64
	refresh bool
}

// paths maps each format to the file it is written to.
func (o renderOutput) paths(input string) map[string]string {
	paths := make(map[string]string, len(o.formats))
	if len(o.formats) == 1 && o.output != "" && basePath(o.output, input) != o.output {
		paths[o.formats[0]] = o.output
		return paths
	}
	base := basePath(o.output, input)
	for _, f := range o.formats {
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, cmd *cobra.Command, input string, f *layoutFlags, out renderOutput) error {
	s, err := c.openSession(ctx, cmd, input, f)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := s.opts
	opts.Formats = out.formats
	opts.Scale = out.scale
	opts.Refresh = out.refresh

	l, layoutHit, err := s.runner.Layout(ctx, s.gedcom, s.hash, opts)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	var sp *spinner
	if slices.Contains(out.formats, pipeline.FormatPDF) || slices.Contains(out.formats, pipeline.FormatPNG) {
		sp = startSpinner(ctx, "Converting")
	}
	artifacts, renderHit, err := s.runner.Render(ctx, s.gedcom, l, opts)
	if sp != nil {
		sp.stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d files", len(artifacts)))

	paths := out.paths(input)
	for _, format := range out.formats {
		if err := writeOutput(paths[format], artifacts[format]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", input)
	printStats(s.gedcom.PersonCount(), s.gedcom.FamilyCount(), l.Len(), layoutHit && renderHit)
	for _, format := range out.formats {
		printFile(paths[format])
	}
	return nil
}
