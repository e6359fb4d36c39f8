package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	kerrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/gedcom"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// checkCommand creates the check command, which validates a genealogy file
// without laying it out.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file.ged]",
		Short: "Check a genealogy file for cycles and ambiguous ids",
		Long: `Check a genealogy file for problems that break layouts:

  - relationship cycles (a person who is their own ancestor)
  - ids used by more than one record, which cannot be chosen as root`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runCheck(ctx context.Context, input string) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	g, _, err := runner.Load(ctx, input)
	if err != nil {
		return err
	}
	printInfo("%s", input)
	printKeyValue("Persons", fmt.Sprint(g.PersonCount()))
	printKeyValue("Families", fmt.Sprint(g.FamilyCount()))

	return checkGedcom(g)
}

// checkGedcom reports ambiguous ids as warnings and cycles as an error.
func checkGedcom(g *gedcom.Gedcom) error {
	if amb := g.Ambiguous(); len(amb) > 0 {
		printWarning("%d ambiguous ids: %s", len(amb), strings.Join(amb, ", "))
	}
	if err := gedcom.Validate(g); err != nil {
		printError("%s", kerrors.UserMessage(pipeline.Coded(err)))
		return pipeline.Coded(err)
	}
	printSuccess("No relationship cycles")
	return nil
}
