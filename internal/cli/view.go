package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	kerrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/prefs"
	"github.com/matzehuels/kintree/pkg/tree"
)

// rootCommand creates the root command, which stores the root entity of a
// file's view.
func (c *CLI) rootCommand() *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "root [file.ged] [id]",
		Short: "Set the root person or family of a file's view",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.updateView(cmd.Context(), args[0], view, args[1], func(v *prefs.View, _ tree.Source, id string) error {
				v.Root = id
				printSuccess("Root of %s is now %s", v.Name, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "view to update (default: input file name)")
	return cmd
}

// collapseCommand creates the collapse command, which toggles whether an
// entity is collapsed in a file's view.
func (c *CLI) collapseCommand() *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "collapse [file.ged] [id]",
		Short: "Toggle whether an entity is collapsed in a file's view",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.updateView(cmd.Context(), args[0], view, args[1], func(v *prefs.View, src tree.Source, id string) error {
				set := tree.NewCollapseSet(v.Collapsed...)
				if !set.Contains(id) && !tree.Collapsible(src, id) {
					return pipeline.Coded(fmt.Errorf("%w: %s", tree.ErrNotCollapsible, id))
				}
				if set.Toggle(id) {
					printSuccess("Collapsed %s", id)
				} else {
					printSuccess("Expanded %s", id)
				}
				v.Collapsed = set.IDs()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "view to update (default: input file name)")
	return cmd
}

// updateView checks that id names an entity of input, applies fn to the
// view and saves it unless fn fails.
func (c *CLI) updateView(ctx context.Context, input, name, id string, fn func(*prefs.View, tree.Source, string) error) error {
	if err := kerrors.ValidateEntityID(id); err != nil {
		return err
	}
	id = kerrors.NormalizeID(id)

	g, _, err := pipeline.NewRunner(nil, nil, c.Logger).Load(ctx, input)
	if err != nil {
		return err
	}
	if _, err := g.Entity(id); err != nil {
		return pipeline.Coded(fmt.Errorf("%s: %w", id, err))
	}

	store, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := prefs.LoadOrNew(ctx, store, viewName(name, input))
	if err != nil {
		return err
	}
	if err := fn(v, g, id); err != nil {
		return err
	}
	v.UpdatedAt = time.Now()
	return store.Save(ctx, v)
}

// viewsCommand creates the views command group.
func (c *CLI) viewsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "List, show and delete saved views",
	}
	cmd.AddCommand(c.viewsListCommand())
	cmd.AddCommand(c.viewsShowCommand())
	cmd.AddCommand(c.viewsDeleteCommand())
	return cmd
}

func (c *CLI) viewsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No saved views")
				return nil
			}
			views := make([]*prefs.View, 0, len(names))
			for _, name := range names {
				v, err := store.Load(ctx, name)
				if err != nil {
					return fmt.Errorf("load view %s: %w", name, err)
				}
				views = append(views, v)
			}
			fmt.Fprintln(cmd.OutOrStdout(), viewsTable(views))
			return nil
		},
	}
}

// viewsTable renders views as a bordered table.
func viewsTable(views []*prefs.View) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("VIEW", "ROOT", "COLLAPSED", "ORIENTATION", "UPDATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return StyleTitle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, v := range views {
		updated := "-"
		if !v.UpdatedAt.IsZero() {
			updated = v.UpdatedAt.Format(time.DateTime)
		}
		t.Row(v.Name, orDash(v.Root), fmt.Sprint(len(v.Collapsed)), orientation(v.Vertical), updated)
	}
	return t.String()
}

func (c *CLI) viewsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			v, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}
			printKeyValue("View", v.Name)
			printKeyValue("Root", orDash(v.Root))
			printKeyValue("Collapsed", orDash(strings.Join(v.Collapsed, ", ")))
			printKeyValue("Person box", fmt.Sprintf("%dx%d", v.PersonSize.Width, v.PersonSize.Height))
			printKeyValue("Family box", fmt.Sprintf("%dx%d", v.FamilySize.Width, v.FamilySize.Height))
			printKeyValue("Orientation", orientation(v.Vertical))
			printKeyValue("Symbols", fmt.Sprint(v.MarriageSymbols))
			printKeyValue("Stick root", fmt.Sprint(v.StickToRoot))
			return nil
		},
	}
}

func (c *CLI) viewsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted view %s", args[0])
			return nil
		},
	}
}

func orientation(vertical bool) string {
	if vertical {
		return pipeline.OrientationVertical
	}
	return pipeline.OrientationHorizontal
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
