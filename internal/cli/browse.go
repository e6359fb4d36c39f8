package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	kerrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/prefs"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/tree"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listRootStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// browseCommand creates the browse command, an interactive terminal view of
// a laid out tree.
func (c *CLI) browseCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "browse [file.ged]",
		Short: "Browse a family tree interactively in the terminal",
		Long: `Browse the laid out tree link by link.

Keys:
  ↑/↓ j/k   move between links
  space     activate the link (markers expand or collapse)
  enter     make the person or family the new root
  c         collapse or expand the entity under the cursor
  s         stick to the current root
  v         switch between vertical and horizontal layout
  q         save the view and quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), cmd, args[0], &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, cmd *cobra.Command, input string, f *layoutFlags) error {
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

	m := newBrowseModel(e, render.Labels(s.gedcom))
	if _, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	v := prefs.FromState(s.view.Name, e.State())
	v.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, v); err != nil {
		return fmt.Errorf("save view %s: %w", v.Name, err)
	}
	printSuccess("Saved view %s", v.Name)
	return nil
}

// =============================================================================
// browseModel - Interactive tree navigation
// =============================================================================

// browseModel is the bubbletea model for the browse command. The engine
// owns all tree state; the model only tracks the cursor and scroll window.
type browseModel struct {
	engine *tree.Engine
	labels render.LabelFunc

	cursor int
	offset int
	height int
	status string
}

func newBrowseModel(e *tree.Engine, labels render.LabelFunc) browseModel {
	m := browseModel{engine: e, labels: labels, height: 15}
	m.follow()
	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case " ", "space":
			m.apply(m.engine.Click(m.cursor))
		case "enter":
			m.apply(m.engine.DoubleClick(m.cursor))
		case "c":
			if id := m.entityAt(m.cursor); id != "" {
				_, err := m.engine.ToggleCollapse(id)
				m.apply(err)
			}
		case "s":
			m.engine.SetStickToRoot(!m.engine.StickToRoot())
		case "v":
			m.apply(m.engine.SetVertical(!m.engine.Config().Vertical))
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.scroll()
	}
	return m, nil
}

// apply records err in the status line or moves the cursor to the engine's
// actual link.
func (m *browseModel) apply(err error) {
	if err != nil {
		m.status = kerrors.UserMessage(pipeline.Coded(err))
		return
	}
	m.follow()
}

// follow moves the cursor to the engine's actual link.
func (m *browseModel) follow() {
	n := m.engine.Layout().Len()
	m.cursor = m.engine.Actual()
	if m.cursor < 0 || m.cursor >= n {
		m.cursor = 0
	}
	m.scroll()
}

func (m *browseModel) move(delta int) {
	n := m.engine.Layout().Len()
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.scroll()
}

func (m *browseModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m browseModel) entityAt(i int) string {
	l := m.engine.Layout()
	if i < 0 || i >= l.Len() {
		return ""
	}
	return l.Links[i].Entity
}

func (m browseModel) View() string {
	var b strings.Builder
	l := m.engine.Layout()

	title := "kintree"
	if root := m.engine.Root(); root != "" {
		title += " · " + m.labels(root)
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  space activate  ⏎ root  c collapse  s stick  v orientation  q quit"))
	b.WriteString("\n\n")

	if err := m.engine.Err(); err != nil {
		b.WriteString(StyleWarning.Render(kerrors.UserMessage(pipeline.Coded(err))))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.height, l.Len())
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.row(l, i))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Kind", "Gen", "Entity", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			i := m.offset + row
			switch {
			case i == m.cursor:
				return listSelectedStyle
			case i == l.Root:
				return listRootStyle
			case i < l.Len() && !l.Links[i].HasEntity():
				return listDimStyle
			}
			return listNormalStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	footer := fmt.Sprintf("  [%d/%d]", m.cursor+1, l.Len())
	if m.engine.StickToRoot() {
		footer += "  sticky root"
	}
	b.WriteString(listDimStyle.Render(footer))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("  " + m.status))
	}
	return b.String()
}

func (m browseModel) row(l *tree.Layout, i int) []string {
	link := l.Links[i]
	cursor := "  "
	if i == m.cursor {
		cursor = "▸ "
	}

	entity := "-"
	switch {
	case link.HasEntity():
		entity = m.labels(link.Entity)
	case link.Kind == tree.KindPerson:
		entity = "unknown"
	case link.Kind == tree.KindMarker:
		entity = "more ancestors"
	}

	var flags []string
	if i == l.Root {
		flags = append(flags, "root")
	}
	if i == m.engine.Actual() {
		flags = append(flags, "actual")
	}
	if link.Collapsed {
		flags = append(flags, "collapsed")
	}
	return []string{cursor, fmt.Sprint(i), link.Kind.String(), fmt.Sprint(link.Generation), entity, strings.Join(flags, " ")}
}
