package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/pkg/domain/hierarchy"
	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/storage"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive view of the cached issue hierarchy",
	Long: `Browse renders the cached Epic → Spec → Story tree as a navigable
table. Run 'specstack sync' first to populate the cache.`,
	RunE: runBrowse,
}

var browseBaseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var browseHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#5F87D7")).
	PaddingLeft(1).
	PaddingRight(1)

var browseClosedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

type browseModel struct {
	table      table.Model
	repository string
	total      int
	err        error
}

func newBrowseModel(repo *storage.FilesystemRepository, repository string) browseModel {
	var issues []issue.Issue
	for _, t := range []issue.Type{issue.TypeEpic, issue.TypeSpec, issue.TypeStory} {
		cached, err := repo.LoadCachedIssues(t)
		if err != nil {
			return browseModel{err: err}
		}
		issues = append(issues, cached...)
	}

	tree := hierarchy.Build(issues)

	columns := []table.Column{
		{Title: "Type", Width: 6},
		{Title: "Number", Width: 7},
		{Title: "State", Width: 7},
		{Title: "Title", Width: 54},
	}

	var rows []table.Row
	var walk func(n *hierarchy.Node, depth int)
	walk = func(n *hierarchy.Node, depth int) {
		rows = append(rows, table.Row{
			string(n.Issue.Type),
			"#" + strconv.Itoa(n.Issue.Number),
			string(n.Issue.State),
			strings.Repeat("  ", depth) + n.Issue.Title,
		})
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, e := range tree.Epics {
		walk(e, 0)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	return browseModel{
		table:      t,
		repository: repository,
		total:      len(rows),
	}
}

func (m browseModel) Init() tea.Cmd { return nil }

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading hierarchy: %v\nPress q to quit.\n", m.err)
	}

	title := "specstack"
	if m.repository != "" {
		title = m.repository
	}
	header := browseHeaderStyle.Render(fmt.Sprintf("%s: %d issues in tree", title, m.total))

	body := m.table.View()
	if m.total == 0 {
		body = "Cache is empty. Run 'specstack sync' to populate it."
	}

	footer := browseClosedStyle.Render("[q] Quit  [Up/Down] Navigate")

	return browseBaseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, body, footer),
	) + "\n"
}

func runBrowse(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	p := tea.NewProgram(newBrowseModel(services.Workspace.Repo, services.Repository))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browse run failed: %w", err)
	}
	return nil
}

func init() {
	RootCmd.AddCommand(browseCmd)
}
