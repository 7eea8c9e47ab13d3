package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/pkg/domain/issue"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a high-level summary of the workspace state",
	Long: `Status reports whether the workspace is initialized, which GitHub
repository it tracks, how many issues are cached per type, the draft
queue, and the most recent audit events.`,
	RunE: runStatusCmd,
}

// statusJSONOutput is the JSON output format for status.
type statusJSONOutput struct {
	Initialized bool              `json:"initialized"`
	Repository  string            `json:"repository,omitempty"`
	Cached      map[string]int    `json:"cached_issues"`
	Drafts      *draftsJSONOutput `json:"drafts,omitempty"`
	Recent      []timelineEntry   `json:"recent_events,omitempty"`
}

type draftsJSONOutput struct {
	Total  int `json:"total"`
	Ready  int `json:"ready"`
	Pushed int `json:"pushed"`
}

type timelineEntry struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"`
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	repo := services.Workspace.Repo
	out := statusJSONOutput{
		Initialized: repo.IsInitialized(),
		Repository:  services.Repository,
		Cached:      map[string]int{},
	}

	for _, t := range []issue.Type{issue.TypeEpic, issue.TypeSpec, issue.TypeStory} {
		cached, err := repo.LoadCachedIssues(t)
		if err != nil {
			continue
		}
		out.Cached[string(t)] = len(cached)
	}

	if drafts, err := services.Drafts.List(); err == nil {
		summary := &draftsJSONOutput{Total: len(drafts)}
		for _, d := range drafts {
			if d.Ready {
				summary.Ready++
			}
			if d.IssueNumber > 0 {
				summary.Pushed++
			}
		}
		out.Drafts = summary
	}

	for _, e := range services.Audit.GetRecentTimeline(5) {
		out.Recent = append(out.Recent, timelineEntry{
			Timestamp: e.Timestamp.Format("2006-01-02 15:04"),
			EventType: e.EventType,
			Summary:   e.Description,
		})
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return outputStatusText(out)
}

func outputStatusText(out statusJSONOutput) error {
	if !out.Initialized {
		fmt.Println("Workspace not initialized. Run 'specstack init'.")
		return nil
	}

	if out.Repository != "" {
		fmt.Printf("Repository: %s\n", out.Repository)
	} else {
		fmt.Println("Repository: (no GitHub remote)")
	}

	fmt.Printf("Cached issues: %d epics, %d specs, %d stories\n",
		out.Cached["epic"], out.Cached["spec"], out.Cached["story"])

	if out.Drafts != nil {
		fmt.Printf("Drafts: %d total (%d ready, %d pushed)\n",
			out.Drafts.Total, out.Drafts.Ready, out.Drafts.Pushed)
	}

	if len(out.Recent) > 0 {
		fmt.Println("\nRecent activity:")
		for _, e := range out.Recent {
			fmt.Printf("  [%s] %-20s %s\n", e.Timestamp, e.EventType, e.Summary)
		}
	}
	return nil
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(statusCmd)
}
