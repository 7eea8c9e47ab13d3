package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var storiesJSON bool

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Generate story issues from plan drafts and track task progress",
}

var storiesPushCmd = &cobra.Command{
	Use:   "push <plan-draft-id>",
	Short: "Create story issues from the stories in a plan draft",
	Long: `Parses the '### Story N: <title>' blocks of a plan draft and creates a
[Story] issue for each, linked back to the plan's parent spec. The plan
draft is marked so a rerun does not create duplicates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer services.Close()

		result, err := services.Stories.Generate(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}

		if storiesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Printf("Created %d stories from %s (parent spec #%d):\n", len(result.Created), result.PlanDraft, result.SpecNumber)
		for _, s := range result.Created {
			fmt.Printf("  #%d %s\n", s.Number, s.Title)
		}
		return nil
	},
}

var storiesProgressCmd = &cobra.Command{
	Use:   "progress <story-number>",
	Short: "Show task checkbox progress for a story issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return NewCLIError(fmt.Sprintf("invalid story number %q", args[0]), "Pass the issue number, e.g. 102", err)
		}

		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer services.Close()

		counts, err := services.Stories.TaskProgress(cmd.Context(), number)
		if err != nil {
			return MapError(err)
		}

		fmt.Printf("Story #%d: %d/%d tasks complete (%d remaining)\n", number, counts.Completed, counts.Total, counts.Remaining)
		return nil
	},
}

var storiesCompleteTaskCmd = &cobra.Command{
	Use:   "complete-task <story-number> <task-index>",
	Short: "Check off a task on a story issue",
	Long: `Marks the Nth task checkbox (1-based) on the story issue as done and
updates the issue body. When the last task completes, run
'specstack cascade --story <number>' to close finished ancestors.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil {
			return NewCLIError(fmt.Sprintf("invalid story number %q", args[0]), "Pass the issue number, e.g. 102", err)
		}
		index, err := strconv.Atoi(args[1])
		if err != nil || index < 1 {
			return NewCLIError(fmt.Sprintf("invalid task index %q", args[1]), "Pass the task position shown by 'specstack stories progress', starting at 1", err)
		}

		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer services.Close()

		counts, err := services.Stories.CompleteTask(cmd.Context(), number, index-1)
		if err != nil {
			return MapError(err)
		}

		fmt.Printf("Story #%d: %d/%d tasks complete\n", number, counts.Completed, counts.Total)
		if counts.Total > 0 && counts.Remaining == 0 {
			fmt.Printf("All tasks done. Close the story and run 'specstack cascade --story %d'.\n", number)
		}
		return nil
	},
}

func init() {
	storiesPushCmd.Flags().BoolVar(&storiesJSON, "json", false, "Output in JSON format")

	storiesCmd.AddCommand(storiesPushCmd)
	storiesCmd.AddCommand(storiesProgressCmd)
	storiesCmd.AddCommand(storiesCompleteTaskCmd)
	RootCmd.AddCommand(storiesCmd)
}
