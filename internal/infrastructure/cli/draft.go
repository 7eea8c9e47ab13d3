package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/pkg/application"
)

var (
	draftTitle       string
	draftDescription string
	draftParent      int
	draftListJSON    bool
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage local spec and plan drafts",
}

var draftNewCmd = &cobra.Command{
	Use:   "new spec|plan --title <title>",
	Short: "Scaffold a new draft under .specify/drafts",
	Long: `Creates a numbered draft file with frontmatter and a skeleton body.
Spec drafts take --parent as the epic issue number; plan drafts take
--parent as the pushed spec issue number and look the title up from
the tracker when --title is omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runDraftNew,
}

func runDraftNew(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	var info *application.DraftInfo
	switch args[0] {
	case "spec":
		info, err = services.Drafts.NewSpec(draftTitle, draftDescription, draftParent)
	case "plan":
		info, err = services.Drafts.NewPlan(cmd.Context(), draftParent, draftTitle)
	default:
		return NewCLIError(fmt.Sprintf("unknown draft type %q", args[0]), "Use 'spec' or 'plan'", nil)
	}
	if err != nil {
		return MapError(err)
	}

	fmt.Printf("Created %s draft %s\n", info.Type, info.DraftID)
	fmt.Printf("Edit %s and run 'specstack draft validate %s' when ready.\n", info.Path, info.DraftID)
	return nil
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts and their validation state",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer services.Close()

		drafts, err := services.Drafts.List()
		if err != nil {
			return MapError(err)
		}

		if draftListJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(drafts)
		}

		if len(drafts) == 0 {
			fmt.Println("No drafts. Create one with 'specstack draft new spec --title <title>'.")
			return nil
		}
		for _, d := range drafts {
			ready := " "
			if d.Ready {
				ready = "R"
			}
			fmt.Printf("[%s] %-30s %-6s %-8s %s\n", ready, d.DraftID, d.Type, d.Status, d.Title)
		}
		return nil
	},
}

var draftValidateCmd = &cobra.Command{
	Use:   "validate [id]",
	Short: "Validate one draft, or every unpushed draft",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer services.Close()

		var reports []application.DraftValidation
		if len(args) == 1 {
			report, err := services.Drafts.Validate(args[0])
			if err != nil {
				return MapError(err)
			}
			reports = append(reports, *report)
		} else {
			reports, err = services.Drafts.ValidateAll()
			if err != nil {
				return MapError(err)
			}
		}

		failed := 0
		for _, report := range reports {
			if report.Result.Valid {
				fmt.Printf("PASS %s\n", report.DraftID)
			} else {
				failed++
				fmt.Printf("FAIL %s\n", report.DraftID)
				for _, e := range report.Result.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}
			for _, w := range report.Result.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
		}
		if len(reports) == 0 {
			fmt.Println("No unpushed drafts to validate.")
		}
		if failed > 0 {
			services.Close()
			os.Exit(1)
		}
		return nil
	},
}

var draftPushCmd = &cobra.Command{
	Use:   "push <id>",
	Short: "Create a tracker issue from a validated draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer services.Close()

		result, err := services.Drafts.Push(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}

		fmt.Printf("Pushed %s as issue #%d: %s\n", result.DraftID, result.IssueNumber, result.Title)
		if result.URL != "" {
			fmt.Println(result.URL)
		}
		fmt.Printf("Draft archived to %s\n", result.ArchivedTo)
		return nil
	},
}

func init() {
	draftNewCmd.Flags().StringVar(&draftTitle, "title", "", "Draft title")
	draftNewCmd.Flags().StringVar(&draftDescription, "description", "", "Short description seeded into the Overview section")
	draftNewCmd.Flags().IntVar(&draftParent, "parent", 0, "Parent issue number (epic for specs, spec for plans)")
	draftListCmd.Flags().BoolVar(&draftListJSON, "json", false, "Output in JSON format")

	draftCmd.AddCommand(draftNewCmd)
	draftCmd.AddCommand(draftListCmd)
	draftCmd.AddCommand(draftValidateCmd)
	draftCmd.AddCommand(draftPushCmd)
	RootCmd.AddCommand(draftCmd)
}
