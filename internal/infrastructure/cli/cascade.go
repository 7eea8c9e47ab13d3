package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/pkg/domain/cascade"
)

var (
	cascadeStory int
	cascadeJSON  bool
)

var cascadeCmd = &cobra.Command{
	Use:   "cascade --story <number>",
	Short: "Close finished ancestors of a completed story",
	Long: `Cascade walks upward from a completed story: when every story under
the parent spec is closed, the spec is closed, and when every spec
under the epic is closed, the epic is closed too. The walk never
ascends past the story's immediate epic.

Unknown flags are ignored so CI hooks can pass provider-specific
options through without breaking older releases.`,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE:               runCascade,
}

func runCascade(cmd *cobra.Command, args []string) error {
	if cascadeStory <= 0 {
		_ = cmd.Usage()
		return NewCLIError("missing required flag --story", "Pass the number of the story that was just completed", nil)
	}

	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	result, err := services.Cascade.CascadeClose(cmd.Context(), cascadeStory)
	if err != nil {
		return MapError(err)
	}

	if cascadeJSON {
		return outputCascadeJSON(result)
	}
	outputCascadeText(result)
	return nil
}

func outputCascadeJSON(result *cascade.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func outputCascadeText(result *cascade.Result) {
	if !result.CascadeTriggered {
		switch {
		case result.Reason == cascade.ReasonNoParentSpec:
			fmt.Printf("Story #%d has no parent spec; nothing to cascade.\n", cascadeStory)
		case result.OpenStories > 0:
			fmt.Printf("Spec #%d still has %d open stories; no cascade.\n", result.ParentSpec, result.OpenStories)
		default:
			fmt.Println("No cascade triggered.")
		}
		return
	}

	fmt.Printf("Closed spec #%d: all stories complete.\n", result.SpecClosed)
	switch {
	case result.EpicClosed > 0:
		fmt.Printf("Closed epic #%d: all specs complete.\n", result.EpicClosed)
	case result.EpicOpen > 0:
		fmt.Printf("Epic #%d stays open: %d specs remaining.\n", result.EpicOpen, result.OpenSpecs)
	default:
		fmt.Println("Spec has no parent epic; cascade complete.")
	}

	for _, closeErr := range result.CloseErrors {
		fmt.Printf("Warning: %s\n", closeErr)
	}
}

func init() {
	cascadeCmd.Flags().IntVar(&cascadeStory, "story", 0, "Number of the completed story issue")
	cascadeCmd.Flags().BoolVar(&cascadeJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(cascadeCmd)
}
