package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/pkg/application"
)

var (
	initSkipTemplates bool
	initSkipSettings  bool
	initJSON          bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a specstack workspace",
	Long: `Init scaffolds the .specify workspace (config, draft directories, issue
cache), the .docs folder, and the project assistant settings. Rerunning
it is safe: existing files are left alone.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	result, err := services.Init.Initialize(cmd.Context(), application.InitOptions{
		SkipOrgTemplates:    initSkipTemplates,
		SkipAssistantConfig: initSkipSettings,
	})
	if err != nil {
		return MapError(err)
	}

	if initJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.AlreadyInitialized {
		fmt.Printf("Workspace already initialized at %s\n", result.Root)
	} else {
		fmt.Printf("Initialized specstack workspace at %s\n", result.Root)
	}
	if result.Repository != "" {
		fmt.Printf("Repository: %s\n", result.Repository)
	}
	for _, doc := range result.DocsCreated {
		fmt.Printf("Created %s\n", doc)
	}
	if result.Templates != nil {
		fmt.Printf("Fetched %d org templates from %s\n", len(result.Templates.Fetched), result.Templates.SourceRepo)
	}
	if result.Settings != nil {
		fmt.Printf("Assistant settings written to %s\n", result.Settings.Path)
	}
	for _, warning := range result.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	return nil
}

func init() {
	initCmd.Flags().BoolVar(&initSkipTemplates, "skip-org-templates", false, "Skip fetching org issue templates")
	initCmd.Flags().BoolVar(&initSkipSettings, "skip-claude-settings", false, "Skip writing assistant settings")
	initCmd.Flags().BoolVar(&initJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(initCmd)
}
