package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var templatesListJSON bool

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage organization issue templates",
	Long: `Templates are fetched from the organization source repository
(org_templates.source in .specify/config.yml) and cached under
.specify/org-templates so draft pushes can pre-fill issue forms.`,
}

var templatesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch organization issue templates into the local cache",
	RunE:  runTemplatesSync,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached organization templates",
	RunE:  runTemplatesList,
}

func runTemplatesSync(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	if services.Templates == nil {
		return &CLIError{
			Message:  "organization templates are disabled",
			Hint:     "Enable org_templates in .specify/config.yml and set org_templates.source to an owner/repo slug",
			ExitCode: 1,
		}
	}

	result, err := services.Templates.Fetch(cmd.Context())
	if err != nil {
		return MapError(err)
	}

	fmt.Printf("Fetched %d template(s) from %s\n", len(result.Fetched), result.SourceRepo)
	for _, name := range result.Fetched {
		fmt.Printf("  %s\n", name)
	}
	for _, e := range result.Errors {
		fmt.Printf("Warning: %s\n", e)
	}
	return nil
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	if services.Templates == nil {
		return &CLIError{
			Message:  "organization templates are disabled",
			Hint:     "Enable org_templates in .specify/config.yml and set org_templates.source to an owner/repo slug",
			ExitCode: 1,
		}
	}

	manifest, err := services.Templates.Manifest()
	if err != nil {
		return MapError(err)
	}
	if manifest == nil {
		fmt.Println("No templates fetched yet. Run 'specstack templates sync'.")
		return nil
	}

	if templatesListJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	}

	fmt.Printf("Source: %s (%s)\n", manifest.SourceRepo, manifest.TemplatePath)
	fmt.Printf("Fetched: %s\n", manifest.FetchedAt.Format("2006-01-02 15:04 MST"))
	parsed, err := services.Templates.Parsed()
	if err != nil {
		return MapError(err)
	}
	for _, name := range manifest.Files {
		if tpl, ok := parsed[name]; ok && tpl.Name != "" {
			fmt.Printf("  %-28s %s\n", name, tpl.Name)
			continue
		}
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func init() {
	templatesListCmd.Flags().BoolVar(&templatesListJSON, "json", false, "Output in JSON format")
	templatesCmd.AddCommand(templatesSyncCmd)
	templatesCmd.AddCommand(templatesListCmd)
	RootCmd.AddCommand(templatesCmd)
}
