package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configShowJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect workspace configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after defaults are applied",
	RunE:  runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	if configShowJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(services.Config)
	}

	data, err := yaml.Marshal(services.Config)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "Output in JSON format")
	configCmd.AddCommand(configShowCmd)
	RootCmd.AddCommand(configCmd)
}
