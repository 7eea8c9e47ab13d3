package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var syncJSON bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the issue cache and hierarchy index from the tracker",
	Long: `Sync lists every issue (open and closed), rebuilds the Epic → Spec →
Story tree, caches issue bodies under .specify/issues/cache, and
renders the browsable index at .docs/issues-index.md. Cached closed
issues past the retention window are pruned.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	result, err := services.Sync.Sync(cmd.Context())
	if err != nil {
		return MapError(err)
	}

	if syncJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Synced %s: %d issues (%d cached, %d pruned), %d epics.\n",
		result.Repository, result.IssuesTotal, result.IssuesCached, result.IssuesPruned, result.Epics)
	fmt.Printf("Index written to %s\n", result.IndexPath)
	for _, e := range result.Errors {
		fmt.Printf("Warning: %s\n", e)
	}
	return nil
}

func init() {
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(syncCmd)
}
