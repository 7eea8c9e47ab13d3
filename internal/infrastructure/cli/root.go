package cli

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var projectPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "specstack",
	Version: Version,
	Short:   "Spec-driven issue hierarchy automation for GitHub",
	Long: `Specstack keeps a three-level issue hierarchy (Epic → Spec → Story)
in sync with the work happening around it. It drafts specs and plans
locally, pushes them as tracker issues, cascades closures up the
hierarchy when all children complete, and renders a browsable index
of the whole tree.`,
	// main prints errors with their hints; cobra only handles usage.
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&projectPath, "path", "", "Workspace root (defaults to the current directory)")
}
