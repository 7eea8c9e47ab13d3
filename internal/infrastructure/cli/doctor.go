package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/internal/infrastructure/wiring"
	"github.com/jcttech/specstack/pkg/gitutil"
	"github.com/jcttech/specstack/pkg/storage"
	"github.com/jcttech/specstack/pkg/tracker/github"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the workspace environment",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("Running specstack doctor...")

	root, err := getProjectRoot()
	if err != nil {
		return err
	}

	hasIssues := false
	check := func(name string, fn func() error) {
		fmt.Printf("Checking %s... ", name)
		if err := fn(); err != nil {
			fmt.Printf("FAIL\n  Error: %v\n", err)
			hasIssues = true
		} else {
			fmt.Printf("PASS\n")
		}
	}

	workspace, err := wiring.NewWorkspace(root)
	if err != nil {
		return MapError(err)
	}
	defer workspace.Audit.Drain()
	repo := workspace.Repo

	check("Initialization", func() error {
		if !repo.IsInitialized() {
			return fmt.Errorf(".specify directory not found (run 'specstack init')")
		}
		return nil
	})

	check("Configuration", func() error {
		_, err := repo.LoadConfig()
		return err
	})

	check("GitHub Remote", func() error {
		_, err := gitutil.ResolveRemote(cmd.Context(), root)
		return err
	})

	check("Auth Token", func() error {
		if github.Token() == "" {
			return fmt.Errorf("neither GITHUB_TOKEN nor GH_TOKEN is set")
		}
		return nil
	})

	check("Event Trail", func() error {
		path, err := repo.ResolvePath(storage.EventsFile)
		if err != nil {
			return err
		}
		_, err = os.Stat(path)
		return err
	})

	check("Event Integrity", func() error {
		violations, err := workspace.Audit.VerifyIntegrity()
		if err != nil {
			return err
		}
		if len(violations) > 0 {
			return fmt.Errorf("%d integrity violations found (run 'specstack audit verify')", len(violations))
		}
		return nil
	})

	if hasIssues {
		fmt.Println("\nIssues found. Fix them before continuing.")
		return NewCLIError("doctor found issues", "", nil)
	}
	fmt.Println("\nEverything looks good!")
	return nil
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
