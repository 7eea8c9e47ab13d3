package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	worktreeBase     string
	worktreeForce    bool
	worktreeListJSON bool
)

var worktreeCmd = &cobra.Command{
	Use:   "worktree",
	Short: "Manage per-story git worktrees",
}

var worktreeNewCmd = &cobra.Command{
	Use:   "new <story-number>",
	Short: "Create or resume the worktree for a story",
	Long: `Creates worktrees/{number}-{slug} on a branch of the same name, based
on the remote HEAD branch. An existing remote branch for the story is
reused; an existing worktree is resumed.`,
	Args: cobra.ExactArgs(1),
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

		result, err := services.Worktrees.Start(cmd.Context(), number, worktreeBase)
		if err != nil {
			return MapError(err)
		}

		if result.Resumed {
			fmt.Printf("Resumed worktree %s (%s)\n", result.Path, result.Status)
		} else {
			fmt.Printf("Created worktree %s on branch %s\n", result.Path, result.Branch)
		}
		if result.FromRemote {
			fmt.Println("Branch checked out from the existing remote branch.")
		}
		return nil
	},
}

var worktreeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List story worktrees and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer services.Close()

		trees, err := services.Worktrees.List(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		if worktreeListJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(trees)
		}

		if len(trees) == 0 {
			fmt.Println("No story worktrees. Create one with 'specstack worktree new <story-number>'.")
			return nil
		}
		for _, wt := range trees {
			state := "clean"
			if wt.Status != nil && !wt.Status.Clean {
				state = fmt.Sprintf("%d modified", len(wt.Status.Modified))
			}
			fmt.Printf("#%-5d %-40s %s\n", wt.IssueNumber, wt.Branch, state)
		}
		return nil
	},
}

var worktreeRemoveCmd = &cobra.Command{
	Use:   "remove <story-number>",
	Short: "Remove the worktree for a story",
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

		result, err := services.Worktrees.Finish(cmd.Context(), number, worktreeForce)
		if err != nil {
			return MapError(err)
		}

		if !result.Removed {
			switch result.Reason {
			case "not_found":
				fmt.Printf("No worktree found for story #%d.\n", number)
			case "dirty":
				fmt.Printf("Worktree %s has uncommitted changes; use --force to remove anyway.\n", result.Path)
				for _, f := range result.Modified {
					fmt.Printf("  %s\n", f)
				}
			default:
				fmt.Printf("Worktree for story #%d was not removed (%s).\n", number, result.Reason)
			}
			return nil
		}

		fmt.Printf("Removed worktree for story #%d (branch %s)\n", number, result.Branch)
		return nil
	},
}

var worktreeCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove story worktrees with no local work left",
	Long: `Sweeps every story worktree: trees with no uncommitted changes and no
commits ahead of their origin branch are removed. Dirty or unpushed
trees are skipped with a warning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer services.Close()

		result, err := services.Worktrees.Clean(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		for _, branch := range result.Removed {
			fmt.Printf("Removed %s\n", branch)
		}
		for _, skip := range result.Skipped {
			fmt.Printf("Skipped %s (%s)\n", skip.Branch, skip.Reason)
		}
		if len(result.Removed) == 0 && len(result.Skipped) == 0 {
			fmt.Println("No story worktrees to clean.")
		}
		return nil
	},
}

func init() {
	worktreeNewCmd.Flags().StringVar(&worktreeBase, "base", "", "Base branch (defaults to the remote HEAD branch)")
	worktreeRemoveCmd.Flags().BoolVar(&worktreeForce, "force", false, "Remove even when the worktree has uncommitted changes")
	worktreeListCmd.Flags().BoolVar(&worktreeListJSON, "json", false, "Output in JSON format")

	worktreeCmd.AddCommand(worktreeNewCmd)
	worktreeCmd.AddCommand(worktreeListCmd)
	worktreeCmd.AddCommand(worktreeRemoveCmd)
	worktreeCmd.AddCommand(worktreeCleanCmd)
	RootCmd.AddCommand(worktreeCmd)
}
