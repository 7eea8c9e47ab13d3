package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/internal/infrastructure/watch"
	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/storage"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the draft directory and validate drafts on change",
	Long: `Watch observes .specify/drafts for edits. Each change batch is
recorded in the event trail; when drafts.auto_validate is enabled the
changed drafts are re-validated and failures printed as they happen.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	draftsRoot := filepath.Join(services.Workspace.Repo.SpecifyPath(), storage.DraftsDir)
	if _, err := os.Stat(draftsRoot); err != nil {
		return NewCLIError("draft directory not found",
			"Run 'specstack init' to scaffold the workspace", err)
	}

	autoValidate := services.Config.Drafts.AutoValidate

	onBatch := func(changes []watch.ChangeEvent) {
		for _, c := range changes {
			name := filepath.Base(c.Path)
			fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), c.ChangeType, name)
			_ = services.Audit.Log(events.EventTypeFileChanged, events.AggregateTypeDraft, name, map[string]interface{}{
				"path":        c.Path,
				"change_type": c.ChangeType,
			})
		}
		if !autoValidate {
			return
		}
		results, err := services.Drafts.ValidateAll()
		if err != nil {
			fmt.Printf("Validation error: %v\n", err)
			return
		}
		for _, r := range results {
			if r.Result.Valid {
				continue
			}
			fmt.Printf("  FAIL %s\n", r.Filename)
			for _, e := range r.Result.Errors {
				fmt.Printf("    - %s\n", e)
			}
		}
	}

	watcher, err := watch.NewFSWatcher(watchDebounce, watch.DraftFilter(), onBatch)
	if err != nil {
		return err
	}
	if err := watcher.WatchRecursive(draftsRoot); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	fmt.Printf("Watching %s (auto-validate: %v)\n", draftsRoot, autoValidate)
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Batch window for change events")
	RootCmd.AddCommand(watchCmd)
}
