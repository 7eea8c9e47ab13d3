package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var timelineLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and verify the workspace event trail",
}

var auditTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show a chronological view of workspace activity",
	RunE:  runAuditTimeline,
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the event trail",
	RunE:  runAuditVerify,
}

func runAuditTimeline(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	entries := services.Audit.GetTimeline()
	if timelineLimit > 0 && len(entries) > timelineLimit {
		entries = entries[len(entries)-timelineLimit:]
	}

	if len(entries) == 0 {
		fmt.Println("No events recorded yet.")
		return nil
	}

	fmt.Println("Workspace Timeline")
	fmt.Println("------------------")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		ts := e.Timestamp.Format(time.RFC822)
		fmt.Printf("[%s] %-22s | %s", ts, e.EventType, e.Description)
		if len(e.Metadata) > 0 {
			fmt.Printf(" (%v)", e.Metadata)
		}
		fmt.Println()
	}
	return nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	fmt.Println("Verifying event trail integrity...")
	violations, err := services.Audit.VerifyIntegrity()
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if len(violations) == 0 {
		fmt.Println("Event trail is intact and verified.")
		return nil
	}

	fmt.Printf("Found %d integrity violations:\n", len(violations))
	for _, v := range violations {
		fmt.Printf("  - %s\n", v)
	}
	services.Close()
	os.Exit(1)
	return nil
}

func init() {
	auditTimelineCmd.Flags().IntVarP(&timelineLimit, "limit", "n", 0, "Show only the most recent N events")
	auditCmd.AddCommand(auditTimelineCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	RootCmd.AddCommand(auditCmd)
}
