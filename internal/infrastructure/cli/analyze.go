package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcttech/specstack/pkg/domain/analysis"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Check cached issues and drafts for quality problems",
	Long: `Analyze runs quality passes over the cached hierarchy and local drafts:
requirement coverage, vague language, placeholder markers, terminology
drift, and broken parent references. Run 'specstack sync' first so the
cache reflects the tracker.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	defer services.Close()

	report, err := services.Analysis.Analyze()
	if err != nil {
		return MapError(err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	outputAnalyzeText(report)
	if report.HasCritical() {
		services.Close()
		os.Exit(1)
	}
	return nil
}

func outputAnalyzeText(report *analysis.Report) {
	m := report.Metrics
	fmt.Printf("Analyzed %d issues and %d drafts.\n", m.IssuesAnalyzed, m.DraftsAnalyzed)
	fmt.Printf("Findings: %d critical, %d high, %d medium, %d low\n", m.Critical, m.High, m.Medium, m.Low)
	if m.CoverageRatio > 0 {
		fmt.Printf("Requirement coverage: %.0f%%\n", m.CoverageRatio*100)
	}

	if len(report.Findings) == 0 {
		fmt.Println("\nNo problems found.")
		return
	}

	fmt.Println()
	for _, f := range report.Findings {
		fmt.Printf("[%s] %s: %s\n", f.Severity, f.ComponentID, f.Message)
		if f.Hint != "" {
			fmt.Printf("  hint: %s\n", f.Hint)
		}
	}
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output in JSON format")
	RootCmd.AddCommand(analyzeCmd)
}
