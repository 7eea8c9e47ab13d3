package application

import (
	"fmt"

	"github.com/jcttech/specstack/pkg/domain/analysis"
	"github.com/jcttech/specstack/pkg/domain/draft"
	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/storage"
)

// AnalysisService runs the consistency passes over the local snapshot:
// the issue cache written by sync plus any drafts still on disk.
type AnalysisService struct {
	repo     *storage.FilesystemRepository
	analyzer *analysis.Analyzer
}

func NewAnalysisService(repo *storage.FilesystemRepository) *AnalysisService {
	return &AnalysisService{repo: repo, analyzer: analysis.NewAnalyzer()}
}

// Analyze builds the snapshot and runs every pass. It refuses to run on
// an empty workspace since a report over nothing reads like a clean
// bill of health.
func (s *AnalysisService) Analyze() (*analysis.Report, error) {
	var issues []issue.Issue
	for _, t := range issue.Types {
		cached, err := s.repo.LoadCachedIssues(t)
		if err != nil {
			return nil, fmt.Errorf("load cached %s issues: %w", t, err)
		}
		issues = append(issues, cached...)
	}

	drafts, err := s.loadDrafts()
	if err != nil {
		return nil, err
	}

	if len(issues) == 0 && len(drafts) == 0 {
		return nil, fmt.Errorf("nothing to analyze: run 'specstack sync' or create a draft first")
	}

	return s.analyzer.Analyze(analysis.Input{Issues: issues, Drafts: drafts}), nil
}

// loadDrafts reads both draft types, handing the analyzer the markdown
// body only so frontmatter fields are never flagged as wording.
func (s *AnalysisService) loadDrafts() ([]analysis.DraftDoc, error) {
	var docs []analysis.DraftDoc
	for _, t := range []draft.Type{draft.TypeSpec, draft.TypePlan} {
		files, err := s.repo.ListDraftFiles(t)
		if err != nil {
			return nil, err
		}
		for _, name := range files {
			raw, err := s.repo.ReadDraft(t, name)
			if err != nil {
				return nil, err
			}
			d := draft.Parse(string(raw))
			docs = append(docs, analysis.DraftDoc{ID: d.Meta.DraftID, Body: d.Body})
		}
	}
	return docs, nil
}
