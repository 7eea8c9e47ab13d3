// Package mcp exposes the workspace to MCP clients: cascade, sync,
// draft, and analysis operations as tools over stdio, HTTP, or
// WebSocket transports.
package mcp

import (
	"context"
	"fmt"

	mcplib "github.com/felixgeelhaar/mcp-go"

	"github.com/jcttech/specstack/internal/infrastructure/wiring"
	"github.com/jcttech/specstack/pkg/domain/issue"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// Server wires the application services into an MCP tool surface.
type Server struct {
	mcpServer *mcplib.Server
	services  *wiring.AppServices
	root      string
}

// mcpErr returns a user-friendly error for MCP clients. Internal
// details are omitted.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

func NewServer(root string) (*Server, error) {
	services, err := wiring.BuildAppServices(root)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}

	info := mcplib.ServerInfo{
		Name:    "specstack",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcplib.NewServer(info,
			mcplib.WithTitle("Specstack MCP Server"),
			mcplib.WithDescription("Specstack exposes the Epic → Spec → Story issue hierarchy, draft queue, and cascade automation to MCP clients."),
			mcplib.WithBuildInfo(BuildCommit, BuildDate),
			mcplib.WithInstructions("Use tools to sync the issue cache, inspect and validate drafts, run coverage analysis, and cascade-close completed stories."),
		),
		services: services,
		root:     root,
	}

	s.registerTools()
	s.registerSchemaResource()
	return s, nil
}

type CascadeArgs struct {
	Story int `json:"story" jsonschema:"description=The issue number of the story that was just closed"`
}

type ValidateDraftArgs struct {
	ID string `json:"id,omitempty" jsonschema:"description=Draft id or filename; empty validates every unpushed draft"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("specstack_cascade").
		Description("Propagate a story closure up the hierarchy: close the parent spec when its stories are done, then the epic when its specs are done").
		Handler(s.handleCascade)

	s.mcpServer.Tool("specstack_sync").
		Description("Refresh the issue cache and hierarchy index from the tracker").
		Handler(s.handleSync)

	s.mcpServer.Tool("specstack_list_drafts").
		Description("List local spec and plan drafts with their validation state").
		Handler(s.handleListDrafts)

	s.mcpServer.Tool("specstack_validate_draft").
		Description("Run completeness and schema checks for one draft, or all unpushed drafts").
		Handler(s.handleValidateDraft)

	s.mcpServer.Tool("specstack_analyze").
		Description("Analyze the cached hierarchy and drafts for coverage gaps, orphans, and stale items").
		Handler(s.handleAnalyze)

	s.mcpServer.Tool("specstack_status").
		Description("Get a high-level summary of the workspace state").
		Handler(s.handleStatus)

	s.mcpServer.Tool("specstack_get_config").
		Description("Retrieve the effective workspace configuration").
		Handler(s.handleGetConfig)
}

func (s *Server) handleCascade(ctx context.Context, args CascadeArgs) (any, error) {
	if args.Story <= 0 {
		return nil, mcpErr("A positive story number is required.")
	}
	result, err := s.services.Cascade.CascadeClose(ctx, args.Story)
	if err != nil {
		return nil, mcpErr("Cascade failed. Ensure GITHUB_TOKEN is set and the story number exists.")
	}
	return result, nil
}

func (s *Server) handleSync(ctx context.Context, args struct{}) (any, error) {
	result, err := s.services.Sync.Sync(ctx)
	if err != nil {
		return nil, mcpErr("Sync failed. Ensure GITHUB_TOKEN is set and the workspace has a GitHub remote.")
	}
	return result, nil
}

func (s *Server) handleListDrafts(ctx context.Context, args struct{}) (any, error) {
	drafts, err := s.services.Drafts.List()
	if err != nil {
		return nil, mcpErr("Unable to list drafts. Run specstack init to scaffold the workspace.")
	}
	if drafts == nil {
		return []any{}, nil
	}
	return drafts, nil
}

func (s *Server) handleValidateDraft(ctx context.Context, args ValidateDraftArgs) (any, error) {
	if args.ID == "" {
		results, err := s.services.Drafts.ValidateAll()
		if err != nil {
			return nil, mcpErr("Validation failed. Run specstack init to scaffold the workspace.")
		}
		return results, nil
	}
	result, err := s.services.Drafts.Validate(args.ID)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Draft %q not found. Use specstack_list_drafts to see available drafts.", args.ID))
	}
	return result, nil
}

func (s *Server) handleAnalyze(ctx context.Context, args struct{}) (any, error) {
	report, err := s.services.Analysis.Analyze()
	if err != nil {
		return nil, mcpErr("Analysis failed. Run specstack_sync first to populate the issue cache.")
	}
	return report, nil
}

type statusResponse struct {
	Initialized bool           `json:"initialized"`
	Repository  string         `json:"repository,omitempty"`
	Cached      map[string]int `json:"cached_issues"`
	Drafts      int            `json:"drafts"`
	DraftsReady int            `json:"drafts_ready"`
}

func (s *Server) handleStatus(ctx context.Context, args struct{}) (any, error) {
	repo := s.services.Workspace.Repo
	resp := statusResponse{
		Initialized: repo.IsInitialized(),
		Repository:  s.services.Repository,
		Cached:      map[string]int{},
	}

	for _, t := range []issue.Type{issue.TypeEpic, issue.TypeSpec, issue.TypeStory} {
		cached, err := repo.LoadCachedIssues(t)
		if err != nil {
			continue
		}
		resp.Cached[string(t)] = len(cached)
	}

	if drafts, err := s.services.Drafts.List(); err == nil {
		resp.Drafts = len(drafts)
		for _, d := range drafts {
			if d.Ready {
				resp.DraftsReady++
			}
		}
	}

	return resp, nil
}

func (s *Server) handleGetConfig(ctx context.Context, args struct{}) (any, error) {
	return s.services.Config, nil
}

func (s *Server) Start() error {
	return s.StartStdio()
}

func (s *Server) StartStdio() error {
	return s.ServeStdio(context.Background())
}

func (s *Server) StartHTTP(addr string) error {
	return s.ServeHTTP(context.Background(), addr)
}

func (s *Server) StartWebSocket(addr string) error {
	return s.ServeWebSocket(context.Background(), addr)
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcplib.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcplib.ServeHTTP(ctx, s.mcpServer, addr, mcplib.WithDefaultCORS())
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcplib.ServeWebSocket(ctx, s.mcpServer, addr)
}
