package plugin

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/jcttech/specstack/pkg/domain/issue"
	"github.com/jcttech/specstack/pkg/domain/tracker"
)

// Provider is the interface tracker provider plugins must implement.
// It mirrors the tracker port without context parameters because the
// net/rpc transport cannot carry them; the host applies its own
// deadlines around each call.
type Provider interface {
	// Init ensures the provider can connect (auth check).
	Init(config map[string]string) error

	// List returns issues matching the given filter.
	List(opts tracker.ListOptions) ([]issue.Issue, error)

	// View fetches a single issue by number.
	View(number int) (*issue.Issue, error)

	// Close closes an issue, posting comment as the audit trail.
	Close(number int, comment string) error

	// Create opens a new issue and returns it with its assigned number.
	Create(req tracker.CreateRequest) (*issue.Issue, error)

	// EditBody replaces an issue body.
	EditBody(number int, body string) error
}

// ProviderPlugin is the implementation of plugin.Plugin so we can serve/consume this.
type ProviderPlugin struct {
	Impl Provider
}

func (p *ProviderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ProviderRPCServer{Impl: p.Impl}, nil
}

func (p *ProviderPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ProviderRPCClient{Client: c}, nil
}

// RPC argument structs
type ListArgs struct {
	Opts tracker.ListOptions
}

type CloseArgs struct {
	Number  int
	Comment string
}

type CreateArgs struct {
	Req tracker.CreateRequest
}

type EditBodyArgs struct {
	Number int
	Body   string
}

type ProviderRPCClient struct{ Client *rpc.Client }

func (g *ProviderRPCClient) Init(config map[string]string) error {
	var resp interface{}
	return g.Client.Call("Plugin.Init", config, &resp)
}

func (g *ProviderRPCClient) List(opts tracker.ListOptions) ([]issue.Issue, error) {
	var resp []issue.Issue
	args := &ListArgs{Opts: opts}
	err := g.Client.Call("Plugin.List", args, &resp)
	return resp, err
}

func (g *ProviderRPCClient) View(number int) (*issue.Issue, error) {
	var resp issue.Issue
	err := g.Client.Call("Plugin.View", number, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *ProviderRPCClient) Close(number int, comment string) error {
	var resp interface{}
	args := &CloseArgs{Number: number, Comment: comment}
	return g.Client.Call("Plugin.Close", args, &resp)
}

func (g *ProviderRPCClient) Create(req tracker.CreateRequest) (*issue.Issue, error) {
	var resp issue.Issue
	args := &CreateArgs{Req: req}
	err := g.Client.Call("Plugin.Create", args, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *ProviderRPCClient) EditBody(number int, body string) error {
	var resp interface{}
	args := &EditBodyArgs{Number: number, Body: body}
	return g.Client.Call("Plugin.EditBody", args, &resp)
}

type ProviderRPCServer struct{ Impl Provider }

func (s *ProviderRPCServer) Init(config map[string]string, resp *interface{}) error {
	return s.Impl.Init(config)
}

func (s *ProviderRPCServer) List(args *ListArgs, resp *[]issue.Issue) error {
	issues, err := s.Impl.List(args.Opts)
	if err != nil {
		return err
	}
	*resp = issues
	return nil
}

func (s *ProviderRPCServer) View(number int, resp *issue.Issue) error {
	iss, err := s.Impl.View(number)
	if err != nil {
		return err
	}
	if iss != nil {
		*resp = *iss
	}
	return nil
}

func (s *ProviderRPCServer) Close(args *CloseArgs, resp *interface{}) error {
	return s.Impl.Close(args.Number, args.Comment)
}

func (s *ProviderRPCServer) Create(args *CreateArgs, resp *issue.Issue) error {
	iss, err := s.Impl.Create(args.Req)
	if err != nil {
		return err
	}
	if iss != nil {
		*resp = *iss
	}
	return nil
}

func (s *ProviderRPCServer) EditBody(args *EditBodyArgs, resp *interface{}) error {
	return s.Impl.EditBody(args.Number, args.Body)
}
