package application

import (
	"fmt"
	"os"
	"sort"
	"time"

	domainPlugin "github.com/jcttech/specstack/pkg/domain/plugin"
	infraPlugin "github.com/jcttech/specstack/pkg/plugin"
	"github.com/jcttech/specstack/pkg/plugin/contract"
	"github.com/jcttech/specstack/pkg/storage"
)

// PluginInfo describes a registered provider plugin and whether its
// binary can currently be resolved.
type PluginInfo struct {
	Name   string `json:"name"`
	Binary string `json:"binary,omitempty"`
	Status string `json:"status"` // "available", "missing"
}

// VerifyResult holds the outcome of loading a plugin and probing Init.
type VerifyResult struct {
	Name    string `json:"name"`
	Binary  string `json:"binary"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// PluginService manages provider plugin registration in
// .specify/plugins.yaml and verifies registered binaries.
type PluginService struct {
	repo *storage.FilesystemRepository
}

// NewPluginService creates a new PluginService.
func NewPluginService(repo *storage.FilesystemRepository) *PluginService {
	return &PluginService{repo: repo}
}

// Register records a provider plugin. An empty binary path means the
// binary is discovered on PATH as specstack-plugin-<name>; in that case
// the lookup must succeed now so a typoed name fails here, not at sync
// time.
func (s *PluginService) Register(name, binaryPath string) error {
	if name == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}

	if binaryPath == "" {
		if _, err := infraPlugin.Discover(name, ""); err != nil {
			return err
		}
	} else {
		info, err := os.Stat(binaryPath)
		if err != nil {
			return fmt.Errorf("binary not found: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("binary path is a directory")
		}
		if info.Mode()&0111 == 0 {
			return fmt.Errorf("binary is not executable")
		}
	}

	cfg := domainPlugin.PluginConfig{
		Binary: binaryPath,
		Config: make(map[string]string),
	}
	// Re-registering keeps the provider settings already on file.
	if existing, err := s.repo.GetPluginConfig(name); err == nil && len(existing.Config) > 0 {
		cfg.Config = existing.Config
	}

	return s.repo.SetPluginConfig(name, cfg)
}

// Unregister removes a plugin by name.
func (s *PluginService) Unregister(name string) error {
	configs, err := s.repo.LoadPluginConfigs()
	if err != nil {
		return err
	}
	if configs.Get(name) == nil {
		return fmt.Errorf("plugin %q not found", name)
	}
	return s.repo.RemovePluginConfig(name)
}

// List returns all registered plugins with their resolved binary and
// availability.
func (s *PluginService) List() ([]PluginInfo, error) {
	configs, err := s.repo.LoadPluginConfigs()
	if err != nil {
		return nil, err
	}

	names := configs.Names()
	sort.Strings(names)

	var result []PluginInfo
	for _, name := range names {
		cfg := configs.Get(name)
		info := PluginInfo{Name: name, Binary: cfg.Binary, Status: "available"}

		resolved, err := infraPlugin.Discover(name, cfg.Binary)
		if err != nil {
			info.Status = "missing"
		} else if _, err := os.Stat(resolved); err != nil {
			info.Binary = resolved
			info.Status = "missing"
		} else {
			info.Binary = resolved
		}

		result = append(result, info)
	}

	return result, nil
}

// Verify loads the plugin binary over the handshake and calls Init with
// the stored provider settings. This proves the binary speaks the
// protocol and can authenticate, without touching any issues.
func (s *PluginService) Verify(name string) (*VerifyResult, error) {
	cfg, err := s.repo.GetPluginConfig(name)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{Name: name, Binary: cfg.Binary}

	path, err := infraPlugin.Discover(name, cfg.Binary)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	result.Binary = path
	if _, err := os.Stat(path); err != nil {
		result.Error = fmt.Sprintf("binary not found: %s", path)
		return result, nil
	}

	start := time.Now()
	loader := infraPlugin.NewLoader()
	defer loader.Cleanup()

	provider, err := loader.Load(path)
	if err != nil {
		result.Error = fmt.Sprintf("load plugin: %v", err)
		return result, nil
	}
	if err := provider.Init(cfg.Config); err != nil {
		result.Error = fmt.Sprintf("init: %v", err)
		return result, nil
	}

	result.Valid = true
	result.Latency = time.Since(start).Round(time.Millisecond).String()
	return result, nil
}

// RunContract runs the full provider contract suite against the plugin
// binary. The suite creates and closes issues, so it is meant for
// plugin authors testing against a scratch backend, not production
// trackers.
func (s *PluginService) RunContract(name string) (*contract.SuiteResult, error) {
	cfg, err := s.repo.GetPluginConfig(name)
	if err != nil {
		return nil, err
	}
	path, err := infraPlugin.Discover(name, cfg.Binary)
	if err != nil {
		return nil, err
	}
	return contract.NewContractSuite().RunBinary(path)
}
