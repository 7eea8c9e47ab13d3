// Package plugin hosts tracker provider plugins over hashicorp's
// go-plugin NetRPC protocol.
package plugin

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	goplugin "github.com/hashicorp/go-plugin"

	domainPlugin "github.com/jcttech/specstack/pkg/domain/plugin"
)

var HandshakeConfig = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SPECSTACK_PLUGIN",
	MagicCookieValue: "specstack",
}

var PluginMap = map[string]goplugin.Plugin{
	"provider": &domainPlugin.ProviderPlugin{},
}

// BinaryName returns the conventional executable name for a provider.
func BinaryName(provider string) string {
	return "specstack-plugin-" + provider
}

// Discover resolves the executable for a named provider. An explicit
// binary path from the plugin config wins; otherwise PATH is searched
// for the conventional name.
func Discover(provider, binary string) (string, error) {
	if binary != "" {
		return binary, nil
	}
	path, err := exec.LookPath(BinaryName(provider))
	if err != nil {
		return "", fmt.Errorf("provider %s has no configured binary and %s is not on PATH", provider, BinaryName(provider))
	}
	return path, nil
}

type Loader struct {
	plugins map[string]*goplugin.Client
}

func NewLoader() *Loader {
	return &Loader{
		plugins: make(map[string]*goplugin.Client),
	}
}

func (l *Loader) Load(path string) (domainPlugin.Provider, error) {
	// Validate plugin path before execution
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid plugin path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plugin not found: %s", absPath)
		}
		return nil, fmt.Errorf("cannot access plugin: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("plugin path is a directory: %s", absPath)
	}

	// Check executable permission on Unix systems
	if runtime.GOOS != "windows" {
		if info.Mode()&0111 == 0 {
			return nil, fmt.Errorf("plugin is not executable: %s", absPath)
		}
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(path),
		AllowedProtocols: []goplugin.Protocol{
			goplugin.ProtocolNetRPC,
		},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to create plugin client: %w", err)
	}

	raw, err := rpcClient.Dispense("provider")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	l.plugins[path] = client
	return raw.(domainPlugin.Provider), nil
}

func (l *Loader) Cleanup() {
	for _, client := range l.plugins {
		client.Kill()
	}
}
