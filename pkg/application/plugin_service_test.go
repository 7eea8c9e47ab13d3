package application

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcttech/specstack/pkg/domain/plugin"
)

func writeFakeBinary(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestPluginRegisterAndList(t *testing.T) {
	repo := newTestRepo(t)
	bin := writeFakeBinary(t, t.TempDir(), "fake-provider")
	svc := NewPluginService(repo)

	if err := svc.Register("linear", bin); err != nil {
		t.Fatalf("Register: %v", err)
	}

	plugins, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("List returned %d plugins, want 1", len(plugins))
	}
	if plugins[0].Name != "linear" || plugins[0].Binary != bin {
		t.Errorf("plugin = %+v", plugins[0])
	}
	if plugins[0].Status != "available" {
		t.Errorf("status = %q, want available", plugins[0].Status)
	}

	if err := svc.Unregister("linear"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	plugins, err = svc.List()
	if err != nil {
		t.Fatalf("List after unregister: %v", err)
	}
	if len(plugins) != 0 {
		t.Errorf("List returned %d plugins after unregister, want 0", len(plugins))
	}
	if err := svc.Unregister("linear"); err == nil {
		t.Error("Unregister of unknown plugin succeeded")
	}
}

func TestPluginRegisterValidatesBinary(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewPluginService(repo)
	dir := t.TempDir()

	if err := svc.Register("", "/bin/true"); err == nil {
		t.Error("empty name accepted")
	}
	if err := svc.Register("x", filepath.Join(dir, "missing")); err == nil {
		t.Error("missing binary accepted")
	}
	if err := svc.Register("x", dir); err == nil {
		t.Error("directory accepted as binary")
	}

	plain := filepath.Join(dir, "not-executable")
	if err := os.WriteFile(plain, []byte("data"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := svc.Register("x", plain); err == nil || !strings.Contains(err.Error(), "not executable") {
		t.Errorf("Register non-executable = %v, want not-executable error", err)
	}

	// Name-only registration needs the conventional binary on PATH.
	if err := svc.Register("no-such-provider-zz", ""); err == nil {
		t.Error("name-only registration accepted without a PATH binary")
	}
}

func TestPluginRegisterKeepsProviderConfig(t *testing.T) {
	repo := newTestRepo(t)
	dir := t.TempDir()
	oldBin := writeFakeBinary(t, dir, "old")
	newBin := writeFakeBinary(t, dir, "new")
	svc := NewPluginService(repo)

	if err := repo.SetPluginConfig("jira", plugin.PluginConfig{
		Binary: oldBin,
		Config: map[string]string{"url": "https://example.atlassian.net"},
	}); err != nil {
		t.Fatalf("SetPluginConfig: %v", err)
	}

	if err := svc.Register("jira", newBin); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cfg, err := repo.GetPluginConfig("jira")
	if err != nil {
		t.Fatalf("GetPluginConfig: %v", err)
	}
	if cfg.Binary != newBin {
		t.Errorf("Binary = %q, want %q", cfg.Binary, newBin)
	}
	if cfg.Config["url"] != "https://example.atlassian.net" {
		t.Errorf("provider config lost on re-register: %v", cfg.Config)
	}
}

func TestPluginListFlagsMissingBinary(t *testing.T) {
	repo := newTestRepo(t)
	bin := writeFakeBinary(t, t.TempDir(), "gone-soon")
	svc := NewPluginService(repo)

	if err := svc.Register("gone", bin); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := os.Remove(bin); err != nil {
		t.Fatalf("remove binary: %v", err)
	}

	plugins, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(plugins) != 1 || plugins[0].Status != "missing" {
		t.Errorf("plugins = %+v, want one entry with status missing", plugins)
	}
}

func TestPluginVerifyReportsMissingBinary(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewPluginService(repo)

	if err := repo.SetPluginConfig("ghost", plugin.PluginConfig{
		Binary: filepath.Join(t.TempDir(), "ghost-bin"),
		Config: map[string]string{},
	}); err != nil {
		t.Fatalf("SetPluginConfig: %v", err)
	}

	result, err := svc.Verify("ghost")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Valid {
		t.Error("Verify passed with a missing binary")
	}
	if !strings.Contains(result.Error, "binary not found") {
		t.Errorf("Error = %q, want binary-not-found", result.Error)
	}
}
