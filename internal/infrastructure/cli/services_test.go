package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcttech/specstack/pkg/storage"
)

func TestLoadServicesSucceeds(t *testing.T) {
	tempDir := t.TempDir()
	repo := storage.NewFilesystemRepository(tempDir)
	if err := repo.Initialize(); err != nil {
		t.Fatalf("initialize repo: %v", err)
	}

	services, err := loadServices(tempDir)
	if err != nil {
		t.Fatalf("load services: %v", err)
	}
	defer services.Close()
	if services.Sync == nil || services.Cascade == nil || services.Drafts == nil {
		t.Fatalf("expected services, got %+v", services)
	}
}

func TestLoadServicesRejectsInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()
	repo := storage.NewFilesystemRepository(tempDir)
	if err := repo.Initialize(); err != nil {
		t.Fatalf("initialize repo: %v", err)
	}

	cfgPath := filepath.Join(tempDir, storage.SpecifyDir, storage.ConfigFile)
	bad := "issue_tracking:\n  cache_closed_days: -3\n"
	if err := os.WriteFile(cfgPath, []byte(bad), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := loadServices(tempDir); err == nil {
		t.Fatal("expected schema violation error")
	}
}

func TestLoadServicesForCurrentDir(t *testing.T) {
	tempDir := t.TempDir()
	repo := storage.NewFilesystemRepository(tempDir)
	if err := repo.Initialize(); err != nil {
		t.Fatalf("initialize repo: %v", err)
	}

	original, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd: %v", err)
	}
	defer func() {
		_ = os.Chdir(original)
	}()

	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	services, err := loadServicesForCurrentDir()
	if err != nil {
		t.Fatalf("load services for current dir: %v", err)
	}
	defer services.Close()
	if services.Workspace == nil || services.Config == nil {
		t.Fatalf("expected services, got %+v", services)
	}
}

func TestGetProjectRoot_DefaultToCwd(t *testing.T) {
	old := projectPath
	defer func() { projectPath = old }()
	projectPath = ""

	got, err := getProjectRoot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cwd, _ := os.Getwd()
	if got != cwd {
		t.Fatalf("expected %s, got %s", cwd, got)
	}
}

func TestGetProjectRoot_WithFlag(t *testing.T) {
	tmpDir := t.TempDir()

	old := projectPath
	defer func() { projectPath = old }()
	projectPath = tmpDir

	got, err := getProjectRoot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	abs, _ := filepath.Abs(tmpDir)
	if got != abs {
		t.Fatalf("expected %s, got %s", abs, got)
	}
}

func TestGetProjectRoot_InvalidPath(t *testing.T) {
	old := projectPath
	defer func() { projectPath = old }()
	projectPath = "/nonexistent/path/that/does/not/exist"

	_, err := getProjectRoot()
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
	if !strings.Contains(err.Error(), "project path") {
		t.Fatalf("expected 'project path' in error, got: %v", err)
	}
}

func TestGetProjectRoot_RelativePath(t *testing.T) {
	tmpDir := t.TempDir()
	original, _ := os.Getwd()
	defer func() { _ = os.Chdir(original) }()
	_ = os.Chdir(tmpDir)

	subDir := filepath.Join(tmpDir, "subproject")
	if err := os.Mkdir(subDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	old := projectPath
	defer func() { projectPath = old }()
	projectPath = "subproject"

	got, err := getProjectRoot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Resolve symlinks for macOS where /var -> /private/var
	wantResolved, _ := filepath.EvalSymlinks(subDir)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Fatalf("expected %s, got %s", wantResolved, gotResolved)
	}
}

func TestGetProjectRoot_NotADirectory(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "notadir.txt")
	if err := os.WriteFile(filePath, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	old := projectPath
	defer func() { projectPath = old }()
	projectPath = filePath

	_, err := getProjectRoot()
	if err == nil {
		t.Fatal("expected error for file path")
	}
	if !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("expected 'not a directory' in error, got: %v", err)
	}
}
