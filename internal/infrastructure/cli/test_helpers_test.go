package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/jcttech/specstack/pkg/storage"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	return buf.String()
}

// initializedWorkspace scaffolds a workspace in a temp dir and points
// the --path flag at it for the duration of the test.
func initializedWorkspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo := storage.NewFilesystemRepository(dir)
	if err := repo.Initialize(); err != nil {
		t.Fatalf("initialize workspace: %v", err)
	}
	setProjectPath(t, dir)
	return dir
}

func setProjectPath(t *testing.T, dir string) {
	t.Helper()

	old := projectPath
	projectPath = dir
	t.Cleanup(func() { projectPath = old })
}
