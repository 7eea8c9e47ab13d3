package gitutil

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		repo  string
		ok    bool
	}{
		{"https://github.com/jcttech/specstack.git", "jcttech", "specstack", true},
		{"https://github.com/jcttech/specstack", "jcttech", "specstack", true},
		{"https://www.github.com/jcttech/specstack/", "jcttech", "specstack", true},
		{"git@github.com:jcttech/specstack.git", "jcttech", "specstack", true},
		{"git@github.com:jcttech/specstack", "jcttech", "specstack", true},
		{"ssh://git@github.com/jcttech/specstack.git", "jcttech", "specstack", true},
		{"https://gitlab.com/jcttech/specstack.git", "", "", false},
		{"https://github.com/jcttech", "", "", false},
		{"not a url", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		remote, ok := ParseRemoteURL(tt.url)
		if ok != tt.ok {
			t.Errorf("ParseRemoteURL(%q) ok = %v, want %v", tt.url, ok, tt.ok)
			continue
		}
		if ok && (remote.Owner != tt.owner || remote.Repo != tt.repo) {
			t.Errorf("ParseRemoteURL(%q) = %s, want %s/%s", tt.url, remote, tt.owner, tt.repo)
		}
	}
}

func TestRemoteString(t *testing.T) {
	r := Remote{Owner: "jcttech", Repo: "specstack"}
	if r.String() != "jcttech/specstack" {
		t.Errorf("expected jcttech/specstack, got %s", r)
	}
}

func TestResolveRemote(t *testing.T) {
	dir := t.TempDir()
	mustGit(t, dir, "init")
	mustGit(t, dir, "remote", "add", "origin", "git@github.com:jcttech/specstack.git")

	remote, err := ResolveRemote(context.Background(), dir)
	if err != nil {
		t.Fatalf("ResolveRemote: %v", err)
	}
	if remote.Owner != "jcttech" || remote.Repo != "specstack" {
		t.Errorf("expected jcttech/specstack, got %s", remote)
	}
}

func TestResolveRemoteMissing(t *testing.T) {
	dir := t.TempDir()
	mustGit(t, dir, "init")

	_, err := ResolveRemote(context.Background(), dir)
	if !errors.Is(err, ErrNoRemote) {
		t.Errorf("expected ErrNoRemote, got %v", err)
	}
}

func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}
