package gitutil

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrNoRemote means the repository has no parseable GitHub origin remote.
var ErrNoRemote = errors.New("no parseable git remote")

// Remote identifies the GitHub repository behind a remote URL.
type Remote struct {
	Owner string
	Repo  string
}

func (r Remote) String() string {
	return r.Owner + "/" + r.Repo
}

var remotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/]+)/([^/.]+)(?:\.git)?/?$`),
	regexp.MustCompile(`^git@github\.com:([^/]+)/([^/.]+)(?:\.git)?$`),
	regexp.MustCompile(`^ssh://git@github\.com/([^/]+)/([^/.]+)(?:\.git)?$`),
}

// ParseRemoteURL extracts owner/repo from the https, scp-like, and ssh
// remote URL forms GitHub serves.
func ParseRemoteURL(url string) (Remote, bool) {
	url = strings.TrimSpace(url)
	for _, re := range remotePatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return Remote{Owner: m[1], Repo: m[2]}, true
		}
	}
	return Remote{}, false
}

// ResolveRemote reads remote.origin.url in dir and parses it into owner
// and repository. Failures report ErrNoRemote so callers can distinguish
// repo-resolution problems from tracker errors.
func ResolveRemote(ctx context.Context, dir string) (Remote, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := gitOutput(ctx, dir, "config", "--get", "remote.origin.url")
	if err != nil {
		return Remote{}, fmt.Errorf("%w: %v", ErrNoRemote, err)
	}
	url := strings.TrimSpace(out)
	if url == "" {
		return Remote{}, ErrNoRemote
	}
	remote, ok := ParseRemoteURL(url)
	if !ok {
		return Remote{}, fmt.Errorf("%w: unrecognized url %q", ErrNoRemote, url)
	}
	return remote, nil
}
