// Package repo holds the pipeline's collaborator helpers: fetching a target
// repository, summarizing its README, and listing its file tree.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// ErrCloneFailed is returned when the remote repository cannot be fetched.
var ErrCloneFailed = errors.New("repository clone failed")

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// SafeRepoName derives a filesystem-safe directory name from a clone URL.
func SafeRepoName(url string) string {
	name := url
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	name = unsafeNameChars.ReplaceAllString(name, "-")
	if name == "" {
		name = "repo"
	}
	return name
}

// Clone fetches url at depth 1 into a fresh temp directory and returns the
// checkout path plus a cleanup func that removes the whole temp tree.
func Clone(ctx context.Context, url string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "codeatlas-")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrCloneFailed, err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	local := filepath.Join(tmpDir, SafeRepoName(url))
	_, err = gogit.PlainCloneContext(ctx, local, false, &gogit.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%w: %s: %v", ErrCloneFailed, url, err)
	}
	return local, cleanup, nil
}
