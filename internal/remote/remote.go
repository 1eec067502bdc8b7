// Package remote fetches a corpus tree from a GitHub repository into a
// local cache directory, using github.com/google/go-github/v63/github
// against the Repositories/Contents API.
package remote

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v63/github"

	"github.com/cctr-run/cctr/internal/cctrerrors"
)

// Spec identifies a remote corpus source: "owner/repo" or "owner/repo:ref".
type Spec struct {
	Owner string
	Repo  string
	Ref   string // "" means the repository's default branch
}

// ParseSpec parses the --repo flag value: "owner/repo" or "owner/repo:ref".
func ParseSpec(raw string) (Spec, error) {
	ownerRepo, ref, _ := strings.Cut(raw, ":")
	owner, repo, ok := strings.Cut(ownerRepo, "/")
	if !ok || owner == "" || repo == "" {
		return Spec{}, fmt.Errorf("remote: %q must be in owner/repo[:ref] form", raw)
	}
	return Spec{Owner: owner, Repo: repo, Ref: ref}, nil
}

// CacheDir returns ~/.cctr/cache/<owner>/<repo>/<ref-or-HEAD>, creating it
// if necessary.
func CacheDir(spec Spec) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", cctrerrors.Wrap(err, cctrerrors.Workspace, "resolving home directory for remote cache")
	}
	ref := spec.Ref
	if ref == "" {
		ref = "HEAD"
	}
	dir := filepath.Join(home, ".cctr", "cache", spec.Owner, spec.Repo, ref)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", cctrerrors.Wrap(err, cctrerrors.Workspace, "creating remote cache directory "+dir)
	}
	return dir, nil
}

// Fetcher downloads a corpus tree via the GitHub Contents API into the
// local cache, overwriting any previously cached copy.
type Fetcher struct {
	Client *github.Client
}

// NewFetcher builds a Fetcher using an unauthenticated client unless a
// GITHUB_TOKEN environment variable is present.
func NewFetcher() *Fetcher {
	client := github.NewClient(nil)
	if tok := os.Getenv("GITHUB_TOKEN"); tok != "" {
		client = client.WithAuthToken(tok)
	}
	return &Fetcher{Client: client}
}

// Fetch downloads spec's repository contents into dir, recursing into
// subdirectories.
func (f *Fetcher) Fetch(ctx context.Context, spec Spec, dir string) error {
	return f.fetchPath(ctx, spec, "", dir)
}

func (f *Fetcher) fetchPath(ctx context.Context, spec Spec, repoPath, localDir string) error {
	opts := &github.RepositoryContentGetOptions{Ref: spec.Ref}
	file, dirContents, _, err := f.Client.Repositories.GetContents(ctx, spec.Owner, spec.Repo, repoPath, opts)
	if err != nil {
		return cctrerrors.Wrap(err, cctrerrors.Execution, "fetching "+spec.Owner+"/"+spec.Repo+":"+repoPath)
	}

	if file != nil {
		return f.writeFile(file, localDir)
	}

	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return cctrerrors.Wrap(err, cctrerrors.Workspace, "creating "+localDir)
	}
	for _, entry := range dirContents {
		childLocal := filepath.Join(localDir, entry.GetName())
		if entry.GetType() == "dir" {
			if err := f.fetchPath(ctx, spec, entry.GetPath(), childLocal); err != nil {
				return err
			}
			continue
		}
		if err := f.fetchPath(ctx, spec, entry.GetPath(), childLocal); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fetcher) writeFile(file *github.RepositoryContent, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return cctrerrors.Wrap(err, cctrerrors.Workspace, "creating "+filepath.Dir(localPath))
	}
	content, err := file.GetContent()
	if err != nil {
		return cctrerrors.Wrap(err, cctrerrors.Execution, "decoding "+localPath)
	}
	var data []byte
	if file.GetEncoding() == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return cctrerrors.Wrap(err, cctrerrors.Execution, "decoding "+localPath)
		}
		data = decoded
	} else {
		data = []byte(content)
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return cctrerrors.Wrap(err, cctrerrors.Workspace, "writing "+localPath)
	}
	return nil
}
