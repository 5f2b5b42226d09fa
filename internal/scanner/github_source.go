package scanner

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

const defaultGitHubURL = "https://github.com"

type GitHubRepo struct {
	Owner string
	Name  string
}

func (r GitHubRepo) String() string {
	return r.Owner + "/" + r.Name
}

// GitHubSource clones repositories into temporary directories so they can be
// searched like any local directory
type GitHubSource struct {
	token    string
	baseURL  string
	depth    int
	tempDirs []string
}

func ParseGitHubRepo(s string) (GitHubRepo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return GitHubRepo{}, fmt.Errorf("github repo string is empty")
	}

	segments := strings.SplitN(s, "/", 3)
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return GitHubRepo{}, fmt.Errorf("invalid GitHub repo format %q: expected \"owner/repo\"", s)
	}

	return GitHubRepo{Owner: segments[0], Name: segments[1]}, nil
}

func NewGitHubSource(token string) *GitHubSource {
	return &GitHubSource{
		token:   token,
		baseURL: defaultGitHubURL,
		depth:   1,
	}
}

// Clone checks out the repository's default branch and returns the local directory
func (g *GitHubSource) Clone(ctx context.Context, repo GitHubRepo) (string, error) {
	tmpDir, err := os.MkdirTemp("", fmt.Sprintf("kwsearch-github-%s-%s-*", repo.Owner, repo.Name))
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	g.tempDirs = append(g.tempDirs, tmpDir)

	cloneOpts := &git.CloneOptions{
		URL:   fmt.Sprintf("%s/%s/%s.git", g.baseURL, repo.Owner, repo.Name),
		Depth: g.depth,
	}

	if g.token != "" {
		cloneOpts.Auth = &http.BasicAuth{
			Username: "x-access-token",
			Password: g.token,
		}
	}

	log.Printf("Cloning GitHub repository: %s", repo)

	if _, err := git.PlainCloneContext(ctx, tmpDir, false, cloneOpts); err != nil {
		return "", fmt.Errorf("failed to clone %s: %w", repo, err)
	}

	log.Printf("Successfully cloned %s to %s", repo, tmpDir)
	return tmpDir, nil
}

// Cleanup removes every directory created by Clone
func (g *GitHubSource) Cleanup() {
	for _, dir := range g.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("Warning: failed to remove temp directory %s: %v", dir, err)
		}
	}
	g.tempDirs = nil
}
