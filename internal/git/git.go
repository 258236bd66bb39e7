// Package git wraps the version-control commands used to move addon and
// upgrade repositories to another branch and back.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"odootest/internal/execx"
	"odootest/internal/notify"
	"odootest/pkg/logging"
)

const subsystem = "Git"

// Client runs git through an execx.Runner.
type Client struct {
	runner execx.Runner
	sink   notify.Sink
}

// NewClient creates a git client reporting to sink.
func NewClient(runner execx.Runner, sink notify.Sink) *Client {
	return &Client{runner: runner, sink: sink}
}

func (c *Client) git(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := c.runner.Run(ctx, execx.Command{Name: "git", Args: args, Dir: dir})
	return strings.TrimSpace(out.Stdout), err
}

// RepoPaths returns the distinct top-level directories of the repositories
// containing paths, in first-seen order. Paths outside a repository are skipped.
func (c *Client) RepoPaths(ctx context.Context, paths []string) []string {
	tops := make([]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			top, err := c.git(gctx, p, "rev-parse", "--show-toplevel")
			if err != nil || top == "" {
				logging.Debug(subsystem, "%s is not inside a git repository", p)
				return nil
			}
			tops[i] = filepath.Clean(top)
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]bool{}
	var repos []string
	for _, top := range tops {
		if top == "" || seen[top] {
			continue
		}
		seen[top] = true
		repos = append(repos, top)
	}
	return repos
}

// Branch returns the checked out branch, empty when HEAD is detached or
// the command fails.
func (c *Client) Branch(ctx context.Context, repo string) string {
	out, err := c.git(ctx, repo, "branch", "--show-current")
	if err != nil {
		c.sink.Error(fmt.Sprintf("Failed to get git branch for %s: %v", repo, err))
		return ""
	}
	return out
}

// Commit returns the commit hash of HEAD, empty on failure.
func (c *Client) Commit(ctx context.Context, repo string) string {
	out, err := c.git(ctx, repo, "rev-parse", "HEAD")
	if err != nil {
		c.sink.Error(fmt.Sprintf("Failed to get git commit for %s: %v", repo, err))
		return ""
	}
	return out
}

// Current returns the branch name, or the commit hash when detached.
func (c *Client) Current(ctx context.Context, repo string) string {
	if b := c.Branch(ctx, repo); b != "" {
		return b
	}
	return c.Commit(ctx, repo)
}

// IsClean reports whether the work tree has no uncommitted changes.
// It returns an error when the status cannot be read.
func (c *Client) IsClean(ctx context.Context, repo string) (bool, error) {
	out, err := c.git(ctx, repo, "status", "--porcelain")
	if err != nil {
		c.sink.Error(fmt.Sprintf("Failed to check git status for %s: %v", repo, err))
		return false, err
	}
	return out == "", nil
}

// HasLocalBranch reports whether branch exists locally in repo.
func (c *Client) HasLocalBranch(ctx context.Context, repo, branch string) bool {
	out, err := c.git(ctx, repo, "branch", "--list", branch)
	if err != nil {
		c.sink.Error(fmt.Sprintf("Fail git branch --list %s: %v", branch, err))
		return false
	}
	return out != ""
}

// Checkout switches repo to name, a branch or a commit.
func (c *Client) Checkout(ctx context.Context, repo, name string) error {
	repoName := filepath.Base(repo)
	c.sink.Info(notify.TopicGit, fmt.Sprintf("Checkout to %s for %s", name, repoName))
	if _, err := c.git(ctx, repo, "checkout", name); err != nil {
		c.sink.Error(fmt.Sprintf("Failed to checkout to %s for %s: %v", name, repoName, err))
		return err
	}
	return nil
}

// CheckoutAll checks out every repo → target pair concurrently and waits
// for all of them. It returns the repos whose checkout failed.
func (c *Client) CheckoutAll(ctx context.Context, targets map[string]string) []string {
	var (
		mu     sync.Mutex
		failed []string
		g      errgroup.Group
	)
	for repo, name := range targets {
		g.Go(func() error {
			if err := c.Checkout(ctx, repo, name); err != nil {
				mu.Lock()
				failed = append(failed, repo)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}
