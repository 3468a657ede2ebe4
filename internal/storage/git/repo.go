// Versions the local data directory with go-git.

// Package git keeps an audit trail of the local data directory. Every
// successful upload commits the files it changed, so local ledger history is
// inspectable even when the remote mirror lags or diverges.
package git

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Author identifies who made a change for commits. Zero values fall back to
// the repository defaults.
type Author struct {
	Name  string
	Email string
}

// Commit is one entry of a path's history.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// Repo is a go-git repository over the local data directory. All mutations go
// through CommitPaths, serialized by an internal lock.
type Repo struct {
	dir          string
	defaultName  string
	defaultEmail string
	repo         *gogit.Repository
	mu           sync.Mutex
}

// Open opens the repository at dir, initializing it on first use.
func Open(dir, defaultName, defaultEmail string) (*Repo, error) {
	if defaultName == "" {
		defaultName = "mapmymemories"
	}
	if defaultEmail == "" {
		defaultEmail = "mapmymemories@localhost"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}

	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		// Not a repo yet, initialize.
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = defaultName
		cfg.User.Email = defaultEmail
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	}

	return &Repo{
		dir:          dir,
		defaultName:  defaultName,
		defaultEmail: defaultEmail,
		repo:         repo,
	}, nil
}

// CommitPaths stages the given paths (relative to the repository root) and
// commits them. A clean worktree after staging is a no-op, not an error.
func (r *Repo) CommitPaths(ctx context.Context, author Author, msg string, paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(paths) == 0 {
		return nil
	}

	// Detach from the HTTP request context but keep a timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()
	_ = ctx // go-git worktree operations do not take a context.

	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, p := range paths {
		if _, err := w.Add(p); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}

	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	name := author.Name
	email := author.Email
	if name == "" {
		name = r.defaultName
	}
	if email == "" {
		email = r.defaultEmail
	}

	now := time.Now()
	_, err = w.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: name, Email: email, When: now},
		Committer: &object.Signature{
			Name:  r.defaultName,
			Email: r.defaultEmail,
			When:  now,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// History returns up to n commits touching path, newest first. n is capped at
// 1000; a repository with no commits yields an empty history.
func (r *Repo) History(_ context.Context, path string, n int) ([]*Commit, error) {
	if n <= 0 || n > 1000 {
		n = 1000
	}

	opts := &gogit.LogOptions{}
	if path != "" && path != "." {
		opts.FileName = &path
	}
	iter, err := r.repo.Log(opts)
	if err != nil {
		return nil, nil // no commits yet is not an error
	}
	defer iter.Close()

	var commits []*Commit
	for range n {
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, &Commit{
			Hash:    c.Hash.String(),
			Message: subject,
			Author:  c.Author.Name,
			Date:    c.Author.When,
		})
	}
	return commits, nil
}
