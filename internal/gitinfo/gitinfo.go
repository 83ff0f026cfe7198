// Package gitinfo resolves per-file git metadata for scanned pages: the last
// commit touching a file becomes the page's lastmod and revision.
package gitinfo

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var errStop = errors.New("stop iteration")

// Info is the git metadata attached to one page source file.
type Info struct {
	LastMod  time.Time
	Revision string
}

// Collector reads commit metadata from the repository containing the site
// directory.
type Collector struct {
	repo *git.Repository
	root string
	head plumbing.Hash
}

// Open locates the repository enclosing dir. It fails when dir is not inside
// a git work tree; callers treat that as "no git metadata available".
func Open(dir string) (*Collector, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	ref, err := repo.Head()
	if err != nil {
		return nil, err
	}

	return &Collector{
		repo: repo,
		root: wt.Filesystem.Root(),
		head: ref.Hash(),
	}, nil
}

// HeadRevision returns the short hash of the current head commit.
func (c *Collector) HeadRevision() string {
	return shortHash(c.head)
}

// FileInfo returns the metadata of the most recent commit touching path.
// ok is false for untracked or never-committed files.
func (c *Collector) FileInfo(path string) (Info, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Info{}, false
	}
	rel, err := filepath.Rel(c.root, abs)
	if err != nil {
		return Info{}, false
	}
	rel = filepath.ToSlash(rel)

	iter, err := c.repo.Log(&git.LogOptions{
		From:     c.head,
		FileName: &rel,
		Order:    git.LogOrderCommitterTime,
	})
	if err != nil {
		return Info{}, false
	}

	var info Info
	found := false
	err = iter.ForEach(func(commit *object.Commit) error {
		info = Info{
			LastMod:  commit.Committer.When.UTC(),
			Revision: shortHash(commit.Hash),
		}
		found = true
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return Info{}, false
	}
	return info, found
}

func shortHash(h plumbing.Hash) string {
	s := h.String()
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
