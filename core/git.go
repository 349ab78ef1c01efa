package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Cloner materializes a single revision of a remote repository on disk.
type Cloner interface {
	Clone(ctx context.Context, src Source) (*Checkout, error)
}

// GitCloner clones with go-git, shallow and restricted to one reference.
type GitCloner struct {
	// Depth of the clone; 0 means 1.
	Depth int
	// Progress receives the remote's sideband output, may be nil.
	Progress io.Writer
}

// NewGitCloner returns a shallow single-reference cloner.
func NewGitCloner(depth int, progress io.Writer) *GitCloner {
	return &GitCloner{Depth: depth, Progress: progress}
}

// ResolveReference finds version on the remote, trying it as a branch first
// and as a tag second, like `git clone --branch` does.
func ResolveReference(ctx context.Context, url, version string) (plumbing.ReferenceName, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("list remote %s: %w", url, err)
	}

	return matchReference(refs, version)
}

func matchReference(refs []*plumbing.Reference, version string) (plumbing.ReferenceName, error) {
	branch := plumbing.NewBranchReferenceName(version)
	tag := plumbing.NewTagReferenceName(version)

	var foundTag bool
	for _, ref := range refs {
		switch ref.Name() {
		case branch:
			return branch, nil
		case tag:
			foundTag = true
		}
	}
	if foundTag {
		return tag, nil
	}
	return "", fmt.Errorf("%w: %q", ErrReferenceNotFound, version)
}

// Clone resolves src.Version and clones exactly that reference into src.Dir.
func (c *GitCloner) Clone(ctx context.Context, src Source) (*Checkout, error) {
	ref, err := ResolveReference(ctx, src.URL, src.Version)
	if err != nil {
		return nil, err
	}

	depth := c.Depth
	if depth <= 0 {
		depth = 1
	}

	repo, err := git.PlainCloneContext(ctx, src.Dir, false, &git.CloneOptions{
		URL:           src.URL,
		ReferenceName: ref,
		SingleBranch:  true,
		Depth:         depth,
		Tags:          git.NoTags,
		Progress:      c.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("clone %s into %s: %w", ref.Short(), src.Dir, err)
	}

	head, err := repo.Head()
	if err != nil && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("read HEAD: %w", err)
	}

	co := &Checkout{
		Dir:       src.Dir,
		URL:       src.URL,
		Version:   src.Version,
		Reference: ref.String(),
	}
	if head != nil {
		co.Commit = head.Hash().String()
	}
	return co, nil
}
