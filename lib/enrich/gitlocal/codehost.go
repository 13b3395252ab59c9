// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package gitlocal implements enrich.CodeHost over local git clones.
// It exists for development and the CLI simulate flow, where there is
// no code-host API to call: branch and tag lists come straight from a
// clone on disk, and the pull request list is always empty (a local
// clone has no pull requests).
package gitlocal

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/flightdeck-foundation/flightdeck/lib/enrich"
)

// CodeHost resolves repository names to clones under a base
// directory: repository "payments/checkout-svc" is expected at
// <baseDir>/payments/checkout-svc.
type CodeHost struct {
	baseDir string
}

// New returns a CodeHost rooted at baseDir.
func New(baseDir string) *CodeHost {
	return &CodeHost{baseDir: baseDir}
}

var _ enrich.CodeHost = (*CodeHost)(nil)

// Branches returns the clone's branch names, sorted.
func (h *CodeHost) Branches(ctx context.Context, repository string) ([]string, error) {
	repo, err := h.open(repository)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches of %s: %w", repository, err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing branches of %s: %w", repository, err)
	}
	sort.Strings(names)
	return names, nil
}

// Tags returns the clone's tag names, sorted.
func (h *CodeHost) Tags(ctx context.Context, repository string) ([]string, error) {
	repo, err := h.open(repository)
	if err != nil {
		return nil, err
	}
	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", repository, err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags of %s: %w", repository, err)
	}
	sort.Strings(names)
	return names, nil
}

// PullRequests always returns an empty list: pull requests live on
// the hosting service, not in the clone.
func (h *CodeHost) PullRequests(context.Context, string) ([]enrich.PullRequest, error) {
	return nil, nil
}

func (h *CodeHost) open(repository string) (*git.Repository, error) {
	path := filepath.Join(h.baseDir, filepath.FromSlash(repository))
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening clone %s: %w", path, err)
	}
	return repo, nil
}
