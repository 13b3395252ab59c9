// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package gitlocal

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// initClone creates a clone at baseDir/repository with one commit,
// branches main and release-2026.08, and tag v1.4.0.
func initClone(t *testing.T, baseDir, repository string) {
	t.Helper()

	path := filepath.Join(baseDir, filepath.FromSlash(repository))
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	repo, err := git.PlainInit(path, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "README.md"), []byte("checkout-svc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Add("README.md"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hash, err := worktree.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@flightdeck.local", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		t.Fatalf("set main: %v", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("release-2026.08"), hash)); err != nil {
		t.Fatalf("set release branch: %v", err)
	}
	if _, err := repo.CreateTag("v1.4.0", hash, nil); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
}

func TestCodeHost(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	initClone(t, baseDir, "payments/checkout-svc")
	host := New(baseDir)
	ctx := context.Background()

	branches, err := host.Branches(ctx, "payments/checkout-svc")
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	// PlainInit leaves the default branch (master) behind alongside
	// the two we created; assert ours are present and sorted.
	want := map[string]bool{"main": true, "release-2026.08": true}
	for _, branch := range branches {
		delete(want, branch)
	}
	if len(want) != 0 {
		t.Errorf("Branches = %v, missing %v", branches, want)
	}
	for i := 1; i < len(branches); i++ {
		if branches[i-1] > branches[i] {
			t.Errorf("Branches not sorted: %v", branches)
		}
	}

	tags, err := host.Tags(ctx, "payments/checkout-svc")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"v1.4.0"}) {
		t.Errorf("Tags = %v, want [v1.4.0]", tags)
	}

	pullRequests, err := host.PullRequests(ctx, "payments/checkout-svc")
	if err != nil {
		t.Fatalf("PullRequests: %v", err)
	}
	if len(pullRequests) != 0 {
		t.Errorf("PullRequests = %v, want empty", pullRequests)
	}
}

func TestCodeHostMissingClone(t *testing.T) {
	t.Parallel()

	host := New(t.TempDir())
	if _, err := host.Branches(context.Background(), "payments/ghost-svc"); err == nil {
		t.Error("Branches on a missing clone returned nil error")
	}
}
