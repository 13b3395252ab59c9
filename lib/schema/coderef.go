// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Repository type constants for ServiceModuleOption.RepoType. The
// empty string means git (the overwhelmingly common case; presets
// rarely spell it out).
const (
	// RepoGit marks a git-backed repository: code references are
	// branches, tags, or pull requests.
	RepoGit = "git"

	// RepoPerforce marks a Perforce-backed repository: code
	// references are changelist and shelve numbers.
	RepoPerforce = "perforce"
)

// RefKind is the branch-or-tag radio choice on a git code reference.
type RefKind string

const (
	// RefBranch means the Branch field names the ref to build.
	RefBranch RefKind = "branch"

	// RefTag means the Tag field names the ref to build.
	RefTag RefKind = "tag"
)

// CodeRef is the code reference attached to a build target. It is an
// edit-time shape: the operator toggles between branch and tag via
// Kind, types pull request numbers as a comma-separated string, and
// browses enrichment-fetched option lists. Serialization collapses
// all of that into the scalar fields the backend expects.
type CodeRef struct {
	// Kind selects whether Branch or Tag is the effective ref for a
	// git repository. Empty behaves like RefBranch.
	Kind RefKind `json:"kind,omitempty"`

	// Branch is the chosen branch name (git, Kind=branch).
	Branch string `json:"branch,omitempty"`

	// Tag is the chosen tag name (git, Kind=tag).
	Tag string `json:"tag,omitempty"`

	// PullRequests is the operator-typed pull request list as a
	// comma-separated string ("12, 34,56"). Serialization parses it
	// into a number list.
	PullRequests string `json:"pull_requests,omitempty"`

	// Changelist and Shelve identify Perforce state. Edit-time they
	// are strings so an empty input is distinguishable from an
	// explicit zero; serialization defaults empty to 0.
	Changelist string `json:"changelist,omitempty"`
	Shelve     string `json:"shelve,omitempty"`

	// BranchOptions, TagOptions, and PullRequestOptions are the
	// enrichment caches the editor widget offers for picking.
	// Stripped at serialization.
	BranchOptions      []string `json:"branch_options,omitempty"`
	TagOptions         []string `json:"tag_options,omitempty"`
	PullRequestOptions []string `json:"pull_request_options,omitempty"`
}

// Resolved reports whether the reference names something buildable: a
// branch, a tag, at least one pull request, or a Perforce changelist.
// Build validation requires every non-repo-sync target to be resolved.
func (r *CodeRef) Resolved() bool {
	if r == nil {
		return false
	}
	switch r.Kind {
	case RefTag:
		if r.Tag != "" {
			return true
		}
	default:
		if r.Branch != "" {
			return true
		}
	}
	if strings.TrimSpace(r.PullRequests) != "" {
		return true
	}
	return strings.TrimSpace(r.Changelist) != ""
}

// ParsePullRequests parses a comma-separated pull request string into
// a sorted-as-written number list. Empty input yields an empty list.
// Blank elements (from trailing commas or doubled separators) are
// skipped; a non-numeric element is an error naming the bad token.
func ParsePullRequests(csv string) ([]int, error) {
	trimmed := strings.TrimSpace(csv)
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, ",")
	numbers := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		number, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("pull request list %q: %q is not a number", csv, part)
		}
		numbers = append(numbers, number)
	}
	return numbers, nil
}

// ParsePerforceID parses a changelist or shelve identifier. The empty
// string defaults to 0 — an unset identifier on a non-git target
// means "head", and the backend expects the number 0, not "".
func ParsePerforceID(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	number, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("perforce identifier %q is not a number", value)
	}
	return number, nil
}
