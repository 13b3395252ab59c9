// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package enrich defines the enrichment collaborator boundary: the
// external systems a workbench session consults to populate option
// lists and current-state values (branches, image tags, configuration
// namespaces, approver directories, database connections).
//
// Every method takes a context and returns plain data or an error. A
// failed enrichment is "data not yet available", never fatal: the
// session logs it, leaves the affected option list empty, and retries
// on the next relevant interaction. Implementations live in
// subpackages (gitlocal for a local clone, workbench wiring for HTTP
// backends) and in enrichtest for in-memory fakes.
package enrich

import (
	"context"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// PullRequest is one open pull request on a repository.
type PullRequest struct {
	// Number is the host-assigned pull request number.
	Number int `json:"number"`

	// Title is the pull request's title, for display alongside the
	// number in pick lists.
	Title string `json:"title,omitempty"`
}

// Principal is a directory entry eligible to appear in an approval
// chain.
type Principal struct {
	// ID is the directory's stable identifier (login or employee id).
	ID string `json:"id"`

	// DisplayName is the human-readable name.
	DisplayName string `json:"display_name,omitempty"`

	// Department is the organizational unit, used to narrow approver
	// searches.
	Department string `json:"department,omitempty"`
}

// CodeHost lists the references a build target can point at. The
// repository argument is the ServiceModuleOption.Repository value from
// the job's option list.
type CodeHost interface {
	// Branches returns the repository's branch names.
	Branches(ctx context.Context, repository string) ([]string, error)

	// Tags returns the repository's tag names.
	Tags(ctx context.Context, repository string) ([]string, error)

	// PullRequests returns the repository's open pull requests.
	PullRequests(ctx context.Context, repository string) ([]PullRequest, error)
}

// ImageRegistry lists built image tags for a service module, the
// deploy adapter's source for "what versions exist".
type ImageRegistry interface {
	// Tags returns the pushed image tags for a service module, newest
	// first.
	Tags(ctx context.Context, serviceName, module string) ([]string, error)
}

// ConfigStore exposes the configuration system a config-change job
// writes to.
type ConfigStore interface {
	// Items returns the configuration items under a group. An empty
	// group means all items visible to the session's project.
	Items(ctx context.Context, project, group string) ([]schema.ConfigItem, error)

	// CurrentContent returns the value currently live for an item in
	// the named environment. ok is false when the item does not exist
	// there yet.
	CurrentContent(ctx context.Context, environment string, item schema.ConfigItem) (content string, ok bool, err error)
}

// Directory looks up principals for approval chains.
type Directory interface {
	// Search returns principals matching the query (name prefix or
	// id). An empty department searches the whole directory.
	Search(ctx context.Context, query, department string) ([]Principal, error)
}

// DatabaseCatalog lists the database connections a db-change job may
// target.
type DatabaseCatalog interface {
	// Connections returns the connection names registered for a
	// project.
	Connections(ctx context.Context, project string) ([]string, error)
}

// StatementChecker reviews a SQL statement before submission. Issues
// are human-readable strings; an empty list means the checker has no
// objection. Checker unavailability is an error, distinct from "no
// issues".
type StatementChecker interface {
	Check(ctx context.Context, connection, statement string) ([]string, error)
}

// Sources bundles every enrichment collaborator a session may need.
// Nil fields are allowed: the session treats a missing source like a
// failing one (option lists stay empty, a notice is shown once).
type Sources struct {
	CodeHost         CodeHost
	ImageRegistry    ImageRegistry
	ConfigStore      ConfigStore
	Directory        Directory
	DatabaseCatalog  DatabaseCatalog
	StatementChecker StatementChecker
}
