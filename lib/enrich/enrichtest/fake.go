// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package enrichtest provides in-memory enrichment sources for tests
// and demo mode. Every fake is a plain struct whose maps the test
// populates directly; the zero value answers every query with empty
// results. Set Err on a fake to make all of its methods fail, for
// exercising the "data not yet available" path.
package enrichtest

import (
	"context"
	"strings"

	"github.com/flightdeck-foundation/flightdeck/lib/enrich"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// CodeHost serves branches, tags, and pull requests from maps keyed
// by repository.
type CodeHost struct {
	BranchesByRepo     map[string][]string
	TagsByRepo         map[string][]string
	PullRequestsByRepo map[string][]enrich.PullRequest
	Err                error
}

func (h *CodeHost) Branches(_ context.Context, repository string) ([]string, error) {
	if h.Err != nil {
		return nil, h.Err
	}
	return h.BranchesByRepo[repository], nil
}

func (h *CodeHost) Tags(_ context.Context, repository string) ([]string, error) {
	if h.Err != nil {
		return nil, h.Err
	}
	return h.TagsByRepo[repository], nil
}

func (h *CodeHost) PullRequests(_ context.Context, repository string) ([]enrich.PullRequest, error) {
	if h.Err != nil {
		return nil, h.Err
	}
	return h.PullRequestsByRepo[repository], nil
}

// ImageRegistry serves image tags keyed by "service/module".
type ImageRegistry struct {
	TagsByTarget map[string][]string
	Err          error
}

func (r *ImageRegistry) Tags(_ context.Context, serviceName, module string) ([]string, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.TagsByTarget[serviceName+"/"+module], nil
}

// ConfigStore serves configuration items and live values from maps.
type ConfigStore struct {
	// ItemsByProject holds every item visible to a project; Items
	// filters by group when one is given.
	ItemsByProject map[string][]schema.ConfigItem

	// ContentByKey holds live values keyed by environment + "\x00" +
	// item identity key.
	ContentByKey map[string]string

	Err error
}

func (s *ConfigStore) Items(_ context.Context, project, group string) ([]schema.ConfigItem, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	all := s.ItemsByProject[project]
	if group == "" {
		return all, nil
	}
	var filtered []schema.ConfigItem
	for _, item := range all {
		if item.Group == group {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (s *ConfigStore) CurrentContent(_ context.Context, environment string, item schema.ConfigItem) (string, bool, error) {
	if s.Err != nil {
		return "", false, s.Err
	}
	content, ok := s.ContentByKey[environment+"\x00"+item.Key()]
	return content, ok, nil
}

// SetContent registers a live value for an item in an environment.
func (s *ConfigStore) SetContent(environment string, item schema.ConfigItem, content string) {
	if s.ContentByKey == nil {
		s.ContentByKey = make(map[string]string)
	}
	s.ContentByKey[environment+"\x00"+item.Key()] = content
}

// Directory serves principals from a flat list, matching on id or
// display-name prefix.
type Directory struct {
	Principals []enrich.Principal
	Err        error
}

func (d *Directory) Search(_ context.Context, query, department string) ([]enrich.Principal, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	var matches []enrich.Principal
	for _, principal := range d.Principals {
		if department != "" && principal.Department != department {
			continue
		}
		if query == "" ||
			strings.HasPrefix(principal.ID, query) ||
			strings.HasPrefix(principal.DisplayName, query) {
			matches = append(matches, principal)
		}
	}
	return matches, nil
}

// DatabaseCatalog serves connection names keyed by project.
type DatabaseCatalog struct {
	ConnectionsByProject map[string][]string
	Err                  error
}

func (c *DatabaseCatalog) Connections(_ context.Context, project string) ([]string, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.ConnectionsByProject[project], nil
}

// StatementChecker answers with a fixed issue list per statement.
type StatementChecker struct {
	IssuesByStatement map[string][]string
	Err               error
}

func (c *StatementChecker) Check(_ context.Context, _, statement string) ([]string, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.IssuesByStatement[statement], nil
}

// Sources returns an enrich.Sources populated with fresh zero-value
// fakes, the usual starting point for a session test.
func Sources() (enrich.Sources, *CodeHost, *ImageRegistry, *ConfigStore) {
	codeHost := &CodeHost{}
	registry := &ImageRegistry{}
	configStore := &ConfigStore{}
	return enrich.Sources{
		CodeHost:         codeHost,
		ImageRegistry:    registry,
		ConfigStore:      configStore,
		Directory:        &Directory{},
		DatabaseCatalog:  &DatabaseCatalog{},
		StatementChecker: &StatementChecker{},
	}, codeHost, registry, configStore
}
