// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"

	"github.com/flightdeck-foundation/flightdeck/lib/enrich"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/workflow"
)

// EnrichJob fetches the external data a job's editor needs (branch
// and tag lists, connection names, config item pools) and applies it
// to the document. The fetch runs on the caller's goroutine with the
// session unlocked; the result is applied only if no newer enrichment
// for the same job started in the meantime and the job is still in
// the active set. A response for a job that was skipped or policy-
// excluded while the fetch was out is dropped. A failed fetch
// surfaces a once-per-concern notice and leaves the job unfetched;
// the next relevant interaction retries.
func (s *Session) EnrichJob(ctx context.Context, name string) error {
	s.mu.Lock()
	job, revision, err := s.document.Job(name)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot, err := s.document.Snapshot()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	project := snapshot.Project

	s.enrichVersions[name]++
	version := s.enrichVersions[name]

	setLoading(&job.Spec, true)
	if _, err := s.mergeRecomputedLocked(job, revision); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	apply, failures := s.fetch(ctx, job, project)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, failure := range failures {
		s.noticeLocked(enrichmentNoticeKey(name, failure.concern), failure.message)
	}
	if s.enrichVersions[name] != version {
		// A newer enrichment owns the job now; this response is
		// stale. Dropping it is the correctness rule, not an error.
		s.logger.Debug("discarding stale enrichment", "job", name, "version", version)
		return nil
	}

	current, revision, err := s.document.Job(name)
	if err != nil {
		return err
	}
	active, err := s.activeLocked(current)
	if err != nil {
		return err
	}
	if !active {
		// The job left the active set while the fetch was out; the
		// response has no home anymore. Clear the loading flag and
		// drop the data.
		s.logger.Debug("discarding enrichment for inactive job", "job", name, "version", version)
		setLoading(&current.Spec, false)
		_, err = s.mergeRecomputedLocked(current, revision)
		return err
	}
	setLoading(&current.Spec, false)
	if apply != nil {
		apply(current)
	}
	setFetched(&current.Spec, len(failures) == 0)
	_, err = s.mergeRecomputedLocked(current, revision)
	return err
}

// activeLocked reports whether job is currently in the active set.
// Callers hold the mutex.
func (s *Session) activeLocked(job *schema.Job) (bool, error) {
	snapshot, err := s.document.Snapshot()
	if err != nil {
		return false, err
	}
	_, ok := workflow.ActiveSet(snapshot, s.stageExecMode)[workflow.Key(job)]
	return ok, nil
}

// enrichFailure names a concern whose fetch failed, for the notice
// dedupe.
type enrichFailure struct {
	concern string
	message string
}

// fetch gathers the job-type-specific external data. Runs unlocked.
func (s *Session) fetch(ctx context.Context, job *schema.Job, project string) (func(*schema.Job), []enrichFailure) {
	switch {
	case job.Spec.Build != nil:
		return s.fetchCodeRefs(ctx, job)
	case job.Spec.DBChange != nil:
		return s.fetchConnections(ctx, project)
	case job.Spec.ConfigChange != nil:
		return s.fetchConfigItems(ctx, project, job.Spec.ConfigChange.Group)
	default:
		// Deploy, scan, test, and approval editors work from the
		// environment snapshot and the preset's option lists; there
		// is nothing external to fetch.
		return nil, nil
	}
}

// fetchCodeRefs pulls branch, tag, and pull request lists for every
// distinct repository among the job's selected build targets.
func (s *Session) fetchCodeRefs(ctx context.Context, job *schema.Job) (func(*schema.Job), []enrichFailure) {
	host := s.sources.CodeHost
	if host == nil {
		return nil, []enrichFailure{{concern: "codehost", message: "no code host configured; branch and tag lists unavailable"}}
	}

	repositories := make(map[string]string)
	for _, option := range job.Spec.Build.Options {
		if option.Repository != "" {
			repositories[option.Key()] = option.Repository
		}
	}

	type refLists struct {
		branches     []string
		tags         []string
		pullRequests []string
	}
	fetched := make(map[string]refLists)
	var failures []enrichFailure
	seen := make(map[string]bool)
	for _, repository := range repositories {
		if seen[repository] {
			continue
		}
		seen[repository] = true

		var lists refLists
		var err error
		lists.branches, err = host.Branches(ctx, repository)
		if err == nil {
			lists.tags, err = host.Tags(ctx, repository)
		}
		var pullRequests []enrich.PullRequest
		if err == nil {
			pullRequests, err = host.PullRequests(ctx, repository)
		}
		if err != nil {
			failures = append(failures, enrichFailure{
				concern: "codehost",
				message: fmt.Sprintf("code host lookup for %s failed: %v", repository, err),
			})
			continue
		}
		for _, pullRequest := range pullRequests {
			label := fmt.Sprintf("%d", pullRequest.Number)
			if pullRequest.Title != "" {
				label = fmt.Sprintf("%d %s", pullRequest.Number, pullRequest.Title)
			}
			lists.pullRequests = append(lists.pullRequests, label)
		}
		fetched[repository] = lists
	}

	apply := func(job *schema.Job) {
		for i := range job.Selection.Targets {
			target := &job.Selection.Targets[i]
			repository := repositories[target.Key()]
			lists, ok := fetched[repository]
			if !ok {
				continue
			}
			if target.CodeRef == nil {
				target.CodeRef = &schema.CodeRef{}
			}
			target.CodeRef.BranchOptions = lists.branches
			target.CodeRef.TagOptions = lists.tags
			target.CodeRef.PullRequestOptions = lists.pullRequests
		}
	}
	return apply, failures
}

func (s *Session) fetchConnections(ctx context.Context, project string) (func(*schema.Job), []enrichFailure) {
	catalog := s.sources.DatabaseCatalog
	if catalog == nil {
		return nil, []enrichFailure{{concern: "dbcatalog", message: "no database catalog configured; connection list unavailable"}}
	}
	connections, err := catalog.Connections(ctx, project)
	if err != nil {
		return nil, []enrichFailure{{
			concern: "dbcatalog",
			message: fmt.Sprintf("database catalog lookup failed: %v", err),
		}}
	}
	return func(job *schema.Job) {
		job.Spec.DBChange.ConnectionOptions = connections
	}, nil
}

func (s *Session) fetchConfigItems(ctx context.Context, project, group string) (func(*schema.Job), []enrichFailure) {
	store := s.sources.ConfigStore
	if store == nil {
		return nil, []enrichFailure{{concern: "configstore", message: "no config store configured; item list unavailable"}}
	}
	items, err := store.Items(ctx, project, group)
	if err != nil {
		return nil, []enrichFailure{{
			concern: "configstore",
			message: fmt.Sprintf("config store lookup failed: %v", err),
		}}
	}
	return func(job *schema.Job) {
		job.Spec.ConfigChange.Candidates = items
	}, nil
}

// ModuleTags lists pushed image tags for a service module, for the
// deploy editor's version browser. Pure passthrough; failures notice
// once and return an empty list.
func (s *Session) ModuleTags(ctx context.Context, serviceName, module string) []string {
	registry := s.sources.ImageRegistry
	if registry == nil {
		return nil
	}
	tags, err := registry.Tags(ctx, serviceName, module)
	if err != nil {
		s.mu.Lock()
		s.noticeLocked("enrich/registry/"+serviceName+"/"+module,
			fmt.Sprintf("image registry lookup for %s/%s failed: %v", serviceName, module, err))
		s.mu.Unlock()
		return nil
	}
	return tags
}

// SearchApprovers queries the directory for approval chain entries.
func (s *Session) SearchApprovers(ctx context.Context, query, department string) ([]enrich.Principal, error) {
	directory := s.sources.Directory
	if directory == nil {
		return nil, fmt.Errorf("no directory configured")
	}
	return directory.Search(ctx, query, department)
}

// CheckStatement runs the statement checker over a db-change job's
// current statement. Checker issues come back as validation-style
// findings; checker unavailability is an error.
func (s *Session) CheckStatement(ctx context.Context, name string) ([]workflow.Finding, error) {
	checker := s.sources.StatementChecker
	if checker == nil {
		return nil, fmt.Errorf("no statement checker configured")
	}

	s.mu.Lock()
	job, _, err := s.document.Job(name)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if job.Spec.DBChange == nil {
		return nil, fmt.Errorf("job %q is not a db-change job", name)
	}

	issues, err := checker.Check(ctx, job.Spec.DBChange.Connection, job.Spec.DBChange.Statement)
	if err != nil {
		return nil, fmt.Errorf("statement check: %w", err)
	}
	findings := make([]workflow.Finding, 0, len(issues))
	for _, issue := range issues {
		findings = append(findings, workflow.Finding{Job: name, Message: issue})
	}
	return findings, nil
}

// setLoading flips the per-type loading flag, when the spec has one.
func setLoading(spec *schema.JobSpec, loading bool) {
	switch {
	case spec.Build != nil:
		spec.Build.Loading = loading
	case spec.Deploy != nil:
		spec.Deploy.Loading = loading
	case spec.Scan != nil:
		spec.Scan.Loading = loading
	case spec.Test != nil:
		spec.Test.Loading = loading
	case spec.DBChange != nil:
		spec.DBChange.Loading = loading
	case spec.ConfigChange != nil:
		spec.ConfigChange.Loading = loading
	}
}

// setFetched records a completed fetch, when one succeeded fully.
func setFetched(spec *schema.JobSpec, fetched bool) {
	if !fetched {
		return
	}
	switch {
	case spec.Build != nil:
		spec.Build.Fetched = true
	case spec.Deploy != nil:
		spec.Deploy.Fetched = true
	case spec.Scan != nil:
		spec.Scan.Fetched = true
	case spec.Test != nil:
		spec.Test.Fetched = true
	case spec.DBChange != nil:
		spec.DBChange.Fetched = true
	case spec.ConfigChange != nil:
		spec.ConfigChange.Fetched = true
	}
}
