// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/workflow"
)

// EditJob applies an operator edit to one job: apply receives a deep
// copy of the job's current state computed at revision, mutates it,
// and the session recomputes candidates, merges the result through
// the synchronizer, and refreshes any fromjob jobs whose root
// signature moved. The revision must be the one the caller read the
// job at — a stale revision is rejected with *workflow.StaleEditError.
func (s *Session) EditJob(name string, revision uint64, apply func(*schema.Job)) (workflow.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, current, err := s.document.Job(name)
	if err != nil {
		return workflow.MergeResult{}, err
	}
	if revision != current {
		return workflow.MergeResult{}, &workflow.StaleEditError{Job: name, EditRevision: revision, Revision: current}
	}

	apply(job)
	return s.mergeRecomputedLocked(job, revision)
}

// ToggleSkip sets a job's skipped flag. Skipping a job that other
// jobs draw from flips their missing-source state, so dependents are
// refreshed like on any other data change.
func (s *Session) ToggleSkip(name string, skipped bool) (workflow.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, revision, err := s.document.Job(name)
	if err != nil {
		return workflow.MergeResult{}, err
	}
	job.Skipped = skipped
	return s.mergeRecomputedLocked(job, revision)
}

// SetRunPolicy changes a job's run policy.
func (s *Session) SetRunPolicy(name string, policy schema.RunPolicy) (workflow.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !policy.Valid() {
		return workflow.MergeResult{}, fmt.Errorf("unknown run policy %q", policy)
	}
	job, revision, err := s.document.Job(name)
	if err != nil {
		return workflow.MergeResult{}, err
	}
	job.RunPolicy = policy
	return s.mergeRecomputedLocked(job, revision)
}

// mergeRecomputedLocked runs the adapter cycle over the (already
// mutated) job copy, merges it at the given revision, and handles the
// bookkeeping an applied merge entails. Callers hold the mutex.
func (s *Session) mergeRecomputedLocked(job *schema.Job, revision uint64) (workflow.MergeResult, error) {
	candidates, err := s.recomputeLocked(job)
	if err != nil {
		return workflow.MergeResult{}, err
	}

	result, err := s.synchronizer.Merge(workflow.Edit{
		Job:                job.Name,
		Revision:           revision,
		Spec:               job.Spec,
		Selection:          job.Selection,
		Skipped:            job.Skipped,
		RunPolicy:          job.RunPolicy,
		MissingSource:      job.MissingSource,
		SelectionConfirmed: candidates.Confirmed,
	})
	if err != nil {
		return workflow.MergeResult{}, err
	}

	if result.Applied {
		s.afterAppliedLocked(job.Name, result)
	}
	s.touchLocked()
	return result, nil
}

// recomputeLocked resolves the job's fromjob chain against the
// current document and runs the adapter recompute over the job copy.
func (s *Session) recomputeLocked(job *schema.Job) (workflow.Candidates, error) {
	snapshot, err := s.document.Snapshot()
	if err != nil {
		return workflow.Candidates{}, err
	}
	ref, err := workflow.Resolve(snapshot.JobNamed(job.Name), snapshot)
	if err != nil {
		return workflow.Candidates{}, err
	}
	return s.registry.Recompute(job, ref, s.env), nil
}

// afterAppliedLocked clears lifecycle bookkeeping for a changed job
// and, when its data signature moved, refreshes every fromjob job
// that resolves to it.
func (s *Session) afterAppliedLocked(name string, result workflow.MergeResult) {
	delete(s.validated, name)
	delete(s.serialized, name)

	previous := s.signatures[name]
	s.signatures[name] = result.Signature
	if previous == result.Signature {
		return
	}
	if err := s.refreshDependentsLocked(name); err != nil {
		s.logger.Error("dependent refresh failed", "job", name, "error", err)
	}
}

// refreshDependentsLocked recomputes every fromjob job whose chain
// resolves to root. A refresh that changes a dependent's signature
// does not cascade further: dependents are never roots for other
// chains (resolution always walks to a non-fromjob job).
func (s *Session) refreshDependentsLocked(root string) error {
	snapshot, err := s.document.Snapshot()
	if err != nil {
		return err
	}
	for _, job := range snapshot.Jobs() {
		if job.Name == root || job.Spec.Source != schema.SourceFromJob {
			continue
		}
		ref, err := workflow.Resolve(job, snapshot)
		if err != nil {
			return err
		}
		resolvesToRoot := ref.Root != nil && ref.Root.Name == root
		// A chain that just broke (root skipped, for instance) also
		// needs its missing-source flag refreshed; recompute whenever
		// the chain's first hop names the root too.
		if !resolvesToRoot && job.Spec.Origin() != root {
			continue
		}

		jobCopy, revision, err := s.document.Job(job.Name)
		if err != nil {
			return err
		}
		candidates := s.registry.Recompute(jobCopy, ref, s.env)
		result, err := s.synchronizer.Merge(workflow.Edit{
			Job:                jobCopy.Name,
			Revision:           revision,
			Spec:               jobCopy.Spec,
			Selection:          jobCopy.Selection,
			Skipped:            jobCopy.Skipped,
			RunPolicy:          jobCopy.RunPolicy,
			MissingSource:      jobCopy.MissingSource,
			SelectionConfirmed: candidates.Confirmed,
		})
		if err != nil {
			return fmt.Errorf("refreshing %s: %w", jobCopy.Name, err)
		}
		if result.Applied {
			delete(s.validated, jobCopy.Name)
			delete(s.serialized, jobCopy.Name)
			s.signatures[jobCopy.Name] = result.Signature
		}
	}
	return nil
}

// recomputeAllLocked runs the initial candidate computation over
// every job in document order and records starting signatures.
func (s *Session) recomputeAllLocked() error {
	snapshot, err := s.document.Snapshot()
	if err != nil {
		return err
	}
	for _, job := range snapshot.Jobs() {
		jobCopy, revision, err := s.document.Job(job.Name)
		if err != nil {
			return err
		}
		if _, err := s.mergeRecomputedLockedInit(jobCopy, revision); err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
	}
	return nil
}

// mergeRecomputedLockedInit is mergeRecomputedLocked without the
// dependent cascade: the initial pass visits every job anyway, and
// cascading during it would merge against moving revisions.
func (s *Session) mergeRecomputedLockedInit(job *schema.Job, revision uint64) (workflow.MergeResult, error) {
	candidates, err := s.recomputeLocked(job)
	if err != nil {
		return workflow.MergeResult{}, err
	}
	result, err := s.synchronizer.Merge(workflow.Edit{
		Job:                job.Name,
		Revision:           revision,
		Spec:               job.Spec,
		Selection:          job.Selection,
		Skipped:            job.Skipped,
		RunPolicy:          job.RunPolicy,
		MissingSource:      job.MissingSource,
		SelectionConfirmed: candidates.Confirmed,
	})
	if err != nil {
		return workflow.MergeResult{}, err
	}
	s.signatures[job.Name] = result.Signature
	return result, nil
}
