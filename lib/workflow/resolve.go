// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// RefInfo is the result of resolving a job's fromjob chain: the root
// job ultimately supplying data, plus the conditions that make the
// chain unusable. Resolve is a pure function over the document —
// callers re-invoke it whenever an upstream job's data signature
// changes.
type RefInfo struct {
	// Root is the resolved non-fromjob job at the end of the chain.
	// Nil when the job's source is not fromjob, or when the chain
	// breaks on a name the document does not contain.
	Root *schema.Job

	// Missing is set when the chain names a job the document does
	// not contain (including a fromjob spec with no origin at all).
	Missing bool

	// RootSkipped is set when the chain resolves but its root is
	// currently skipped. A skipped root supplies no data; the
	// referencing job must surface this as a missing-source
	// condition, never treat it as an empty set.
	RootSkipped bool
}

// Broken reports whether the chain is unusable: the origin is missing
// or the resolved root is skipped. Only meaningful for fromjob jobs.
func (r RefInfo) Broken() bool {
	return r.Missing || r.RootSkipped
}

// Resolve follows job's origin pointers to the job actually supplying
// its data. Non-fromjob jobs resolve to a zero RefInfo (no root, not
// broken). The walk is bounded by the document's job count: a longer
// chain necessarily revisits a job, and Resolve returns a *CycleError
// — the only error this function produces.
func Resolve(job *schema.Job, doc *schema.WorkflowContent) (RefInfo, error) {
	if job.Spec.Source != schema.SourceFromJob {
		return RefInfo{}, nil
	}

	limit := doc.JobCount()
	current := job
	for hops := 0; hops < limit; hops++ {
		origin := current.Spec.Origin()
		if origin == "" {
			return RefInfo{Missing: true}, nil
		}
		next := doc.JobNamed(origin)
		if next == nil {
			return RefInfo{Missing: true}, nil
		}
		if next.Spec.Source != schema.SourceFromJob {
			return RefInfo{Root: next, RootSkipped: next.Skipped}, nil
		}
		current = next
	}
	return RefInfo{}, &CycleError{Job: job.Name, Limit: limit}
}
