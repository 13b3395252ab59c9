// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import "fmt"

// CycleError reports a fromjob origin chain that never reaches a
// non-fromjob root. This is a programmer-visible fault, not a
// user-facing validation message: a preset with a cycle is malformed
// at the source and should fail loudly during development, never be
// presented to an operator as something to fix.
type CycleError struct {
	// Job is the job whose resolution exceeded the walk bound.
	Job string

	// Limit is the bound that was exceeded: the document's total job
	// count. Any chain longer than that revisits a job.
	Limit int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("workflow: origin chain from job %q exceeds %d hops: cycle in fromjob references", e.Job, e.Limit)
}

// UnknownJobError reports an operation addressed to a job name the
// document does not contain.
type UnknownJobError struct {
	Job string
}

func (e *UnknownJobError) Error() string {
	return fmt.Sprintf("workflow: no job named %q in document", e.Job)
}

// StaleEditError reports a synchronizer merge rejected because the
// edit was computed against a document revision that has since been
// superseded. The caller should re-read the job and recompute.
type StaleEditError struct {
	Job          string
	EditRevision uint64
	Revision     uint64
}

func (e *StaleEditError) Error() string {
	return fmt.Sprintf("workflow: stale edit for job %q: computed against revision %d, document is at %d", e.Job, e.EditRevision, e.Revision)
}

// ImmutableFieldError reports an edit that attempted to change a
// field fixed at session start (job type, source mode, or origin
// wiring). Document shape is established by the preset; the engine
// only ever mutates selections, skip state, run policies, and
// per-type leaf values.
type ImmutableFieldError struct {
	Job   string
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("workflow: job %q: field %q is immutable for the session", e.Job, e.Field)
}
