// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"

	"github.com/flightdeck-foundation/flightdeck/lib/codec"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Document guards a workflow tree for one editing session. Adapters
// and other readers get deep-copied snapshots and submit edit intents
// through the Synchronizer; nothing else mutates the tree, so a
// render pass can never observe a torn write.
//
// Alongside the tree the document keeps, per job, a monotonic
// revision counter and the canonical bytes of the job's last-synced
// editable state. The revision rejects stale writes; the bytes make
// no-change detection exact.
type Document struct {
	content   schema.WorkflowContent
	revisions map[string]uint64
	snapshots map[string][]byte
}

// editState is the per-job slice of state the synchronizer diffs and
// replaces: everything a session may legally mutate.
type editState struct {
	Spec          schema.JobSpec   `json:"spec"`
	Selection     schema.Selection `json:"selection"`
	Skipped       bool             `json:"skipped"`
	RunPolicy     schema.RunPolicy `json:"run_policy"`
	MissingSource bool             `json:"missing_source"`
}

// NewDocument takes ownership of a deep copy of content. Duplicate
// job names and malformed job envelopes are rejected here — they are
// illegal internal states that must fail loudly at load, not surface
// later as user-facing validation.
func NewDocument(content *schema.WorkflowContent) (*Document, error) {
	document := &Document{
		revisions: make(map[string]uint64),
		snapshots: make(map[string][]byte),
	}
	if err := codec.Roundtrip(content, &document.content); err != nil {
		return nil, fmt.Errorf("copying workflow content: %w", err)
	}

	seen := make(map[string]bool)
	for _, job := range document.content.Jobs() {
		if err := job.Validate(); err != nil {
			return nil, err
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("workflow: duplicate job name %q", job.Name)
		}
		seen[job.Name] = true

		snapshot, err := canonicalState(job)
		if err != nil {
			return nil, err
		}
		document.snapshots[job.Name] = snapshot
	}
	return document, nil
}

// Snapshot returns a deep copy of the current tree. The copy shares
// nothing with the document; callers may read and mutate it freely.
func (d *Document) Snapshot() (*schema.WorkflowContent, error) {
	var copy schema.WorkflowContent
	if err := codec.Roundtrip(&d.content, &copy); err != nil {
		return nil, fmt.Errorf("copying workflow content: %w", err)
	}
	return &copy, nil
}

// Job returns a deep copy of the named job along with its current
// revision. Edits computed from the copy carry the revision back to
// Merge, which rejects them if the job has moved on since.
func (d *Document) Job(name string) (*schema.Job, uint64, error) {
	job := d.content.JobNamed(name)
	if job == nil {
		return nil, 0, &UnknownJobError{Job: name}
	}
	var copy schema.Job
	if err := codec.Roundtrip(job, &copy); err != nil {
		return nil, 0, fmt.Errorf("copying job %q: %w", name, err)
	}
	return &copy, d.revisions[name], nil
}

// Revision returns the named job's current revision counter. Zero for
// never-edited jobs and for names the document does not contain.
func (d *Document) Revision(name string) uint64 {
	return d.revisions[name]
}

// canonicalState returns the deterministic CBOR encoding of the job's
// editable state. Byte equality here is the synchronizer's
// no-change test.
func canonicalState(job *schema.Job) ([]byte, error) {
	state := editState{
		Spec:          job.Spec,
		Selection:     job.Selection,
		Skipped:       job.Skipped,
		RunPolicy:     job.RunPolicy,
		MissingSource: job.MissingSource,
	}
	data, err := codec.Marshal(&state)
	if err != nil {
		return nil, fmt.Errorf("encoding state of job %q: %w", job.Name, err)
	}
	return data, nil
}
