// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"bytes"
	"log/slog"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Edit is one adapter's intent to write a job's editable state back
// into the shared document. It carries the revision the edit was
// computed against and whether an empty selection is backed by a
// confirmed-empty candidate computation.
type Edit struct {
	// Job names the job to replace.
	Job string

	// Revision is the document revision of the job the edit was
	// computed from (as returned by Document.Job). A merge whose
	// revision no longer matches is rejected as stale — a newer
	// write already landed.
	Revision uint64

	// The replacement editable state.
	Spec          schema.JobSpec
	Selection     schema.Selection
	Skipped       bool
	RunPolicy     schema.RunPolicy
	MissingSource bool

	// SelectionConfirmed reports that an empty Selection reflects a
	// genuinely empty candidate set rather than enrichment that has
	// not arrived yet. Without it, a merge that would erase a
	// non-empty document selection with an empty one is softened:
	// the existing selection is kept.
	SelectionConfirmed bool
}

// MergeResult describes what a merge did.
type MergeResult struct {
	// Applied is false for no-op merges (the edit matched the
	// last-synced state byte for byte).
	Applied bool

	// Revision is the job's revision after the merge.
	Revision uint64

	// SelectionKept is set when the empty-selection guard fired: the
	// edit's empty selection was discarded in favor of the
	// document's existing non-empty one.
	SelectionKept bool

	// Signature is the job's data signature after the merge.
	// Dependent fromjob jobs recompute when their root's signature
	// moves.
	Signature Signature
}

// Synchronizer is the bidirectional merge layer between adapter edit
// state and the shared document: the one place WorkflowContent is
// mutated.
type Synchronizer struct {
	document *Document
	logger   *slog.Logger
}

// NewSynchronizer wires a synchronizer to its document. The logger
// records guard activations and no-op merges at debug level.
func NewSynchronizer(document *Document, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{document: document, logger: logger}
}

// Merge applies an edit to the document.
//
// Order of decisions, each one load-bearing:
//
//  1. Unknown job: *UnknownJobError.
//  2. Session-immutable fields (type payload wiring, source mode,
//     origin pointers): *ImmutableFieldError.
//  3. No-change detection against the last-synced canonical bytes:
//     a byte-identical edit is a no-op regardless of its revision,
//     which is what makes duplicate delivery harmless.
//  4. Revision check: a changed edit computed against a superseded
//     revision is rejected with *StaleEditError.
//  5. Empty-selection guard: an unconfirmed empty selection never
//     erases an existing non-empty one (the transient-render race).
//  6. Apply: replace the job's editable state by name, bump the
//     revision, store the new canonical bytes.
func (s *Synchronizer) Merge(edit Edit) (MergeResult, error) {
	job := s.document.content.JobNamed(edit.Job)
	if job == nil {
		return MergeResult{}, &UnknownJobError{Job: edit.Job}
	}

	if field := immutableViolation(job, &edit); field != "" {
		return MergeResult{}, &ImmutableFieldError{Job: edit.Job, Field: field}
	}

	candidate := schema.Job{
		Name:          job.Name,
		Type:          job.Type,
		Spec:          edit.Spec,
		Selection:     edit.Selection,
		Skipped:       edit.Skipped,
		RunPolicy:     edit.RunPolicy,
		MissingSource: edit.MissingSource,
	}

	incoming, err := canonicalState(&candidate)
	if err != nil {
		return MergeResult{}, err
	}
	if bytes.Equal(incoming, s.document.snapshots[edit.Job]) {
		s.logger.Debug("merge is a no-op", "job", edit.Job, "revision", s.document.revisions[edit.Job])
		return MergeResult{
			Applied:   false,
			Revision:  s.document.revisions[edit.Job],
			Signature: DataSignature(job),
		}, nil
	}

	if current := s.document.revisions[edit.Job]; edit.Revision != current {
		return MergeResult{}, &StaleEditError{Job: edit.Job, EditRevision: edit.Revision, Revision: current}
	}

	result := MergeResult{Applied: true}
	if candidate.Selection.Empty() && !job.Selection.Empty() && !edit.SelectionConfirmed {
		// The candidate computation has not been confirmed as
		// genuinely empty — likely a render that ran before
		// enrichment resolved. Keep the operator's picks.
		s.logger.Debug("kept existing selection against unconfirmed empty edit", "job", edit.Job)
		candidate.Selection = job.Selection
		result.SelectionKept = true

		incoming, err = canonicalState(&candidate)
		if err != nil {
			return MergeResult{}, err
		}
		if bytes.Equal(incoming, s.document.snapshots[edit.Job]) {
			result.Applied = false
			result.Revision = s.document.revisions[edit.Job]
			result.Signature = DataSignature(job)
			return result, nil
		}
	}

	job.Spec = candidate.Spec
	job.Selection = candidate.Selection
	job.Skipped = candidate.Skipped
	job.RunPolicy = candidate.RunPolicy
	job.MissingSource = candidate.MissingSource

	s.document.revisions[edit.Job]++
	s.document.snapshots[edit.Job] = incoming

	result.Revision = s.document.revisions[edit.Job]
	result.Signature = DataSignature(job)
	return result, nil
}

// immutableViolation names the first session-immutable field the edit
// tries to change, or "" when the edit is shape-preserving.
func immutableViolation(job *schema.Job, edit *Edit) string {
	if edit.Spec.Source != job.Spec.Source {
		return "source"
	}
	if edit.Spec.Origin() != job.Spec.Origin() {
		return "origin_job_name"
	}
	currentVariant, currentOK := job.Spec.Variant()
	editVariant, editOK := edit.Spec.Variant()
	if currentOK != editOK || currentVariant != editVariant {
		return "type"
	}
	return ""
}
