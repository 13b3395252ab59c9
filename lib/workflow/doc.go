// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow is the engine that keeps an editable pipeline run
// configuration consistent: reference resolution across fromjob
// chains, candidate derivation and selection merging per job type,
// the single synchronized write path into the shared document, the
// pre-submission rule table, and the deterministic flattening into
// the backend's submission body.
//
// The moving parts, leaves first:
//
//   - [Resolve] follows fromjob origin pointers to the job actually
//     supplying data, bounded by the document's job count; exceeding
//     the bound is a [CycleError].
//   - [ActiveSet] and [ActiveJobs] compute which jobs are currently
//     eligible for display, validation, and submission.
//   - [DataSignature] digests a job's exposed target set so
//     dependents can cheaply detect "upstream changed, recompute".
//   - The [Adapter] family (one per job type, in [NewRegistry])
//     derives candidate targets and merges prior operator picks by
//     stable identity key.
//   - [Document] guards the tree: readers get deep-copied snapshots
//     (lib/codec round-trips), and only the [Synchronizer] writes.
//     Merges are idempotent, revision-checked against stale edits,
//     and guarded against erasing a confirmed selection with a
//     transient empty one.
//   - [Validate] runs the per-type rule table over the active set.
//   - [Serialize] produces the canonical [schema.RunRequest],
//     stripping every edit-time cache and flag.
//
// The package is deliberately free of I/O: enrichment, sessions, and
// transport live in lib/enrich, lib/session, and lib/gateway.
package workflow
