// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the workflow document model shared by every
// Flightdeck component: the editable configuration tree an operator
// assembles before launching a pipeline run, and the canonical
// submission body the execution backend accepts.
//
// The two halves are deliberately separate type families:
//
//   - Edit-time types ([WorkflowContent], [Stage], [Job], [JobSpec]
//     and the per-type spec payloads) carry everything the workbench
//     needs while a session is open: candidate caches, loading and
//     fetched flags, diff bookkeeping. These fields never reach the
//     backend.
//   - Submission types ([RunRequest], [RunStage], [RunJob] and the
//     per-type submission payloads) enumerate exactly the field set
//     the backend expects. The payload serializer in lib/workflow is
//     the only code that maps one family onto the other.
//
// [JobSpec] is a tagged union: exactly one per-type payload pointer is
// set, matching the job's declared [JobType]. Jobs whose inputs are
// inherited from another job (source "fromjob") name their origin via
// OriginJobName, with the legacy JobName alias kept for preset
// compatibility — OriginJobName wins when both are present.
//
// JSON tags are the wire names fixed by the gateway protocol
// (origin_job_name, exec_stage, service_and_scannings, ...). The same
// tags drive the CBOR encoding used for canonical job snapshots, via
// lib/codec's json-tag fallback.
//
// This package depends on no other Flightdeck packages.
package schema
