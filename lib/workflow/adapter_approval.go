// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// approvalAdapter handles approval jobs. There is nothing to derive:
// a runtime approval job's approvers are chosen through directory
// enrichment directly on the spec's nodes, and a fromjob approval job
// only needs its reference chain intact — which Recompute's broken-
// chain handling and the validator already cover.
type approvalAdapter struct{}

func (approvalAdapter) Type() schema.JobType { return schema.JobTypeApproval }

func (approvalAdapter) Candidates(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates {
	return Candidates{Confirmed: true}
}

func (approvalAdapter) MergeSelection(candidates Candidates, previous schema.Selection) schema.Selection {
	return previous
}
