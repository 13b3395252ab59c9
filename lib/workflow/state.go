// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// JobState is a job's position in the editing lifecycle:
//
//	Unconfigured → CandidateComputed → UserConfirmed → Validated → Serialized
//
// Skipped is reachable from anywhere before Serialized and removes
// the job from the Validated/Serialized path. The first three states
// derive from the job's own data; the last two are session
// bookkeeping — the session promotes jobs when validation and
// serialization actually happen.
type JobState string

const (
	StateUnconfigured      JobState = "unconfigured"
	StateCandidateComputed JobState = "candidate_computed"
	StateUserConfirmed     JobState = "user_confirmed"
	StateValidated         JobState = "validated"
	StateSerialized        JobState = "serialized"
	StateSkipped           JobState = "skipped"
)

// DeriveState computes a job's lifecycle state. validated and
// serialized are the session's bookkeeping for whether the job passed
// the most recent validation run and was included in a serialized
// payload.
func DeriveState(job *schema.Job, validated, serialized bool) JobState {
	if job.Skipped || job.RunPolicy == schema.RunPolicySkip {
		return StateSkipped
	}
	if serialized {
		return StateSerialized
	}
	if validated {
		return StateValidated
	}
	if !job.Selection.Empty() || configuredWithoutSelection(job) {
		return StateUserConfirmed
	}
	if hasCandidates(job) {
		return StateCandidateComputed
	}
	return StateUnconfigured
}

// configuredWithoutSelection covers the job types whose confirmation
// does not take the form of a selection list: a db-change with
// statement and connection, an approval chain with approvers on every
// node.
func configuredWithoutSelection(job *schema.Job) bool {
	if spec := job.Spec.DBChange; spec != nil {
		return spec.Statement != "" && spec.Connection != ""
	}
	if spec := job.Spec.Approval; spec != nil && len(spec.Nodes) > 0 {
		for _, node := range spec.Nodes {
			if len(node.Approvers) == 0 {
				return false
			}
		}
		return true
	}
	return false
}

// hasCandidates reports whether any per-type candidate cache is
// populated.
func hasCandidates(job *schema.Job) bool {
	switch {
	case job.Spec.Build != nil:
		return len(job.Spec.Build.Candidates) > 0
	case job.Spec.Deploy != nil:
		return len(job.Spec.Deploy.Candidates) > 0 || len(job.Spec.Deploy.CandidateModules) > 0
	case job.Spec.Scan != nil:
		return len(job.Spec.Scan.Candidates) > 0
	case job.Spec.Test != nil:
		return len(job.Spec.Test.Candidates) > 0
	case job.Spec.ConfigChange != nil:
		return len(job.Spec.ConfigChange.Candidates) > 0
	}
	return false
}
