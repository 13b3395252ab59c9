// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// buildAdapter derives and merges build job state. Runtime and fixed
// sources offer every option as a candidate; fromjob sources build
// only what the upstream job exposes, restricted to this job's own
// option list, with repo sync inherited — the code reference was
// already resolved upstream.
type buildAdapter struct{}

func (buildAdapter) Type() schema.JobType { return schema.JobTypeBuild }

func (buildAdapter) Candidates(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates {
	spec := job.Spec.Build
	if spec == nil {
		return Candidates{Confirmed: true}
	}

	if job.Spec.Source == schema.SourceFromJob {
		return Candidates{
			Targets:   intersectOptions(ExposedTargets(ref.Root), spec.Options),
			Confirmed: true,
		}
	}

	// Runtime/fixed: every authored option is buildable. The code
	// reference starts empty; enrichment fills the pick lists and
	// the operator chooses.
	targets := make([]schema.Target, 0, len(spec.Options))
	for _, option := range spec.Options {
		targets = append(targets, schema.Target{
			ServiceName: option.ServiceName,
			Module:      option.Module,
		})
	}
	return Candidates{Targets: targets, Confirmed: true}
}

func (buildAdapter) MergeSelection(candidates Candidates, previous schema.Selection) schema.Selection {
	merged := mergeTargets(candidates.Targets, previous.Targets)

	// Fromjob-derived candidates carry repo sync; make sure a pick
	// kept from before the upstream change inherits it.
	sync := make(map[string]bool, len(candidates.Targets))
	for _, candidate := range candidates.Targets {
		sync[candidate.Key()] = candidate.RepoSync
	}
	for i := range merged {
		if sync[merged[i].Key()] {
			merged[i].RepoSync = true
		}
	}
	return schema.Selection{Targets: merged}
}
