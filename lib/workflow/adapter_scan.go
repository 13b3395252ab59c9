// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// scanAdapter derives and merges scanning job state. A fromjob scan
// trusts only what its root type exposes — a build root exposes its
// chosen service/module pairs, another scan exposes its confirmed
// picks (see ExposedTargets) — intersected with this job's own
// options. Each candidate carries the scannings the option declares
// available for that module.
type scanAdapter struct{}

func (scanAdapter) Type() schema.JobType { return schema.JobTypeScan }

func (scanAdapter) Candidates(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates {
	spec := job.Spec.Scan
	if spec == nil {
		return Candidates{Confirmed: true}
	}
	return Candidates{
		Targets:   optionTargets(job.Spec.Source, ref, spec.Options),
		Confirmed: true,
	}
}

func (scanAdapter) MergeSelection(candidates Candidates, previous schema.Selection) schema.Selection {
	return schema.Selection{Targets: mergeTargets(candidates.Targets, previous.Targets)}
}

// testAdapter derives and merges test job state. Identical derivation
// shape to scanning, with suites in place of scannings.
type testAdapter struct{}

func (testAdapter) Type() schema.JobType { return schema.JobTypeTest }

func (testAdapter) Candidates(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates {
	spec := job.Spec.Test
	if spec == nil {
		return Candidates{Confirmed: true}
	}
	return Candidates{
		Targets:   optionTargets(job.Spec.Source, ref, spec.Options),
		Confirmed: true,
	}
}

func (testAdapter) MergeSelection(candidates Candidates, previous schema.Selection) schema.Selection {
	return schema.Selection{Targets: mergeTargets(candidates.Targets, previous.Targets)}
}

// optionTargets is the shared scan/test candidate derivation: the
// whole option list for runtime and fixed sources, the upstream
// exposed set intersected with the options for fromjob sources. The
// option's declared scannings and suites are attached so the editor
// can offer them per target.
func optionTargets(source schema.SourceMode, ref RefInfo, options []schema.ServiceModuleOption) []schema.Target {
	byKey := make(map[string]schema.ServiceModuleOption, len(options))
	for _, option := range options {
		byKey[option.Key()] = option
	}

	var targets []schema.Target
	if source == schema.SourceFromJob {
		targets = intersectOptions(ExposedTargets(ref.Root), options)
	} else {
		targets = make([]schema.Target, 0, len(options))
		for _, option := range options {
			targets = append(targets, schema.Target{
				ServiceName: option.ServiceName,
				Module:      option.Module,
			})
		}
	}
	for i := range targets {
		if option, ok := byKey[targets[i].Key()]; ok {
			targets[i].Scannings = option.Scannings
			targets[i].Suites = option.Suites
		}
	}
	return targets
}
