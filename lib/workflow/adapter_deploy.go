// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// deployAdapter derives and merges deploy job state. Runtime sources
// pick modules straight from the option list; fromjob sources deploy
// the targets the upstream job exposes. Either way every candidate
// gets its variable values resolved against the environment snapshot
// by the inheritance rule: deployed modules keep the environment's
// override values, undeployed ones take the service defaults, and an
// explicit use-latest flag forces the newest snapshot values.
type deployAdapter struct{}

func (deployAdapter) Type() schema.JobType { return schema.JobTypeDeploy }

func (deployAdapter) Candidates(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates {
	spec := job.Spec.Deploy
	if spec == nil {
		return Candidates{Confirmed: true}
	}

	// use-latest is a per-target operator choice; carry it from the
	// previous selection so re-derivation resolves with it.
	useLatest := make(map[string]bool)
	for _, target := range job.Selection.Targets {
		useLatest[target.Key()] = target.UseLatest
	}
	for _, module := range job.Selection.Modules {
		useLatest[module.Key()] = module.UseLatest
	}

	if job.Spec.Source == schema.SourceFromJob {
		targets := intersectOptions(ExposedTargets(ref.Root), spec.Options)
		for i := range targets {
			key := targets[i].Key()
			targets[i].UseLatest = useLatest[key]
			targets[i].Variables, targets[i].Deployed = resolveVariables(env, key, useLatest[key])
		}
		return Candidates{Targets: targets, Confirmed: true}
	}

	modules := make([]schema.Module, 0, len(spec.Options))
	for _, option := range spec.Options {
		module := schema.Module{
			ServiceName: option.ServiceName,
			Module:      option.Module,
			UseLatest:   useLatest[option.Key()],
		}
		module.Variables, module.Deployed = resolveVariables(env, option.Key(), module.UseLatest)
		modules = append(modules, module)
	}
	return Candidates{Modules: modules, Confirmed: true}
}

func (deployAdapter) MergeSelection(candidates Candidates, previous schema.Selection) schema.Selection {
	merged := schema.Selection{
		Targets: mergeTargets(candidates.Targets, previous.Targets),
		Modules: mergeModules(candidates.Modules, previous.Modules),
	}

	// Kept picks take the candidate's freshly resolved variables:
	// the environment may have moved since the pick was made, and
	// variable values are derived state, not an operator edit.
	targetVariables := make(map[string]schema.Target, len(candidates.Targets))
	for _, candidate := range candidates.Targets {
		targetVariables[candidate.Key()] = candidate
	}
	for i := range merged.Targets {
		if candidate, ok := targetVariables[merged.Targets[i].Key()]; ok {
			merged.Targets[i].Variables = candidate.Variables
			merged.Targets[i].Deployed = candidate.Deployed
		}
	}
	moduleVariables := make(map[string]schema.Module, len(candidates.Modules))
	for _, candidate := range candidates.Modules {
		moduleVariables[candidate.Key()] = candidate
	}
	for i := range merged.Modules {
		if candidate, ok := moduleVariables[merged.Modules[i].Key()]; ok {
			merged.Modules[i].Variables = candidate.Variables
			merged.Modules[i].Deployed = candidate.Deployed
		}
	}
	return merged
}
