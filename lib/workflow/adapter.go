// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Candidates is what a job could currently select: the per-type
// derivation's output before the operator's prior picks are merged
// back in. Exactly one of the three lists is populated for most job
// types; deploy jobs use Modules for runtime sources and Targets for
// fromjob sources.
type Candidates struct {
	Targets []schema.Target
	Modules []schema.Module
	Items   []schema.ConfigItem

	// Confirmed reports that an empty candidate set is genuinely
	// empty — the derivation ran against complete data, not against
	// enrichment that has not arrived yet. The synchronizer's
	// selection guard trusts emptiness only when this is set.
	Confirmed bool
}

// Empty reports whether the candidate set holds nothing selectable.
func (c Candidates) Empty() bool {
	return len(c.Targets) == 0 && len(c.Modules) == 0 && len(c.Items) == 0
}

// Adapter is the per-job-type edit strategy. One implementation per
// job type, registered in the Registry — the single exhaustive
// dispatch point over job kinds.
//
// Candidates derives what the job could select from the job's own
// option list, the resolved root of its fromjob chain (zero RefInfo
// for runtime/fixed sources), and the environment snapshot. It must
// be usable with incomplete data: missing enrichment yields an
// unconfirmed (possibly empty) candidate set, never an error.
//
// MergeSelection folds the operator's previous picks into a fresh
// candidate set: every previously-chosen item still present among the
// candidates survives, matched by its stable identity key; picks no
// longer valid are dropped.
type Adapter interface {
	Type() schema.JobType
	Candidates(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates
	MergeSelection(candidates Candidates, previous schema.Selection) schema.Selection
}

// Registry holds the adapter for every known job type.
type Registry map[schema.JobType]Adapter

// NewRegistry builds the standard adapter registry. Every type listed
// by schema.KnownJobTypes has an entry; the serializer handles
// unknown types without adapter involvement.
func NewRegistry() Registry {
	adapters := []Adapter{
		buildAdapter{},
		deployAdapter{},
		scanAdapter{},
		testAdapter{},
		dbChangeAdapter{},
		configChangeAdapter{},
		approvalAdapter{},
	}
	registry := make(Registry, len(adapters))
	for _, adapter := range adapters {
		registry[adapter.Type()] = adapter
	}
	return registry
}

// Recompute runs the full adapter cycle for one job against its
// resolved reference and the environment: derive candidates, merge
// the previous selection, and write the results (candidate caches,
// merged selection, missing-source flag) back into job. The job must
// be a private copy — Recompute mutates it. Returns the candidate set
// it derived so callers can feed Confirmed into the synchronizer.
//
// A fromjob job whose chain is broken gets empty confirmed candidates
// and MissingSource set: "no data" is a surfaced condition here, not
// an error. The selection survives the outage untouched; the next
// recompute after the chain heals re-filters it against real
// candidates, so restoring the root restores the picks.
func (r Registry) Recompute(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates {
	adapter, known := r[job.Type]
	if !known {
		return Candidates{}
	}

	if job.Spec.Source == schema.SourceFromJob && ref.Broken() {
		job.MissingSource = true
		setCandidates(job, Candidates{})
		return Candidates{Confirmed: true}
	}
	job.MissingSource = false

	candidates := adapter.Candidates(job, ref, env)
	setCandidates(job, candidates)
	job.Selection = adapter.MergeSelection(candidates, job.Selection)

	// Selected config items may carry operator-edited content the
	// candidate pool never saw; their diff bookkeeping is refreshed
	// here where the environment is in reach.
	if job.Spec.ConfigChange != nil {
		for i := range job.Selection.Items {
			item := &job.Selection.Items[i]
			current, _ := env.ConfigContent(item.Key())
			item.DiffSegments = DiffSegments(current, item.Content)
		}
	}
	return candidates
}

// setCandidates writes the derived candidate lists into the job's
// per-type candidate cache fields.
func setCandidates(job *schema.Job, candidates Candidates) {
	switch {
	case job.Spec.Build != nil:
		job.Spec.Build.Candidates = candidates.Targets
	case job.Spec.Deploy != nil:
		job.Spec.Deploy.Candidates = candidates.Targets
		job.Spec.Deploy.CandidateModules = candidates.Modules
	case job.Spec.Scan != nil:
		job.Spec.Scan.Candidates = candidates.Targets
	case job.Spec.Test != nil:
		job.Spec.Test.Candidates = candidates.Targets
	case job.Spec.ConfigChange != nil:
		job.Spec.ConfigChange.Candidates = candidates.Items
	}
}

// ExposedTargets returns the service/module units a root job exposes
// to fromjob consumers. The per-type trust rules live here: a
// consumer sourced from a build job reads the build's chosen targets;
// from a deploy job, its picked targets or modules; from a scan or
// test job, that job's confirmed picks. Only identity and the
// upstream-resolution markers (repo sync, deployed state) carry over
// — downstream jobs derive their own leaf values.
func ExposedTargets(root *schema.Job) []schema.Target {
	if root == nil {
		return nil
	}
	switch root.Type {
	case schema.JobTypeBuild, schema.JobTypeScan, schema.JobTypeTest:
		targets := make([]schema.Target, 0, len(root.Selection.Targets))
		for _, target := range root.Selection.Targets {
			targets = append(targets, schema.Target{
				ServiceName: target.ServiceName,
				Module:      target.Module,
				RepoSync:    root.Type == schema.JobTypeBuild,
			})
		}
		return targets
	case schema.JobTypeDeploy:
		targets := make([]schema.Target, 0, len(root.Selection.Targets)+len(root.Selection.Modules))
		for _, target := range root.Selection.Targets {
			targets = append(targets, schema.Target{
				ServiceName: target.ServiceName,
				Module:      target.Module,
			})
		}
		for _, module := range root.Selection.Modules {
			targets = append(targets, schema.Target{
				ServiceName: module.ServiceName,
				Module:      module.Module,
			})
		}
		return targets
	}
	return nil
}

// intersectOptions filters the upstream exposed set down to the units
// this job's own option list allows, preserving upstream order.
func intersectOptions(exposed []schema.Target, options []schema.ServiceModuleOption) []schema.Target {
	allowed := make(map[string]schema.ServiceModuleOption, len(options))
	for _, option := range options {
		allowed[option.Key()] = option
	}
	var result []schema.Target
	for _, target := range exposed {
		if _, ok := allowed[target.Key()]; ok {
			result = append(result, target)
		}
	}
	return result
}

// mergeTargets keeps every previous pick still present among the
// candidates, in candidate order, preferring the previous pick's
// field values (it carries the operator's leaf edits).
func mergeTargets(candidates []schema.Target, previous []schema.Target) []schema.Target {
	kept := make(map[string]schema.Target, len(previous))
	for _, target := range previous {
		kept[target.Key()] = target
	}
	var merged []schema.Target
	for _, candidate := range candidates {
		if prior, ok := kept[candidate.Key()]; ok {
			merged = append(merged, prior)
		}
	}
	return merged
}

// mergeModules is mergeTargets for module picks.
func mergeModules(candidates []schema.Module, previous []schema.Module) []schema.Module {
	kept := make(map[string]schema.Module, len(previous))
	for _, module := range previous {
		kept[module.Key()] = module
	}
	var merged []schema.Module
	for _, candidate := range candidates {
		if prior, ok := kept[candidate.Key()]; ok {
			merged = append(merged, prior)
		}
	}
	return merged
}

// mergeItems is mergeTargets for config item picks, keyed by
// group/namespace/data-id.
func mergeItems(candidates []schema.ConfigItem, previous []schema.ConfigItem) []schema.ConfigItem {
	kept := make(map[string]schema.ConfigItem, len(previous))
	for _, item := range previous {
		kept[item.Key()] = item
	}
	var merged []schema.ConfigItem
	for _, candidate := range candidates {
		if prior, ok := kept[candidate.Key()]; ok {
			merged = append(merged, prior)
		}
	}
	return merged
}

// resolveVariables applies the deploy inheritance rule for one
// target: use-latest forces the newest snapshot values; otherwise a
// deployed target takes the environment's override values and an
// undeployed one takes the service defaults. Returns the resolved
// values plus the deployed state that drove the choice.
func resolveVariables(env *schema.EnvironmentSnapshot, key string, useLatest bool) (values []schema.VariableValue, deployed bool) {
	state := env.Module(key)
	if state == nil {
		return nil, false
	}
	if useLatest {
		return state.Latest, state.Deployed
	}
	if state.Deployed {
		return state.Overrides, true
	}
	return state.Defaults, false
}
