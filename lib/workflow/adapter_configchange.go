// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// configChangeAdapter derives and merges config-change job state.
// Candidates come from the spec's authored or enrichment-fetched item
// cache, filtered to the job's group when one is set. Every candidate
// gets its diff segment count refreshed against the environment's
// current content; a pick whose item left the candidate set is
// dropped by the merge — which is exactly how a selection invalidated
// by stage-execution filtering resets to empty.
type configChangeAdapter struct{}

func (configChangeAdapter) Type() schema.JobType { return schema.JobTypeConfigChange }

func (configChangeAdapter) Candidates(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates {
	spec := job.Spec.ConfigChange
	if spec == nil {
		return Candidates{Confirmed: true}
	}

	// Fromjob config-change: the root's confirmed items are the pool
	// instead of this job's own cache.
	pool := spec.Candidates
	confirmed := spec.Fetched || len(pool) > 0
	if job.Spec.Source == schema.SourceFromJob && ref.Root != nil {
		pool = ref.Root.Selection.Items
		confirmed = true
	}

	var items []schema.ConfigItem
	for _, item := range pool {
		if spec.Group != "" && item.Group != spec.Group {
			continue
		}
		current, _ := env.ConfigContent(item.Key())
		item.DiffSegments = DiffSegments(current, item.Content)
		items = append(items, item)
	}
	return Candidates{Items: items, Confirmed: confirmed}
}

func (configChangeAdapter) MergeSelection(candidates Candidates, previous schema.Selection) schema.Selection {
	merged := mergeItems(candidates.Items, previous.Items)

	// A kept pick's content is the operator's edit; its diff count
	// is derived and must track the candidate's fresh computation
	// only when the content still matches.
	byKey := make(map[string]schema.ConfigItem, len(candidates.Items))
	for _, candidate := range candidates.Items {
		byKey[candidate.Key()] = candidate
	}
	for i := range merged {
		candidate, ok := byKey[merged[i].Key()]
		if ok && candidate.Content == merged[i].Content {
			merged[i].DiffSegments = candidate.DiffSegments
		}
	}
	return schema.Selection{Items: merged}
}
