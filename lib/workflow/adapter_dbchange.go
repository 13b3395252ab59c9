// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// dbChangeAdapter derives and merges database-change job state. There
// is no target list to derive — the working set is the statement text
// and a connection. A fromjob db-change inherits both from its root
// when the operator has not typed their own. The adapter tracks a
// content diff between the statement and the connection's last
// applied statement; the segment count is display-only bookkeeping.
type dbChangeAdapter struct{}

func (dbChangeAdapter) Type() schema.JobType { return schema.JobTypeDBChange }

func (dbChangeAdapter) Candidates(job *schema.Job, ref RefInfo, env *schema.EnvironmentSnapshot) Candidates {
	spec := job.Spec.DBChange
	if spec == nil {
		return Candidates{Confirmed: true}
	}

	if job.Spec.Source == schema.SourceFromJob && ref.Root != nil {
		if root := ref.Root.Spec.DBChange; root != nil {
			if spec.Connection == "" {
				spec.Connection = root.Connection
			}
			if spec.Database == "" {
				spec.Database = root.Database
			}
			if spec.Statement == "" {
				spec.Statement = root.Statement
			}
		}
	}

	spec.DiffSegments = DiffSegments(env.LastStatement(spec.Connection), spec.Statement)
	return Candidates{Confirmed: true}
}

func (dbChangeAdapter) MergeSelection(candidates Candidates, previous schema.Selection) schema.Selection {
	// DB-change jobs select nothing list-shaped; the statement and
	// connection live on the spec.
	return schema.Selection{}
}

// DiffSegments diffs two texts and returns the segment count. One
// segment means the texts are identical — the segment count feeding
// the "skip if unchanged" rule, and shown next to db-change and
// config-change content in the editor.
func DiffSegments(current, proposed string) int {
	if current == proposed {
		// diffmatchpatch returns zero segments for two empty texts;
		// pin the "identical means one segment" convention instead.
		return 1
	}
	differ := diffmatchpatch.New()
	return len(differ.DiffMain(current, proposed, false))
}
