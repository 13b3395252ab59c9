// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// JobKey identifies a job in the active set: type plus name. The type
// is part of the key so adapter handles keyed on stale types are
// garbage-collected rather than reused when a preset reuses a name.
type JobKey struct {
	Type schema.JobType
	Name string
}

// Key returns job's active-set key.
func Key(job *schema.Job) JobKey {
	return JobKey{Type: job.Type, Name: job.Name}
}

// ActiveSet returns the keys of every job currently eligible for
// display, validation, and submission.
//
// In the normal mode a job is active when it is not skipped and its
// run policy is force_run, default, or default_not_run. Under
// stage-execution mode only jobs inside exec_stage=true stages are
// considered, and the policy test relaxes to "anything but skip".
func ActiveSet(doc *schema.WorkflowContent, stageExecMode bool) map[JobKey]struct{} {
	active := make(map[JobKey]struct{})
	for _, job := range ActiveJobs(doc, stageExecMode) {
		active[Key(job)] = struct{}{}
	}
	return active
}

// ActiveJobs returns the active jobs in document order. The pointers
// alias doc, as in WorkflowContent.Jobs.
func ActiveJobs(doc *schema.WorkflowContent, stageExecMode bool) []*schema.Job {
	var active []*schema.Job
	for i := range doc.Stages {
		stage := &doc.Stages[i]
		if stageExecMode && !stage.ExecStage {
			continue
		}
		for j := range stage.Jobs {
			job := &stage.Jobs[j]
			if job.Skipped {
				continue
			}
			if stageExecMode {
				if job.RunPolicy != schema.RunPolicySkip {
					active = append(active, job)
				}
				continue
			}
			switch job.RunPolicy {
			case schema.RunPolicyDefault, schema.RunPolicyForceRun, schema.RunPolicyDefaultNotRun:
				active = append(active, job)
			}
		}
	}
	return active
}
