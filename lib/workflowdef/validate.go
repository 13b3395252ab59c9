// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflowdef

import (
	"fmt"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Validate checks a WorkflowContent for structural issues. Returns a
// list of human-readable issue descriptions. An empty list means the
// document is structurally sound and safe to hand to lib/workflow.
//
// Structural checks include:
//   - At least one stage with at least one job
//   - Each stage must have a non-empty Name
//   - Job names must be unique across the whole document (fromjob
//     origin pointers reference jobs by bare name)
//   - Each job passes its envelope check: known types carry exactly
//     their own spec payload, source mode and run policy are defined
//     values, fromjob jobs name an origin
//   - Every fromjob origin names a job that exists in the document
//   - No fromjob chain loops back on itself
//
// These are authoring-time checks: they reject documents no amount of
// operator editing could make submittable. Runtime readiness (empty
// selections, unresolved code references) is lib/workflow's
// validator's job.
func Validate(content *schema.WorkflowContent) []string {
	var issues []string

	if len(content.Stages) == 0 {
		issues = append(issues, "workflow has no stages (at least one stage with one job is required)")
	}

	// Job names must be unique document-wide, not just per stage.
	// A duplicate would make fromjob origin resolution ambiguous.
	jobNames := make(map[string]string, content.JobCount())
	for stageIndex, stage := range content.Stages {
		stagePrefix := fmt.Sprintf("stages[%d]", stageIndex)
		if stage.Name == "" {
			issues = append(issues, fmt.Sprintf("%s: name is required", stagePrefix))
		} else {
			stagePrefix = fmt.Sprintf("%s %q", stagePrefix, stage.Name)
		}

		if len(stage.Jobs) == 0 {
			issues = append(issues, fmt.Sprintf("%s: stage has no jobs", stagePrefix))
		}

		for jobIndex := range stage.Jobs {
			job := &stage.Jobs[jobIndex]
			prefix := fmt.Sprintf("%s jobs[%d]", stagePrefix, jobIndex)
			if job.Name != "" {
				prefix = fmt.Sprintf("%s %q", prefix, job.Name)
				if firstAt, exists := jobNames[job.Name]; exists {
					issues = append(issues, fmt.Sprintf(
						"%s: duplicate job name (first used at %s)", prefix, firstAt,
					))
				} else {
					jobNames[job.Name] = prefix
				}
			}

			if err := job.Validate(); err != nil {
				issues = append(issues, fmt.Sprintf("%s: %v", prefix, err))
				continue
			}

			issues = append(issues, validateOrigin(job, prefix, content)...)
		}
	}

	return issues
}

// validateOrigin checks a fromjob job's origin pointer: the named job
// must exist, and following the chain of origins must terminate
// rather than loop. The walk is bounded by the document's job count —
// any chain longer than that revisits a job.
func validateOrigin(job *schema.Job, prefix string, content *schema.WorkflowContent) []string {
	if job.Spec.Source != schema.SourceFromJob {
		return nil
	}

	origin := job.Spec.Origin()
	if content.JobNamed(origin) == nil {
		return []string{fmt.Sprintf("%s: origin job %q does not exist", prefix, origin)}
	}

	current := job
	for n := 0; n < content.JobCount(); n++ {
		if current.Spec.Source != schema.SourceFromJob {
			return nil
		}
		next := content.JobNamed(current.Spec.Origin())
		if next == nil {
			// The broken link is reported when that job itself is
			// validated; from here the chain simply ends.
			return nil
		}
		current = next
	}
	return []string{fmt.Sprintf("%s: fromjob chain through %q never reaches a non-fromjob root (cycle)", prefix, origin)}
}
