// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"fmt"
	"strings"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Finding is one user-facing validation failure on one job. The first
// finding in document order blocks submission and is shown to the
// operator; later jobs are still checked so every editor can render
// its own validation state.
type Finding struct {
	Job     string
	Message string
}

func (f Finding) String() string {
	return f.Job + ": " + f.Message
}

// Validate runs the per-type rule table over the active set and
// returns every finding in document order. A cyclic fromjob chain is
// returned as an error (*CycleError) — that is an illegal document,
// not an operator mistake.
func Validate(doc *schema.WorkflowContent, stageExecMode bool) ([]Finding, error) {
	var findings []Finding
	for _, job := range ActiveJobs(doc, stageExecMode) {
		ref, err := Resolve(job, doc)
		if err != nil {
			return nil, err
		}
		if job.Spec.Source == schema.SourceFromJob && ref.Broken() {
			findings = append(findings, Finding{
				Job:     job.Name,
				Message: missingSourceMessage(job, ref),
			})
			continue
		}
		if message := validateJob(job); message != "" {
			findings = append(findings, Finding{Job: job.Name, Message: message})
		}
	}
	return findings, nil
}

// missingSourceMessage names why a fromjob chain is unusable.
func missingSourceMessage(job *schema.Job, ref RefInfo) string {
	if ref.RootSkipped {
		return fmt.Sprintf("source job %q is skipped; enable it or skip this job too", ref.Root.Name)
	}
	origin := job.Spec.Origin()
	if origin == "" {
		return "no source job is configured"
	}
	return fmt.Sprintf("source job %q does not exist in this workflow", origin)
}

// validateJob applies one job's type rule. Empty string means the job
// passes. Unknown types always pass — the serializer carries them
// through untouched and the backend owns their semantics.
func validateJob(job *schema.Job) string {
	switch job.Type {
	case schema.JobTypeBuild:
		return validateBuild(job)
	case schema.JobTypeDeploy:
		return validateDeploy(job)
	case schema.JobTypeScan:
		return validatePickedTargets(job, "scanning")
	case schema.JobTypeTest:
		return validatePickedTargets(job, "test target")
	case schema.JobTypeDBChange:
		return validateDBChange(job)
	case schema.JobTypeConfigChange:
		return validateConfigChange(job)
	case schema.JobTypeApproval:
		return validateApproval(job)
	}
	return ""
}

func validateBuild(job *schema.Job) string {
	if len(job.Selection.Targets) == 0 {
		return "select at least one service module to build"
	}
	for _, target := range job.Selection.Targets {
		if target.RepoSync {
			continue
		}
		if !target.CodeRef.Resolved() {
			return fmt.Sprintf("target %s has no branch, tag, or pull request selected", target.Key())
		}
	}
	return ""
}

func validateDeploy(job *schema.Job) string {
	if job.Spec.Source == schema.SourceFromJob {
		if len(job.Selection.Targets) == 0 {
			return "pick at least one target to deploy"
		}
		return ""
	}
	if len(job.Selection.Modules) == 0 {
		return "pick at least one module to deploy"
	}
	return ""
}

func validatePickedTargets(job *schema.Job, noun string) string {
	if len(job.Selection.Targets) == 0 {
		return fmt.Sprintf("select at least one %s", noun)
	}
	return ""
}

func validateDBChange(job *schema.Job) string {
	spec := job.Spec.DBChange
	if spec == nil || strings.TrimSpace(spec.Statement) == "" {
		return "statement text is empty"
	}
	if spec.Connection == "" {
		return "select a database connection"
	}
	return ""
}

func validateConfigChange(job *schema.Job) string {
	if len(job.Selection.Items) == 0 {
		return "select at least one config item"
	}
	return ""
}

func validateApproval(job *schema.Job) string {
	// Fromjob approvals only need an intact chain, which Validate
	// already checked before dispatching here.
	if job.Spec.Source == schema.SourceFromJob {
		return ""
	}
	spec := job.Spec.Approval
	if spec == nil || len(spec.Nodes) == 0 {
		return "approval chain has no nodes"
	}
	for _, node := range spec.Nodes {
		if len(node.Approvers) == 0 {
			kind := "approver"
			if node.Kind == schema.ApprovalNodeGroup {
				kind = "approver group"
			}
			return fmt.Sprintf("node %q needs at least one %s", node.Name, kind)
		}
	}
	return ""
}
