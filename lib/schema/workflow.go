// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
)

// JobType identifies the kind of work a job performs. The values are
// protocol constants — they appear in preset documents and in the
// submission body, so changing them breaks gateway compatibility.
type JobType string

const (
	// JobTypeBuild compiles one or more service modules from a code
	// reference (branch, tag, or pull request set).
	JobTypeBuild JobType = "build"

	// JobTypeDeploy rolls built modules out to an environment,
	// carrying per-target variable values.
	JobTypeDeploy JobType = "deploy"

	// JobTypeScan runs static or security scannings over service
	// modules, usually the ones a build job produced.
	JobTypeScan JobType = "scanning"

	// JobTypeTest runs test suites over service modules.
	JobTypeTest JobType = "test"

	// JobTypeDBChange applies a reviewed SQL statement to a selected
	// database connection.
	JobTypeDBChange JobType = "db_change"

	// JobTypeConfigChange pushes new values for selected
	// configuration items into an environment.
	JobTypeConfigChange JobType = "config_change"

	// JobTypeApproval gates the run on sign-off from configured
	// approvers.
	JobTypeApproval JobType = "approval"
)

// KnownJobTypes returns the job types this code understands, in the
// order the edit adapters register them. Jobs with other types pass
// through serialization untouched (forward compatibility).
func KnownJobTypes() []JobType {
	return []JobType{
		JobTypeBuild,
		JobTypeDeploy,
		JobTypeScan,
		JobTypeTest,
		JobTypeDBChange,
		JobTypeConfigChange,
		JobTypeApproval,
	}
}

// Known reports whether t is a job type this code understands.
func (t JobType) Known() bool {
	switch t {
	case JobTypeBuild, JobTypeDeploy, JobTypeScan, JobTypeTest,
		JobTypeDBChange, JobTypeConfigChange, JobTypeApproval:
		return true
	}
	return false
}

// SourceMode declares where a job's working set comes from.
type SourceMode string

const (
	// SourceRuntime means the operator chooses the job's inputs now,
	// in this session.
	SourceRuntime SourceMode = "runtime"

	// SourceFromJob means the job inherits its working set from
	// another job, named by OriginJobName. Chains are allowed: the
	// origin may itself be a fromjob job.
	SourceFromJob SourceMode = "fromjob"

	// SourceFixed means the inputs were preconfigured when the
	// preset was authored and are locked for the session.
	SourceFixed SourceMode = "fixed"
)

// Valid reports whether m is one of the three defined source modes.
func (m SourceMode) Valid() bool {
	return m == SourceRuntime || m == SourceFromJob || m == SourceFixed
}

// RunPolicy controls whether a job participates in the run. The empty
// string is the normal case: run unless skipped.
type RunPolicy string

const (
	// RunPolicyDefault is the unset policy: the job runs unless its
	// Skipped flag is set.
	RunPolicyDefault RunPolicy = ""

	// RunPolicyForceRun runs the job even when derived rules (like
	// the config-change no-op detection) would otherwise skip it.
	RunPolicyForceRun RunPolicy = "force_run"

	// RunPolicyDefaultNotRun marks a job that defaults to not
	// running but stays eligible — the operator can still enable it.
	RunPolicyDefaultNotRun RunPolicy = "default_not_run"

	// RunPolicySkip excludes the job from the run entirely.
	RunPolicySkip RunPolicy = "skip"
)

// Valid reports whether p is one of the four defined run policies.
func (p RunPolicy) Valid() bool {
	return p == RunPolicyDefault || p == RunPolicyForceRun ||
		p == RunPolicyDefaultNotRun || p == RunPolicySkip
}

// WorkflowContent is the editable configuration tree for one pipeline
// run: an ordered list of stages, each holding an ordered list of
// jobs. A preset fetch populates it at session start; the document
// shape (stages, job names, job types, source wiring) is fixed from
// then on — only selections, skip state, run policies, and per-type
// leaf values mutate during editing.
type WorkflowContent struct {
	// Name is the workflow this document instantiates (e.g.,
	// "release-train"). Set by the preset.
	Name string `json:"name,omitempty"`

	// Project is the owning project identifier. Set by the preset.
	Project string `json:"project,omitempty"`

	// ApprovalTicket is the optional change-management ticket this
	// run executes under. Carried through to submission untouched.
	ApprovalTicket string `json:"approval_ticket,omitempty"`

	// Stages is the ordered stage list. At least one stage with at
	// least one job is required for a submittable document.
	Stages []Stage `json:"stages"`
}

// Stage is an ordered group of jobs.
type Stage struct {
	// Name is the stage's display name (e.g., "Build", "Rollout").
	Name string `json:"name"`

	// ExecStage marks stages that participate when the run is
	// submitted in stage-execution mode. Stages without it are
	// configuration-only under that mode.
	ExecStage bool `json:"exec_stage,omitempty"`

	// Jobs is the ordered job list.
	Jobs []Job `json:"jobs"`
}

// Job is one configurable unit of a pipeline run. Names are unique
// across the whole document, not just within a stage — fromjob origin
// pointers reference jobs by bare name.
type Job struct {
	// Name uniquely identifies the job within the document.
	Name string `json:"name"`

	// Type selects the job's behavior and which JobSpec payload is
	// populated. Unknown types are tolerated: such jobs are carried
	// through serialization unchanged.
	Type JobType `json:"type"`

	// Skipped excludes the job from display, validation, and
	// submission. A skipped job never appears in the active set.
	Skipped bool `json:"skipped,omitempty"`

	// RunPolicy refines participation for non-skipped jobs; see the
	// RunPolicy constants.
	RunPolicy RunPolicy `json:"run_policy,omitempty"`

	// Spec is the per-type configuration payload.
	Spec JobSpec `json:"spec"`

	// Selection holds the operator's confirmed picks: the subset of
	// candidate targets, modules, or config items this job will act
	// on.
	Selection Selection `json:"selection"`

	// MissingSource is set when the job's fromjob chain does not
	// resolve to a usable root (the origin is absent, or the root
	// job is skipped). Edit-time state: surfaced to the operator and
	// checked by validation, stripped at serialization.
	MissingSource bool `json:"missing_source,omitempty"`
}

// JobSpec is the tagged union of per-type job payloads. Exactly one
// payload pointer must be set for known job types, matching the job's
// declared Type. Unknown job types leave every pointer nil and carry
// their payload in Extra.
type JobSpec struct {
	// Source declares where this job's working set comes from; see
	// the SourceMode constants.
	Source SourceMode `json:"source"`

	// OriginJobName names the job supplying this job's inputs when
	// Source is "fromjob". The named job may itself be a fromjob
	// job; resolution follows the chain to its root.
	OriginJobName string `json:"origin_job_name,omitempty"`

	// JobName is the legacy alias for OriginJobName, still emitted
	// by older preset generators. When both are present,
	// OriginJobName wins. Read only by reference resolution — new
	// code must not extend the alias to other uses.
	JobName string `json:"job_name,omitempty"`

	// Exactly one of the following is set for known job types.
	Build        *BuildSpec        `json:"build,omitempty"`
	Deploy       *DeploySpec       `json:"deploy,omitempty"`
	Scan         *ScanSpec         `json:"scanning,omitempty"`
	Test         *TestSpec         `json:"test,omitempty"`
	DBChange     *DBChangeSpec     `json:"db_change,omitempty"`
	ConfigChange *ConfigChangeSpec `json:"config_change,omitempty"`
	Approval     *ApprovalSpec     `json:"approval,omitempty"`

	// Extra carries the payload of job types this code does not
	// understand. Serialization passes it through unchanged so that
	// a newer backend's job kinds survive an older workbench.
	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// Origin returns the effective origin job name for a fromjob spec:
// OriginJobName when set, otherwise the legacy JobName alias. Empty
// when neither is set.
func (s *JobSpec) Origin() string {
	if s.OriginJobName != "" {
		return s.OriginJobName
	}
	return s.JobName
}

// Variant returns the job type whose payload pointer is set. ok is
// false when no pointer is set (unknown job types) or when more than
// one is set (a malformed document — callers should have rejected it
// at load time).
func (s *JobSpec) Variant() (jobType JobType, ok bool) {
	count := 0
	if s.Build != nil {
		jobType, count = JobTypeBuild, count+1
	}
	if s.Deploy != nil {
		jobType, count = JobTypeDeploy, count+1
	}
	if s.Scan != nil {
		jobType, count = JobTypeScan, count+1
	}
	if s.Test != nil {
		jobType, count = JobTypeTest, count+1
	}
	if s.DBChange != nil {
		jobType, count = JobTypeDBChange, count+1
	}
	if s.ConfigChange != nil {
		jobType, count = JobTypeConfigChange, count+1
	}
	if s.Approval != nil {
		jobType, count = JobTypeApproval, count+1
	}
	if count != 1 {
		return "", false
	}
	return jobType, true
}

// VariantCount returns how many payload pointers are set. A
// well-formed spec has exactly one for known job types and zero for
// unknown ones.
func (s *JobSpec) VariantCount() int {
	count := 0
	for _, set := range []bool{
		s.Build != nil, s.Deploy != nil, s.Scan != nil, s.Test != nil,
		s.DBChange != nil, s.ConfigChange != nil, s.Approval != nil,
	} {
		if set {
			count++
		}
	}
	return count
}

// JobCount returns the total number of jobs across all stages. The
// reference resolver uses this as the walk bound: any fromjob chain
// longer than the job count must contain a cycle.
func (w *WorkflowContent) JobCount() int {
	count := 0
	for i := range w.Stages {
		count += len(w.Stages[i].Jobs)
	}
	return count
}

// Jobs returns pointers to every job in document order. The pointers
// alias the document — callers that must not mutate shared state
// should work on a deep copy (lib/workflow's Document hands those
// out).
func (w *WorkflowContent) Jobs() []*Job {
	jobs := make([]*Job, 0, w.JobCount())
	for i := range w.Stages {
		for j := range w.Stages[i].Jobs {
			jobs = append(jobs, &w.Stages[i].Jobs[j])
		}
	}
	return jobs
}

// JobNamed returns the job with the given name, or nil when the
// document has no such job.
func (w *WorkflowContent) JobNamed(name string) *Job {
	for i := range w.Stages {
		for j := range w.Stages[i].Jobs {
			if w.Stages[i].Jobs[j].Name == name {
				return &w.Stages[i].Jobs[j]
			}
		}
	}
	return nil
}

// Validate checks the job's envelope for internal consistency:
// a known type must have exactly its own payload populated, and the
// source mode and run policy must be defined values. Returns an error
// describing the first problem found. Full-document structural
// validation (unique names, resolvable origins) lives in
// lib/workflowdef.
func (j *Job) Validate() error {
	if j.Name == "" {
		return fmt.Errorf("job: name is required")
	}
	if !j.Spec.Source.Valid() {
		return fmt.Errorf("job %q: unknown source mode %q", j.Name, j.Spec.Source)
	}
	if !j.RunPolicy.Valid() {
		return fmt.Errorf("job %q: unknown run policy %q", j.Name, j.RunPolicy)
	}
	if j.Spec.Source == SourceFromJob && j.Spec.Origin() == "" {
		return fmt.Errorf("job %q: source is fromjob but no origin job is named", j.Name)
	}
	if !j.Type.Known() {
		if j.Spec.VariantCount() != 0 {
			return fmt.Errorf("job %q: unknown type %q must not populate a typed spec payload", j.Name, j.Type)
		}
		return nil
	}
	variant, ok := j.Spec.Variant()
	if !ok {
		return fmt.Errorf("job %q: type %q requires exactly one spec payload, got %d", j.Name, j.Type, j.Spec.VariantCount())
	}
	if variant != j.Type {
		return fmt.Errorf("job %q: declared type %q but spec payload is %q", j.Name, j.Type, variant)
	}
	return nil
}
