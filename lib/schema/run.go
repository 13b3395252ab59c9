// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "encoding/json"

// RunRequest is the canonical submission body: the deterministic
// flattening of an edited WorkflowContent that the execution backend
// accepts. Its field set is exactly what the backend reads — no
// candidate caches, no loading flags, no edit-time bookkeeping. The
// payload serializer in lib/workflow is the only producer.
type RunRequest struct {
	Name           string `json:"name"`
	Project        string `json:"project"`
	ApprovalTicket string `json:"approval_ticket,omitempty"`

	Stages []RunStage `json:"stages"`
}

// RunStage is one stage of the submission body.
type RunStage struct {
	Name      string   `json:"name"`
	ExecStage bool     `json:"exec_stage,omitempty"`
	Jobs      []RunJob `json:"jobs"`
}

// RunJob is one job of the submission body. Exactly one per-type
// payload is set for known job types; unknown types carry their
// original payload in Extra, passed through unmodified.
type RunJob struct {
	Name      string    `json:"name"`
	Type      JobType   `json:"type"`
	Skipped   bool      `json:"skipped"`
	RunPolicy RunPolicy `json:"run_policy,omitempty"`

	Source        SourceMode `json:"source"`
	OriginJobName string     `json:"origin_job_name,omitempty"`

	Build        *RunBuild        `json:"build,omitempty"`
	Deploy       *RunDeploy       `json:"deploy,omitempty"`
	Scan         *RunScan         `json:"scanning,omitempty"`
	Test         *RunTest         `json:"test,omitempty"`
	DBChange     *RunDBChange     `json:"db_change,omitempty"`
	ConfigChange *RunConfigChange `json:"config_change,omitempty"`
	Approval     *RunApproval     `json:"approval,omitempty"`

	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// RunBuild is a build job's submission payload.
type RunBuild struct {
	// Services are the confirmed build targets with their normalized
	// code references.
	Services []RunBuildService `json:"services"`
}

// RunBuildService is one build target in the submission body. The
// branch-or-tag radio has collapsed: at most one of Branch and Tag is
// non-empty. Perforce identifiers are numbers, defaulting to 0.
type RunBuildService struct {
	ServiceName string `json:"service_name"`
	Module      string `json:"module"`

	Branch       string `json:"branch,omitempty"`
	Tag          string `json:"tag,omitempty"`
	PullRequests []int  `json:"pull_requests,omitempty"`

	Changelist int `json:"changelist,omitempty"`
	Shelve     int `json:"shelve,omitempty"`

	RepoSync bool `json:"repo_sync,omitempty"`
}

// RunDeploy is a deploy job's submission payload.
type RunDeploy struct {
	Environment string `json:"environment,omitempty"`

	// Services are the confirmed deploy units with their resolved
	// variable values.
	Services []RunDeployService `json:"services"`
}

// RunDeployService is one deploy unit in the submission body.
type RunDeployService struct {
	ServiceName string          `json:"service_name"`
	Module      string          `json:"module"`
	Variables   []VariableValue `json:"variables,omitempty"`
}

// RunScan is a scanning job's submission payload. The wire name
// service_and_scannings is fixed by the backend protocol.
type RunScan struct {
	ServiceAndScannings []RunScanService `json:"service_and_scannings"`
}

// RunScanService is one scan target with its enabled scannings.
type RunScanService struct {
	ServiceName string   `json:"service_name"`
	Module      string   `json:"module"`
	Scannings   []string `json:"scannings,omitempty"`
}

// RunTest is a test job's submission payload.
type RunTest struct {
	ServiceAndSuites []RunTestService `json:"service_and_suites"`
}

// RunTestService is one test target with its enabled suites.
type RunTestService struct {
	ServiceName string   `json:"service_name"`
	Module      string   `json:"module"`
	Suites      []string `json:"suites,omitempty"`
}

// RunDBChange is a database-change job's submission payload.
type RunDBChange struct {
	Connection string `json:"connection"`
	Database   string `json:"database,omitempty"`
	Statement  string `json:"statement"`
}

// RunConfigChange is a config-change job's submission payload.
type RunConfigChange struct {
	Items []RunConfigItem `json:"items"`
}

// RunConfigItem is one config item in the submission body.
type RunConfigItem struct {
	Group     string `json:"group"`
	Namespace string `json:"namespace"`
	DataID    string `json:"data_id"`
	Content   string `json:"content,omitempty"`
	Format    string `json:"format,omitempty"`
}

// RunApproval is an approval job's submission payload.
type RunApproval struct {
	Nodes []RunApprovalNode `json:"nodes"`
}

// RunApprovalNode is one approval chain stop in the submission body.
type RunApprovalNode struct {
	Name      string           `json:"name"`
	Kind      ApprovalNodeKind `json:"kind"`
	Approvers []string         `json:"approvers"`
}
