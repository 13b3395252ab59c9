// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Serialize flattens an edited workflow tree into the canonical
// submission body. It runs once, after validation passes, and is a
// total transform: every job type has a dedicated mapping, and types
// this code does not know pass through unchanged with a logged
// warning instead of failing the whole submission.
//
// The output is deterministic — the same document always produces the
// same request, and no edit-time field (candidate caches, loading and
// fetched flags, diff bookkeeping) ever appears in it.
func Serialize(doc *schema.WorkflowContent, logger *slog.Logger) (*schema.RunRequest, error) {
	request := &schema.RunRequest{
		Name:           doc.Name,
		Project:        doc.Project,
		ApprovalTicket: doc.ApprovalTicket,
		Stages:         make([]schema.RunStage, 0, len(doc.Stages)),
	}

	for i := range doc.Stages {
		stage := &doc.Stages[i]
		runStage := schema.RunStage{
			Name:      stage.Name,
			ExecStage: stage.ExecStage,
			Jobs:      make([]schema.RunJob, 0, len(stage.Jobs)),
		}
		for j := range stage.Jobs {
			runJob, err := serializeJob(&stage.Jobs[j], logger)
			if err != nil {
				return nil, err
			}
			runStage.Jobs = append(runStage.Jobs, runJob)
		}
		request.Stages = append(request.Stages, runStage)
	}
	return request, nil
}

// EncodeRequest renders a request as its canonical JSON bytes. Struct
// field order is fixed and map keys sort, so equal requests encode to
// equal bytes.
func EncodeRequest(request *schema.RunRequest) ([]byte, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding run request: %w", err)
	}
	return data, nil
}

func serializeJob(job *schema.Job, logger *slog.Logger) (schema.RunJob, error) {
	runJob := schema.RunJob{
		Name:          job.Name,
		Type:          job.Type,
		Skipped:       job.Skipped,
		RunPolicy:     job.RunPolicy,
		Source:        job.Spec.Source,
		OriginJobName: job.Spec.Origin(),
	}

	switch job.Type {
	case schema.JobTypeBuild:
		build, err := serializeBuild(job)
		if err != nil {
			return schema.RunJob{}, err
		}
		runJob.Build = build

	case schema.JobTypeDeploy:
		runJob.Deploy = serializeDeploy(job)

	case schema.JobTypeScan:
		runJob.Scan = serializeScan(job)

	case schema.JobTypeTest:
		runJob.Test = serializeTest(job)

	case schema.JobTypeDBChange:
		runJob.DBChange = serializeDBChange(job)

	case schema.JobTypeConfigChange:
		runJob.ConfigChange = serializeConfigChange(job)
		runJob.Skipped = configChangeSkipped(job)

	case schema.JobTypeApproval:
		runJob.Approval = serializeApproval(job)

	default:
		// Forward compatibility: a job kind added after this build
		// still reaches the backend, untouched.
		logger.Warn("passing unknown job type through serialization",
			"job", job.Name, "type", string(job.Type))
		runJob.Extra = job.Spec.Extra
	}
	return runJob, nil
}

// serializeBuild promotes picked targets into the backend's services
// list and normalizes each code reference: the branch-or-tag radio
// collapses into whichever scalar the choice names, the
// comma-separated pull request string becomes a number list, and
// unset Perforce identifiers become 0.
func serializeBuild(job *schema.Job) (*schema.RunBuild, error) {
	services := make([]schema.RunBuildService, 0, len(job.Selection.Targets))
	for _, target := range job.Selection.Targets {
		service := schema.RunBuildService{
			ServiceName: target.ServiceName,
			Module:      target.Module,
			RepoSync:    target.RepoSync,
		}
		if ref := target.CodeRef; ref != nil {
			switch ref.Kind {
			case schema.RefTag:
				service.Tag = ref.Tag
			default:
				service.Branch = ref.Branch
			}
			pullRequests, err := schema.ParsePullRequests(ref.PullRequests)
			if err != nil {
				return nil, fmt.Errorf("job %q, target %s: %w", job.Name, target.Key(), err)
			}
			service.PullRequests = pullRequests

			if repoType(job, target.Key()) == schema.RepoPerforce {
				changelist, err := schema.ParsePerforceID(ref.Changelist)
				if err != nil {
					return nil, fmt.Errorf("job %q, target %s: %w", job.Name, target.Key(), err)
				}
				shelve, err := schema.ParsePerforceID(ref.Shelve)
				if err != nil {
					return nil, fmt.Errorf("job %q, target %s: %w", job.Name, target.Key(), err)
				}
				service.Changelist = changelist
				service.Shelve = shelve
			}
		}
		services = append(services, service)
	}
	return &schema.RunBuild{Services: services}, nil
}

// repoType looks up the target's repository flavor from the job's
// option list. Defaults to git.
func repoType(job *schema.Job, key string) string {
	if job.Spec.Build == nil {
		return schema.RepoGit
	}
	for _, option := range job.Spec.Build.Options {
		if option.Key() == key && option.RepoType != "" {
			return option.RepoType
		}
	}
	return schema.RepoGit
}

func serializeDeploy(job *schema.Job) *schema.RunDeploy {
	deploy := &schema.RunDeploy{}
	if spec := job.Spec.Deploy; spec != nil {
		deploy.Environment = spec.Environment
	}
	if job.Spec.Source == schema.SourceFromJob {
		deploy.Services = make([]schema.RunDeployService, 0, len(job.Selection.Targets))
		for _, target := range job.Selection.Targets {
			deploy.Services = append(deploy.Services, schema.RunDeployService{
				ServiceName: target.ServiceName,
				Module:      target.Module,
				Variables:   target.Variables,
			})
		}
		return deploy
	}
	deploy.Services = make([]schema.RunDeployService, 0, len(job.Selection.Modules))
	for _, module := range job.Selection.Modules {
		deploy.Services = append(deploy.Services, schema.RunDeployService{
			ServiceName: module.ServiceName,
			Module:      module.Module,
			Variables:   module.Variables,
		})
	}
	return deploy
}

func serializeScan(job *schema.Job) *schema.RunScan {
	scan := &schema.RunScan{
		ServiceAndScannings: make([]schema.RunScanService, 0, len(job.Selection.Targets)),
	}
	for _, target := range job.Selection.Targets {
		scan.ServiceAndScannings = append(scan.ServiceAndScannings, schema.RunScanService{
			ServiceName: target.ServiceName,
			Module:      target.Module,
			Scannings:   target.Scannings,
		})
	}
	return scan
}

func serializeTest(job *schema.Job) *schema.RunTest {
	test := &schema.RunTest{
		ServiceAndSuites: make([]schema.RunTestService, 0, len(job.Selection.Targets)),
	}
	for _, target := range job.Selection.Targets {
		test.ServiceAndSuites = append(test.ServiceAndSuites, schema.RunTestService{
			ServiceName: target.ServiceName,
			Module:      target.Module,
			Suites:      target.Suites,
		})
	}
	return test
}

func serializeDBChange(job *schema.Job) *schema.RunDBChange {
	dbChange := &schema.RunDBChange{}
	if spec := job.Spec.DBChange; spec != nil {
		dbChange.Connection = spec.Connection
		dbChange.Database = spec.Database
		dbChange.Statement = spec.Statement
	}
	return dbChange
}

func serializeConfigChange(job *schema.Job) *schema.RunConfigChange {
	configChange := &schema.RunConfigChange{
		Items: make([]schema.RunConfigItem, 0, len(job.Selection.Items)),
	}
	for _, item := range job.Selection.Items {
		configChange.Items = append(configChange.Items, schema.RunConfigItem{
			Group:     item.Group,
			Namespace: item.Namespace,
			DataID:    item.DataID,
			Content:   item.Content,
			Format:    item.Format,
		})
	}
	return configChange
}

// configChangeSkipped derives a config-change job's submitted skip
// flag: skipped unless the operator forced the run or at least one
// selected item's diff shows a real change (more than one segment —
// one segment means the proposed content matches the environment).
func configChangeSkipped(job *schema.Job) bool {
	if job.Skipped {
		return true
	}
	if job.RunPolicy == schema.RunPolicyForceRun {
		return false
	}
	for _, item := range job.Selection.Items {
		if item.DiffSegments != 1 {
			return false
		}
	}
	return true
}

func serializeApproval(job *schema.Job) *schema.RunApproval {
	approval := &schema.RunApproval{}
	if spec := job.Spec.Approval; spec != nil {
		approval.Nodes = make([]schema.RunApprovalNode, 0, len(spec.Nodes))
		for _, node := range spec.Nodes {
			approval.Nodes = append(approval.Nodes, schema.RunApprovalNode{
				Name:      node.Name,
				Kind:      node.Kind,
				Approvers: node.Approvers,
			})
		}
	}
	return approval
}
