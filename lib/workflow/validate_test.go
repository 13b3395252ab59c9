// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"strings"
	"testing"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

func TestValidateRuleTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		job     func() schema.Job
		wantMsg string // substring of the finding, "" means the job passes
	}{
		{
			name: "build with resolved branch passes",
			job: func() schema.Job {
				return buildJob("j", schema.Target{
					ServiceName: "svcA", Module: "modA",
					CodeRef: &schema.CodeRef{Branch: "main"},
				})
			},
		},
		{
			name: "build with pull requests passes",
			job: func() schema.Job {
				return buildJob("j", schema.Target{
					ServiceName: "svcA", Module: "modA",
					CodeRef: &schema.CodeRef{PullRequests: "12,34"},
				})
			},
		},
		{
			name: "build with repo sync passes without a ref",
			job: func() schema.Job {
				return buildJob("j", schema.Target{ServiceName: "svcA", Module: "modA", RepoSync: true})
			},
		},
		{
			name: "build with no targets fails",
			job: func() schema.Job {
				return buildJob("j")
			},
			wantMsg: "at least one service module",
		},
		{
			name: "build with unresolved ref fails",
			job: func() schema.Job {
				return buildJob("j", schema.Target{ServiceName: "svcA", Module: "modA"})
			},
			wantMsg: "no branch, tag, or pull request",
		},
		{
			name: "runtime deploy needs a module pick",
			job: func() schema.Job {
				job := fromJob("j", schema.JobTypeDeploy, "")
				job.Spec.Source = schema.SourceRuntime
				job.Spec.OriginJobName = ""
				return job
			},
			wantMsg: "at least one module",
		},
		{
			name: "runtime deploy with module pick passes",
			job: func() schema.Job {
				job := fromJob("j", schema.JobTypeDeploy, "")
				job.Spec.Source = schema.SourceRuntime
				job.Spec.OriginJobName = ""
				job.Selection.Modules = []schema.Module{{ServiceName: "svcA", Module: "modA"}}
				return job
			},
		},
		{
			name: "scan needs a target",
			job: func() schema.Job {
				job := fromJob("j", schema.JobTypeScan, "")
				job.Spec.Source = schema.SourceRuntime
				job.Spec.OriginJobName = ""
				return job
			},
			wantMsg: "at least one scanning",
		},
		{
			name: "db-change needs statement text",
			job: func() schema.Job {
				job := fromJob("j", schema.JobTypeDBChange, "")
				job.Spec.Source = schema.SourceRuntime
				job.Spec.OriginJobName = ""
				job.Spec.DBChange.Connection = "orders-db"
				job.Spec.DBChange.Statement = "   "
				return job
			},
			wantMsg: "statement text is empty",
		},
		{
			name: "db-change needs a connection",
			job: func() schema.Job {
				job := fromJob("j", schema.JobTypeDBChange, "")
				job.Spec.Source = schema.SourceRuntime
				job.Spec.OriginJobName = ""
				job.Spec.DBChange.Statement = "DELETE FROM stale;"
				return job
			},
			wantMsg: "select a database connection",
		},
		{
			name: "config-change needs an item",
			job: func() schema.Job {
				job := fromJob("j", schema.JobTypeConfigChange, "")
				job.Spec.Source = schema.SourceRuntime
				job.Spec.OriginJobName = ""
				return job
			},
			wantMsg: "at least one config item",
		},
		{
			name: "approval node without approvers fails",
			job: func() schema.Job {
				job := fromJob("j", schema.JobTypeApproval, "")
				job.Spec.Source = schema.SourceRuntime
				job.Spec.OriginJobName = ""
				job.Spec.Approval.Nodes = []schema.ApprovalNode{
					{Name: "lead", Kind: schema.ApprovalNodeUser, Approvers: []string{"alice"}},
					{Name: "release", Kind: schema.ApprovalNodeGroup},
				}
				return job
			},
			wantMsg: "at least one approver group",
		},
		{
			name: "approval with approvers on every node passes",
			job: func() schema.Job {
				job := fromJob("j", schema.JobTypeApproval, "")
				job.Spec.Source = schema.SourceRuntime
				job.Spec.OriginJobName = ""
				job.Spec.Approval.Nodes = []schema.ApprovalNode{
					{Name: "lead", Kind: schema.ApprovalNodeUser, Approvers: []string{"alice"}},
				}
				return job
			},
		},
		{
			name: "unknown type passes",
			job: func() schema.Job {
				return schema.Job{
					Name: "j",
					Type: "canary_bake",
					Spec: schema.JobSpec{Source: schema.SourceRuntime},
				}
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			findings, err := Validate(singleStage(test.job()), false)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if test.wantMsg == "" {
				if len(findings) != 0 {
					t.Fatalf("findings = %v, want none", findings)
				}
				return
			}
			if len(findings) != 1 {
				t.Fatalf("findings = %v, want exactly one", findings)
			}
			if findings[0].Job != "j" || !strings.Contains(findings[0].Message, test.wantMsg) {
				t.Fatalf("finding = %v, want message containing %q", findings[0], test.wantMsg)
			}
		})
	}
}

func TestValidateSkipsInactiveJobs(t *testing.T) {
	t.Parallel()

	broken := buildJob("broken")
	broken.Skipped = true
	doc := singleStage(broken)

	findings, err := Validate(doc, false)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("findings for a skipped job = %v, want none", findings)
	}
}

func TestValidateBrokenChainBlocks(t *testing.T) {
	t.Parallel()

	build := buildJob("build-svc", schema.Target{ServiceName: "svcA", Module: "modA"})
	build.Skipped = true
	deploy := fromJob("deploy-svc", schema.JobTypeDeploy, "build-svc")
	deploy.Selection.Targets = []schema.Target{{ServiceName: "svcA", Module: "modA"}}
	doc := singleStage(build, deploy)

	findings, err := Validate(doc, false)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(findings) != 1 || findings[0].Job != "deploy-svc" {
		t.Fatalf("findings = %v, want one on deploy-svc", findings)
	}
	if !strings.Contains(findings[0].Message, "skipped") {
		t.Fatalf("finding %q should name the skipped source", findings[0].Message)
	}
}

// Every active job is checked, not just the first failure.
func TestValidateChecksAllActiveJobs(t *testing.T) {
	t.Parallel()

	doc := singleStage(buildJob("first"), buildJob("second"))
	findings, err := Validate(doc, false)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("findings = %v, want one per failing job", findings)
	}
	if findings[0].Job != "first" || findings[1].Job != "second" {
		t.Fatalf("findings out of document order: %v", findings)
	}
}

func TestValidateCycleIsError(t *testing.T) {
	t.Parallel()

	doc := singleStage(
		fromJob("a", schema.JobTypeDeploy, "b"),
		fromJob("b", schema.JobTypeDeploy, "a"),
	)
	_, err := Validate(doc, false)
	if err == nil {
		t.Fatal("Validate of a cyclic document succeeded, want CycleError")
	}
}
