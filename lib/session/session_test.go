// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/flightdeck-foundation/flightdeck/lib/enrich"
	"github.com/flightdeck-foundation/flightdeck/lib/enrich/enrichtest"
	"github.com/flightdeck-foundation/flightdeck/lib/gateway"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/testutil"
	"github.com/flightdeck-foundation/flightdeck/lib/workflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLauncher records the launch it received and answers with a
// fixed task id (or the configured error).
type fakeLauncher struct {
	body  []byte
	debug bool
	calls int
	err   error
}

func (l *fakeLauncher) Launch(_ context.Context, body []byte, debug bool) (string, error) {
	l.calls++
	l.body = body
	l.debug = debug
	if l.err != nil {
		return "", l.err
	}
	return "task-42", nil
}

// releaseContent is the shared fixture: a runtime build with two
// options (one selected) feeding a fromjob deploy.
func releaseContent() *schema.WorkflowContent {
	return &schema.WorkflowContent{
		Name:    "release-train",
		Project: "checkout",
		Stages: []schema.Stage{
			{Name: "Build", Jobs: []schema.Job{{
				Name: "build-svc",
				Type: schema.JobTypeBuild,
				Spec: schema.JobSpec{
					Source: schema.SourceRuntime,
					Build: &schema.BuildSpec{
						Options: []schema.ServiceModuleOption{
							{ServiceName: "svcA", Module: "modA", Repository: "payments/checkout-svc"},
							{ServiceName: "svcB", Module: "modB", Repository: "payments/ledger-svc"},
						},
					},
				},
				Selection: schema.Selection{Targets: []schema.Target{
					{ServiceName: "svcA", Module: "modA", CodeRef: &schema.CodeRef{Branch: "main"}},
				}},
			}}},
			{Name: "Rollout", Jobs: []schema.Job{{
				Name: "deploy-svc",
				Type: schema.JobTypeDeploy,
				Spec: schema.JobSpec{
					Source:        schema.SourceFromJob,
					OriginJobName: "build-svc",
					Deploy: &schema.DeploySpec{
						Environment: "staging-eu",
						Options: []schema.ServiceModuleOption{
							{ServiceName: "svcA", Module: "modA"},
							{ServiceName: "svcB", Module: "modB"},
						},
					},
				},
				Selection: schema.Selection{Targets: []schema.Target{
					{ServiceName: "svcA", Module: "modA"},
				}},
			}}},
		},
	}
}

func stagingEnvironment() *schema.EnvironmentSnapshot {
	return &schema.EnvironmentSnapshot{
		Name: "staging-eu",
		Modules: []schema.ModuleEnvironment{
			{
				ServiceName: "svcA", Module: "modA", Deployed: true,
				Overrides: []schema.VariableValue{{Name: "REPLICAS", Value: "4"}},
				Defaults:  []schema.VariableValue{{Name: "REPLICAS", Value: "2"}},
			},
			{
				ServiceName: "svcB", Module: "modB",
				Defaults: []schema.VariableValue{{Name: "REPLICAS", Value: "2"}},
			},
		},
	}
}

func newTestSession(t *testing.T, content *schema.WorkflowContent, sources enrich.Sources, launcher gateway.Launcher) *Session {
	t.Helper()
	s, err := New(Config{
		Document:    content,
		Environment: stagingEnvironment(),
		Sources:     sources,
		Launcher:    launcher,
		Workspace:   "ws-checkout-1",
		Logger:      discardLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewSessionComputesInitialCandidates(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, releaseContent(), enrich.Sources{}, nil)

	build, _, err := s.Job("build-svc")
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if len(build.Spec.Build.Candidates) != 2 {
		t.Errorf("build candidates = %+v, want both options", build.Spec.Build.Candidates)
	}
	if len(build.Selection.Targets) != 1 || build.Selection.Targets[0].Key() != "svcA/modA" {
		t.Errorf("build selection = %+v, want the preset pick kept", build.Selection.Targets)
	}

	deploy, _, err := s.Job("deploy-svc")
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	// Fromjob deploy candidates: the build's exposed picks, with
	// environment variables resolved.
	if len(deploy.Spec.Deploy.Candidates) != 1 {
		t.Fatalf("deploy candidates = %+v, want exactly the build's pick", deploy.Spec.Deploy.Candidates)
	}
	candidate := deploy.Spec.Deploy.Candidates[0]
	if !candidate.Deployed || len(candidate.Variables) != 1 || candidate.Variables[0].Value != "4" {
		t.Errorf("deploy candidate = %+v, want deployed with override variables", candidate)
	}
}

func TestEditJobPropagatesToDependents(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, releaseContent(), enrich.Sources{}, nil)

	_, revision, err := s.Job("build-svc")
	if err != nil {
		t.Fatal(err)
	}
	result, err := s.EditJob("build-svc", revision, func(job *schema.Job) {
		job.Selection.Targets = append(job.Selection.Targets, schema.Target{
			ServiceName: "svcB", Module: "modB", CodeRef: &schema.CodeRef{Branch: "main"},
		})
	})
	if err != nil {
		t.Fatalf("EditJob: %v", err)
	}
	if !result.Applied {
		t.Fatal("edit was not applied")
	}

	deploy, _, err := s.Job("deploy-svc")
	if err != nil {
		t.Fatal(err)
	}
	if len(deploy.Spec.Deploy.Candidates) != 2 {
		t.Errorf("deploy candidates after upstream edit = %+v, want two", deploy.Spec.Deploy.Candidates)
	}
	// The deploy's existing pick survives the recompute.
	if len(deploy.Selection.Targets) != 1 || deploy.Selection.Targets[0].Key() != "svcA/modA" {
		t.Errorf("deploy selection after upstream edit = %+v", deploy.Selection.Targets)
	}
}

func TestEditJobStaleRevision(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, releaseContent(), enrich.Sources{}, nil)

	_, revision, err := s.Job("build-svc")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.EditJob("build-svc", revision, func(job *schema.Job) {
		job.Selection.Targets[0].CodeRef.Branch = "release-2026.08"
	}); err != nil {
		t.Fatalf("first edit: %v", err)
	}

	_, err = s.EditJob("build-svc", revision, func(job *schema.Job) {
		job.Selection.Targets[0].CodeRef.Branch = "hotfix"
	})
	var stale *workflow.StaleEditError
	if !errors.As(err, &stale) {
		t.Fatalf("second edit error = %v, want *StaleEditError", err)
	}

	job, _, err := s.Job("build-svc")
	if err != nil {
		t.Fatal(err)
	}
	if job.Selection.Targets[0].CodeRef.Branch != "release-2026.08" {
		t.Errorf("branch = %q, the stale edit must not have landed", job.Selection.Targets[0].CodeRef.Branch)
	}
}

func TestToggleSkipFlipsDependentMissingSource(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, releaseContent(), enrich.Sources{}, nil)

	if _, err := s.ToggleSkip("build-svc", true); err != nil {
		t.Fatalf("ToggleSkip: %v", err)
	}
	deploy, _, err := s.Job("deploy-svc")
	if err != nil {
		t.Fatal(err)
	}
	if !deploy.MissingSource {
		t.Error("deploy did not notice its root was skipped")
	}

	if _, err := s.ToggleSkip("build-svc", false); err != nil {
		t.Fatalf("ToggleSkip back: %v", err)
	}
	deploy, _, err = s.Job("deploy-svc")
	if err != nil {
		t.Fatal(err)
	}
	if deploy.MissingSource {
		t.Error("deploy still reports a missing source after the root was restored")
	}
	if len(deploy.Spec.Deploy.Candidates) != 1 {
		t.Errorf("deploy candidates were not restored: %+v", deploy.Spec.Deploy.Candidates)
	}
}

func TestEnrichJobPopulatesCodeRefOptions(t *testing.T) {
	t.Parallel()

	sources, codeHost, _, _ := enrichtest.Sources()
	codeHost.BranchesByRepo = map[string][]string{
		"payments/checkout-svc": {"main", "release-2026.08"},
	}
	codeHost.TagsByRepo = map[string][]string{
		"payments/checkout-svc": {"v1.4.0"},
	}
	codeHost.PullRequestsByRepo = map[string][]enrich.PullRequest{
		"payments/checkout-svc": {{Number: 118, Title: "fix rounding"}},
	}

	s := newTestSession(t, releaseContent(), sources, nil)
	if err := s.EnrichJob(context.Background(), "build-svc"); err != nil {
		t.Fatalf("EnrichJob: %v", err)
	}

	job, _, err := s.Job("build-svc")
	if err != nil {
		t.Fatal(err)
	}
	if !job.Spec.Build.Fetched || job.Spec.Build.Loading {
		t.Errorf("fetch flags = fetched %v loading %v", job.Spec.Build.Fetched, job.Spec.Build.Loading)
	}
	ref := job.Selection.Targets[0].CodeRef
	if len(ref.BranchOptions) != 2 || ref.BranchOptions[0] != "main" {
		t.Errorf("BranchOptions = %v", ref.BranchOptions)
	}
	if len(ref.TagOptions) != 1 || ref.TagOptions[0] != "v1.4.0" {
		t.Errorf("TagOptions = %v", ref.TagOptions)
	}
	if len(ref.PullRequestOptions) != 1 || ref.PullRequestOptions[0] != "118 fix rounding" {
		t.Errorf("PullRequestOptions = %v", ref.PullRequestOptions)
	}
}

// blockingCodeHost parks the first Branches call until released, to
// let the test overtake it with a second enrichment.
type blockingCodeHost struct {
	enrichtest.CodeHost
	started chan struct{}
	release chan struct{}
	blocked bool
}

func (h *blockingCodeHost) Branches(ctx context.Context, repository string) ([]string, error) {
	if !h.blocked {
		h.blocked = true
		close(h.started)
		<-h.release
		return []string{"stale-branch"}, nil
	}
	return h.CodeHost.Branches(ctx, repository)
}

func TestEnrichJobDiscardsStaleResponse(t *testing.T) {
	t.Parallel()

	host := &blockingCodeHost{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	host.BranchesByRepo = map[string][]string{
		"payments/checkout-svc": {"fresh-branch"},
	}

	s := newTestSession(t, releaseContent(), enrich.Sources{CodeHost: host}, nil)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.EnrichJob(context.Background(), "build-svc")
	}()
	testutil.RequireClosed(t, host.started, 5*time.Second, "first fetch started")

	// The second enrichment starts after the first captured its
	// version, so the first's response is stale by the time it lands.
	if err := s.EnrichJob(context.Background(), "build-svc"); err != nil {
		t.Fatalf("second EnrichJob: %v", err)
	}
	close(host.release)
	if err := testutil.RequireReceive(t, firstDone, 5*time.Second, "first enrichment returned"); err != nil {
		t.Fatalf("first EnrichJob: %v", err)
	}

	job, _, err := s.Job("build-svc")
	if err != nil {
		t.Fatal(err)
	}
	ref := job.Selection.Targets[0].CodeRef
	if len(ref.BranchOptions) != 1 || ref.BranchOptions[0] != "fresh-branch" {
		t.Errorf("BranchOptions = %v, stale response must have been discarded", ref.BranchOptions)
	}
}

func TestEnrichJobDiscardsResponseForSkippedJob(t *testing.T) {
	t.Parallel()

	host := &blockingCodeHost{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	s := newTestSession(t, releaseContent(), enrich.Sources{CodeHost: host}, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.EnrichJob(context.Background(), "build-svc")
	}()
	testutil.RequireClosed(t, host.started, 5*time.Second, "fetch started")

	// The job leaves the active set while the fetch is parked; the
	// response that lands afterwards must not touch it.
	if _, err := s.ToggleSkip("build-svc", true); err != nil {
		t.Fatalf("ToggleSkip: %v", err)
	}
	close(host.release)
	if err := testutil.RequireReceive(t, done, 5*time.Second, "enrichment returned"); err != nil {
		t.Fatalf("EnrichJob: %v", err)
	}

	job, _, err := s.Job("build-svc")
	if err != nil {
		t.Fatal(err)
	}
	if !job.Skipped {
		t.Fatal("job lost its skipped flag")
	}
	if job.Spec.Build.Fetched || job.Spec.Build.Loading {
		t.Errorf("fetch flags = fetched %v loading %v, want neither on a skipped job", job.Spec.Build.Fetched, job.Spec.Build.Loading)
	}
	if options := job.Selection.Targets[0].CodeRef.BranchOptions; len(options) != 0 {
		t.Errorf("BranchOptions = %v, response for a skipped job must be dropped", options)
	}
}

func TestRootSkipCycleRestoresDependentSelection(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, releaseContent(), enrich.Sources{}, nil)

	if _, err := s.ToggleSkip("build-svc", true); err != nil {
		t.Fatalf("ToggleSkip: %v", err)
	}
	deploy, _, err := s.Job("deploy-svc")
	if err != nil {
		t.Fatal(err)
	}
	if !deploy.MissingSource {
		t.Fatal("deploy did not notice its root was skipped")
	}
	if len(deploy.Selection.Targets) != 1 || deploy.Selection.Targets[0].Key() != "svcA/modA" {
		t.Fatalf("deploy selection during the outage = %+v, want the pick kept", deploy.Selection.Targets)
	}

	if _, err := s.ToggleSkip("build-svc", false); err != nil {
		t.Fatalf("ToggleSkip back: %v", err)
	}
	deploy, _, err = s.Job("deploy-svc")
	if err != nil {
		t.Fatal(err)
	}
	if deploy.MissingSource {
		t.Fatal("deploy still reports a missing source after the root was restored")
	}
	if len(deploy.Selection.Targets) != 1 || deploy.Selection.Targets[0].Key() != "svcA/modA" {
		t.Errorf("deploy selection after the root was restored = %+v, want the pick back", deploy.Selection.Targets)
	}
}

func TestEnrichFailureNoticeIsDeduplicated(t *testing.T) {
	t.Parallel()

	content := releaseContent()
	content.Stages[0].Jobs = append(content.Stages[0].Jobs, schema.Job{
		Name: "apply-ddl",
		Type: schema.JobTypeDBChange,
		Spec: schema.JobSpec{
			Source:   schema.SourceRuntime,
			DBChange: &schema.DBChangeSpec{},
		},
	})

	catalog := &enrichtest.DatabaseCatalog{Err: errors.New("catalog unreachable")}
	s := newTestSession(t, content, enrich.Sources{DatabaseCatalog: catalog}, nil)

	ctx := context.Background()
	if err := s.EnrichJob(ctx, "apply-ddl"); err != nil {
		t.Fatalf("EnrichJob: %v", err)
	}
	if err := s.EnrichJob(ctx, "apply-ddl"); err != nil {
		t.Fatalf("second EnrichJob: %v", err)
	}

	notices := s.Notices()
	if len(notices) != 1 {
		t.Fatalf("Notices = %v, want exactly one despite two failures", notices)
	}
	if !strings.Contains(notices[0], "catalog unreachable") {
		t.Errorf("notice %q does not carry the cause", notices[0])
	}

	job, _, err := s.Job("apply-ddl")
	if err != nil {
		t.Fatal(err)
	}
	if job.Spec.DBChange.Fetched {
		t.Error("a failed enrichment must leave the job unfetched for retry")
	}
}

func TestSubmitFlow(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	s := newTestSession(t, releaseContent(), enrich.Sources{}, launcher)

	taskID, err := s.Submit(context.Background(), true)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if taskID != "task-42" || s.LastTaskID() != "task-42" {
		t.Errorf("taskID = %q, LastTaskID = %q", taskID, s.LastTaskID())
	}
	if !launcher.debug {
		t.Error("debug flag did not reach the launcher")
	}

	// The launched body is the canonical submission shape: edit-time
	// state stripped, selections promoted.
	var request schema.RunRequest
	if err := json.Unmarshal(launcher.body, &request); err != nil {
		t.Fatalf("launched body is not a run request: %v", err)
	}
	if request.Name != "release-train" || len(request.Stages) != 2 {
		t.Errorf("request = %+v", request)
	}
	if strings.Contains(string(launcher.body), "candidates") {
		t.Error("launched body leaks candidate caches")
	}

	views, err := s.Views()
	if err != nil {
		t.Fatal(err)
	}
	for _, view := range views {
		if view.State != workflow.StateSerialized {
			t.Errorf("job %s state = %s, want serialized", view.Name, view.State)
		}
	}
}

func TestSubmitBlockedByValidation(t *testing.T) {
	t.Parallel()

	content := releaseContent()
	// Clear the build's selection: an active build job with no
	// targets fails validation.
	content.Stages[0].Jobs[0].Selection = schema.Selection{}

	launcher := &fakeLauncher{}
	s := newTestSession(t, content, enrich.Sources{}, launcher)

	_, err := s.Submit(context.Background(), false)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Submit error = %v, want *ValidationError", err)
	}
	if len(validation.Findings) == 0 || validation.Findings[0].Job != "build-svc" {
		t.Errorf("Findings = %+v", validation.Findings)
	}
	if launcher.calls != 0 {
		t.Error("launcher was called despite validation findings")
	}
}

func TestSubmitRejectionLeavesDocumentUntouched(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{err: &gateway.RejectionError{Status: 422, Message: "ticket not approved"}}
	s := newTestSession(t, releaseContent(), enrich.Sources{}, launcher)

	before, err := s.Document()
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Submit(context.Background(), false)
	var rejection *gateway.RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("Submit error = %v, want *RejectionError", err)
	}
	if s.LastTaskID() != "" {
		t.Error("LastTaskID set despite rejection")
	}

	after, err := s.Document()
	if err != nil {
		t.Fatal(err)
	}
	beforeJSON, _ := json.Marshal(before)
	afterJSON, _ := json.Marshal(after)
	if string(beforeJSON) != string(afterJSON) {
		t.Error("document changed across a rejected submission")
	}

	views, err := s.Views()
	if err != nil {
		t.Fatal(err)
	}
	for _, view := range views {
		if view.State == workflow.StateSerialized {
			t.Errorf("job %s marked serialized despite rejection", view.Name)
		}
	}
}

func TestCheckStatement(t *testing.T) {
	t.Parallel()

	content := releaseContent()
	content.Stages[0].Jobs = append(content.Stages[0].Jobs, schema.Job{
		Name: "apply-ddl",
		Type: schema.JobTypeDBChange,
		Spec: schema.JobSpec{
			Source: schema.SourceRuntime,
			DBChange: &schema.DBChangeSpec{
				Connection: "orders-db",
				Statement:  "DROP TABLE orders;",
			},
		},
	})

	checker := &enrichtest.StatementChecker{
		IssuesByStatement: map[string][]string{
			"DROP TABLE orders;": {"destructive statement requires a backup reference"},
		},
	}
	s := newTestSession(t, content, enrich.Sources{StatementChecker: checker}, nil)

	findings, err := s.CheckStatement(context.Background(), "apply-ddl")
	if err != nil {
		t.Fatalf("CheckStatement: %v", err)
	}
	if len(findings) != 1 || findings[0].Job != "apply-ddl" {
		t.Errorf("findings = %+v", findings)
	}
}
