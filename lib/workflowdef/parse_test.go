// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package workflowdef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

func TestParseJSONC(t *testing.T) {
	t.Parallel()

	input := []byte(`{
		// Release train for the checkout project.
		"name": "release-train",
		"project": "checkout",
		"stages": [
			{
				"name": "Build",
				"jobs": [
					{
						"name": "build-svc",
						"type": "build",
						"spec": {
							"source": "runtime",
							"build": {
								"options": [
									{"service_name": "svcA", "module": "modA"},
								],
							},
						},
					},
				],
			},
			{
				"name": "Rollout",
				"exec_stage": true,
				"jobs": [
					{
						"name": "deploy-svc",
						"type": "deploy",
						"spec": {
							"source": "fromjob",
							"origin_job_name": "build-svc", /* inherit the build's picks */
							"deploy": {},
						},
					},
				],
			},
		],
	}`)

	content, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if content.Name != "release-train" || content.Project != "checkout" {
		t.Errorf("header = %q/%q, want release-train/checkout", content.Name, content.Project)
	}
	if content.JobCount() != 2 {
		t.Fatalf("JobCount = %d, want 2", content.JobCount())
	}
	if !content.Stages[1].ExecStage {
		t.Error("Rollout stage lost exec_stage")
	}

	build := content.JobNamed("build-svc")
	if build == nil || build.Spec.Build == nil {
		t.Fatalf("build-svc missing or untyped: %+v", build)
	}
	if len(build.Spec.Build.Options) != 1 || build.Spec.Build.Options[0].ServiceName != "svcA" {
		t.Errorf("build options = %+v, want one svcA/modA entry", build.Spec.Build.Options)
	}

	deploy := content.JobNamed("deploy-svc")
	if deploy == nil {
		t.Fatal("deploy-svc missing")
	}
	if deploy.Spec.Source != schema.SourceFromJob || deploy.Spec.Origin() != "build-svc" {
		t.Errorf("deploy source = %q origin %q, want fromjob/build-svc", deploy.Spec.Source, deploy.Spec.Origin())
	}

	if issues := Validate(content); len(issues) != 0 {
		t.Errorf("Validate on parsed document: %s", strings.Join(issues, "\n"))
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"name": "broken", "stages": [`))
	if err == nil {
		t.Fatal("Parse accepted truncated input")
	}
	if !strings.Contains(err.Error(), "parsing workflow") {
		t.Errorf("error = %v, want parsing workflow context", err)
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()
	path := filepath.Join(directory, "release-train.jsonc")
	document := `{
		"name": "release-train",
		"stages": [{"name": "Build", "jobs": [
			{"name": "build-svc", "type": "build", "spec": {"source": "runtime", "build": {}}}, // trailing comma
		]}],
	}`
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatal(err)
	}

	content, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if content.Name != "release-train" {
		t.Errorf("Name = %q, want release-train", content.Name)
	}

	if _, err := ReadFile(filepath.Join(directory, "absent.jsonc")); err == nil {
		t.Error("ReadFile on a missing path returned nil error")
	}
}

func TestNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"presets/checkout/release-train.jsonc", "release-train"},
		{"hotfix.json", "hotfix"},
		{"bare", "bare"},
	}
	for _, testCase := range tests {
		if got := NameFromPath(testCase.path); got != testCase.want {
			t.Errorf("NameFromPath(%q) = %q, want %q", testCase.path, got, testCase.want)
		}
	}
}
