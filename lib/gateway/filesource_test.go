// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "checkout"), 0o755); err != nil {
		t.Fatal(err)
	}
	preset := `{
		// Nested layout: <dir>/<project>/<workflow>.jsonc
		"name": "release-train",
		"project": "checkout",
		"stages": [{"name": "Build", "jobs": [
			{"name": "build-svc", "type": "build", "spec": {"source": "runtime", "build": {}}},
		]}],
	}`
	if err := os.WriteFile(filepath.Join(dir, "checkout", "release-train.jsonc"), []byte(preset), 0o644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource(dir)
	content, err := source.FetchPreset(context.Background(), PresetRequest{
		Workflow: "release-train", Project: "checkout", ApprovalTicket: "CHG-123",
	})
	if err != nil {
		t.Fatalf("FetchPreset: %v", err)
	}
	if content.Name != "release-train" || content.ApprovalTicket != "CHG-123" {
		t.Errorf("content = %+v", content)
	}
}

func TestFileSourceMalformedPreset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// Duplicate job names: structurally invalid, must be refused at
	// load time.
	preset := `{
		"name": "broken",
		"stages": [{"name": "Build", "jobs": [
			{"name": "build-svc", "type": "build", "spec": {"source": "runtime", "build": {}}},
			{"name": "build-svc", "type": "build", "spec": {"source": "runtime", "build": {}}},
		]}],
	}`
	if err := os.WriteFile(filepath.Join(dir, "broken.jsonc"), []byte(preset), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileSource(dir).FetchPreset(context.Background(), PresetRequest{Workflow: "broken", Project: "checkout"})
	if err == nil {
		t.Fatal("FetchPreset accepted a malformed preset")
	}
	if !strings.Contains(err.Error(), "duplicate job name") {
		t.Errorf("error %q does not name the structural issue", err)
	}
}
