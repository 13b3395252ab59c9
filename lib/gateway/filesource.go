// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/workflowdef"
)

// FileSource serves presets from JSONC files on disk, for development
// and the CLI simulate flow. A preset named "release-train" in
// project "checkout" is looked up at <dir>/checkout/release-train.jsonc,
// falling back to <dir>/release-train.jsonc for flat layouts.
type FileSource struct {
	dir string
}

// NewFileSource returns a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

var _ PresetSource = (*FileSource)(nil)

// FetchPreset reads and structurally validates the preset file. A
// document that fails validation is a load-time fault: the session
// must not start from a malformed tree.
func (s *FileSource) FetchPreset(_ context.Context, request PresetRequest) (*schema.WorkflowContent, error) {
	path := filepath.Join(s.dir, request.Project, request.Workflow+".jsonc")
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(s.dir, request.Workflow+".jsonc")
	}

	content, err := workflowdef.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset %s/%s: %w", request.Project, request.Workflow, err)
	}
	if issues := workflowdef.Validate(content); len(issues) > 0 {
		return nil, fmt.Errorf("preset %s/%s is malformed:\n%s",
			request.Project, request.Workflow, strings.Join(issues, "\n"))
	}
	if request.ApprovalTicket != "" {
		content.ApprovalTicket = request.ApprovalTicket
	}
	return content, nil
}
