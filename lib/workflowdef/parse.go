// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflowdef provides parsing and structural validation for
// workflow documents. A workflow document is the stage/job tree a
// preset fetch delivers at session start; the gateway stores it as
// JSON, and preset authors write it on disk as JSONC (JSON extended
// with comments and trailing commas). This package handles both
// formats.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → schema.WorkflowContent
//  2. Validate: structural checks (unique job names, spec payload
//     matches the declared type, fromjob origins resolve, no cycles)
//
// Runtime concerns — candidate computation, edit merging, submission
// readiness — live in lib/workflow, which assumes a document that
// passed Validate.
package workflowdef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a WorkflowContent. The input format is
// the same JSON the gateway serves from its preset store, extended
// with // line comments, /* block comments */, and trailing commas.
func Parse(data []byte) (*schema.WorkflowContent, error) {
	stripped := jsonc.ToJSON(data)

	var content schema.WorkflowContent
	if err := json.Unmarshal(stripped, &content); err != nil {
		return nil, fmt.Errorf("parsing workflow: %w", err)
	}

	return &content, nil
}

// ReadFile reads a JSONC workflow file from disk and parses it into a
// WorkflowContent. Returns a descriptive error if the file cannot be
// read or the JSON is malformed.
func ReadFile(path string) (*schema.WorkflowContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return content, nil
}

// NameFromPath extracts a workflow name from a file path by stripping
// the directory prefix and the file extension. For example,
// "presets/checkout/release-train.jsonc" returns "release-train".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}
