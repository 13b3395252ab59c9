// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway is the boundary to the pipeline backend: fetching
// preset workflow documents at session start and launching serialized
// run requests at session end. The engine never talks to the backend
// directly — it goes through the PresetSource and Launcher
// interfaces, so tests and the CLI can substitute files and fakes.
//
// Launches are all-or-nothing: on rejection the backend returns one
// user-facing message (surfaced as a *RejectionError) and the session
// document is left untouched for the operator to fix and resubmit.
package gateway

import (
	"context"
	"fmt"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// PresetRequest identifies the workflow document to fetch.
type PresetRequest struct {
	// Workflow names the workflow to instantiate (e.g.,
	// "release-train").
	Workflow string `json:"workflow"`

	// Project is the owning project identifier.
	Project string `json:"project"`

	// ApprovalTicket is the optional change-management ticket the run
	// executes under. The backend may refuse to serve a preset
	// without one.
	ApprovalTicket string `json:"approval_ticket,omitempty"`
}

// PresetSource fetches the workflow document a session starts from.
type PresetSource interface {
	FetchPreset(ctx context.Context, request PresetRequest) (*schema.WorkflowContent, error)
}

// Launcher submits a serialized run request. The body is the exact
// encoded submission payload — the launcher must transmit (and
// archive) it byte-for-byte, not re-encode it, so that what ran is
// what the serializer produced. On acceptance it returns the
// backend-assigned task id; on rejection it returns a
// *RejectionError carrying the backend's single user-facing message.
type Launcher interface {
	Launch(ctx context.Context, body []byte, debug bool) (taskID string, err error)
}

// RejectionError is a backend refusal of a launch: the run was not
// created and the document should be left as-is.
type RejectionError struct {
	// Status is the backend's HTTP status code, when the launcher is
	// HTTP-backed. Zero otherwise.
	Status int

	// Message is the backend's user-facing explanation.
	Message string
}

func (e *RejectionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("launch rejected (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("launch rejected: %s", e.Message)
}
