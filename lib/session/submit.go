// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"

	"github.com/flightdeck-foundation/flightdeck/lib/workflow"
)

// ValidationError blocks a submission: the first finding is the
// user-facing headline, the full list covers every active job.
type ValidationError struct {
	Findings []workflow.Finding
}

func (e *ValidationError) Error() string {
	if len(e.Findings) == 0 {
		return "validation failed"
	}
	if len(e.Findings) == 1 {
		return fmt.Sprintf("validation failed: %s", e.Findings[0])
	}
	return fmt.Sprintf("validation failed: %s (and %d more)", e.Findings[0], len(e.Findings)-1)
}

// Validate runs the rule table over the active set and records which
// jobs passed. Findings are advisory here; Submit runs its own pass
// and refuses on any finding.
func (s *Session) Validate() ([]workflow.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Session) validateLocked() ([]workflow.Finding, error) {
	snapshot, err := s.document.Snapshot()
	if err != nil {
		return nil, err
	}
	findings, err := workflow.Validate(snapshot, s.stageExecMode)
	if err != nil {
		return nil, err
	}

	flagged := make(map[string]bool, len(findings))
	for _, finding := range findings {
		flagged[finding.Job] = true
	}
	for _, job := range workflow.ActiveJobs(snapshot, s.stageExecMode) {
		if flagged[job.Name] {
			delete(s.validated, job.Name)
		} else {
			s.validated[job.Name] = true
		}
	}
	s.lastFindings = findings
	s.touchLocked()
	return findings, nil
}

// Submit runs the full launch flow: active set → validation →
// serialization → gateway launch. Any validation finding refuses the
// launch with a *ValidationError. A gateway rejection
// (*gateway.RejectionError) carries the backend's one user-facing
// message. In every failure case the document is untouched, ready for
// the operator to fix and resubmit.
//
// The session stays locked across the launch call: a submission is a
// state transition like any other, and edits racing a launch would
// make "what ran" ambiguous.
func (s *Session) Submit(ctx context.Context, debug bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.launcher == nil {
		return "", fmt.Errorf("session has no launcher configured")
	}

	snapshot, err := s.document.Snapshot()
	if err != nil {
		return "", err
	}
	active := workflow.ActiveJobs(snapshot, s.stageExecMode)
	if len(active) == 0 {
		return "", fmt.Errorf("nothing to run: every job is skipped or excluded")
	}

	findings, err := s.validateLocked()
	if err != nil {
		return "", err
	}
	if len(findings) > 0 {
		return "", &ValidationError{Findings: findings}
	}

	request, err := workflow.Serialize(snapshot, s.logger)
	if err != nil {
		return "", err
	}
	body, err := workflow.EncodeRequest(request)
	if err != nil {
		return "", err
	}

	taskID, err := s.launcher.Launch(ctx, body, debug)
	if err != nil {
		return "", err
	}

	for _, job := range active {
		s.serialized[job.Name] = true
	}
	s.lastTaskID = taskID
	s.touchLocked()
	s.logger.Info("run launched", "task", taskID, "jobs", len(active), "debug", debug)
	return taskID, nil
}
