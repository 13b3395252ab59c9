// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package session holds everything scoped to one operator's editing
// session: the workflow document, the synchronizer that is its single
// write path, the adapter registry, the environment snapshot, and the
// enrichment and submission machinery.
//
// A mutex serializes every state transition — edits, enrichment
// application, validation, submission. Enrichment fetches run on the
// caller's goroutine with the lock released; results are applied
// through version-checked appliers so a response that was overtaken
// by a newer edit is discarded rather than applied out of order.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flightdeck-foundation/flightdeck/lib/clock"
	"github.com/flightdeck-foundation/flightdeck/lib/enrich"
	"github.com/flightdeck-foundation/flightdeck/lib/gateway"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/workflow"
)

// Config holds everything a new session needs.
type Config struct {
	// Document is the preset-fetched workflow tree. Required; the
	// session deep-copies it, so the caller keeps ownership of the
	// original.
	Document *schema.WorkflowContent

	// Environment is the target environment's current state. Nil is
	// allowed: derivations that need it behave as "data not yet
	// available".
	Environment *schema.EnvironmentSnapshot

	// Sources are the enrichment collaborators. Zero-value fields are
	// tolerated.
	Sources enrich.Sources

	// Launcher submits the serialized run. Required for Submit;
	// sessions used only for editing and validation may leave it nil.
	Launcher gateway.Launcher

	// StageExecMode selects the stage-execution activity rule for the
	// whole session.
	StageExecMode bool

	// Workspace is the hosting workspace identifier, carried for log
	// correlation and the workbench API.
	Workspace string

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session is one operator's editing session over one workflow
// document.
type Session struct {
	id        string
	workspace string
	createdAt time.Time

	mu            sync.Mutex
	document      *workflow.Document
	synchronizer  *workflow.Synchronizer
	registry      workflow.Registry
	env           *schema.EnvironmentSnapshot
	sources       enrich.Sources
	launcher      gateway.Launcher
	stageExecMode bool
	clock         clock.Clock
	logger        *slog.Logger

	lastActivity time.Time

	// enrichVersions counts enrichment generations per job. A fetch
	// captures the counter before releasing the lock; application is
	// refused when the counter has moved on.
	enrichVersions map[string]uint64

	// signatures tracks each job's last-known data signature, the
	// trigger for recomputing dependent fromjob jobs.
	signatures map[string]workflow.Signature

	// validated and serialized are per-job lifecycle bookkeeping,
	// cleared whenever a job's state changes.
	validated  map[string]bool
	serialized map[string]bool

	// notices deduplicates user-facing warnings: each key is surfaced
	// once per session.
	notices      map[string]string
	noticeOrder  []string
	lastTaskID   string
	lastFindings []workflow.Finding
}

// New builds a session over the given document: deep-copies it,
// validates every job envelope, runs the initial candidate
// computation for each job, and records starting signatures.
func New(config Config) (*Session, error) {
	if config.Document == nil {
		return nil, fmt.Errorf("session: Document is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	document, err := workflow.NewDocument(config.Document)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	id := uuid.NewString()
	logger = logger.With("session", id)
	now := clk.Now()

	s := &Session{
		id:             id,
		workspace:      config.Workspace,
		createdAt:      now,
		lastActivity:   now,
		document:       document,
		synchronizer:   workflow.NewSynchronizer(document, logger),
		registry:       workflow.NewRegistry(),
		env:            config.Environment,
		sources:        config.Sources,
		launcher:       config.Launcher,
		stageExecMode:  config.StageExecMode,
		clock:          clk,
		logger:         logger,
		enrichVersions: make(map[string]uint64),
		signatures:     make(map[string]workflow.Signature),
		validated:      make(map[string]bool),
		serialized:     make(map[string]bool),
		notices:        make(map[string]string),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.recomputeAllLocked(); err != nil {
		return nil, fmt.Errorf("session: initial candidate computation: %w", err)
	}
	return s, nil
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Workspace returns the hosting workspace identifier.
func (s *Session) Workspace() string { return s.workspace }

// CreatedAt returns the session's creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastActivity returns the time of the most recent state transition.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Document returns a deep copy of the current workflow tree.
func (s *Session) Document() (*schema.WorkflowContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document.Snapshot()
}

// Job returns a deep copy of one job plus its current revision.
func (s *Session) Job(name string) (*schema.Job, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document.Job(name)
}

// Notices returns the user-facing warnings collected so far, in first
// occurrence order.
func (s *Session) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]string, 0, len(s.noticeOrder))
	for _, key := range s.noticeOrder {
		messages = append(messages, s.notices[key])
	}
	return messages
}

// LastTaskID returns the task id of the most recent successful
// submission, empty before one happens.
func (s *Session) LastTaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTaskID
}

// JobView is one job's summary for display.
type JobView struct {
	Name          string             `json:"name"`
	Type          schema.JobType     `json:"type"`
	Stage         string             `json:"stage"`
	State         workflow.JobState  `json:"state"`
	Revision      uint64             `json:"revision"`
	Signature     workflow.Signature `json:"signature"`
	Skipped       bool               `json:"skipped"`
	MissingSource bool               `json:"missing_source"`
	Active        bool               `json:"active"`
}

// Views returns every job's summary in document order.
func (s *Session) Views() ([]JobView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.document.Snapshot()
	if err != nil {
		return nil, err
	}
	active := workflow.ActiveSet(snapshot, s.stageExecMode)

	var views []JobView
	for _, stage := range snapshot.Stages {
		for i := range stage.Jobs {
			job := &stage.Jobs[i]
			_, isActive := active[workflow.Key(job)]
			views = append(views, JobView{
				Name:          job.Name,
				Type:          job.Type,
				Stage:         stage.Name,
				State:         workflow.DeriveState(job, s.validated[job.Name], s.serialized[job.Name]),
				Revision:      s.document.Revision(job.Name),
				Signature:     s.signatures[job.Name],
				Skipped:       job.Skipped,
				MissingSource: job.MissingSource,
				Active:        isActive,
			})
		}
	}
	return views, nil
}

// touchLocked records activity. Callers hold the mutex.
func (s *Session) touchLocked() {
	s.lastActivity = s.clock.Now()
}

// noticeLocked surfaces a user-facing warning once per key. Callers
// hold the mutex.
func (s *Session) noticeLocked(key, message string) {
	if _, seen := s.notices[key]; seen {
		return
	}
	s.notices[key] = message
	s.noticeOrder = append(s.noticeOrder, key)
	s.logger.Warn("session notice", "key", key, "message", message)
}

// enrichmentNoticeKey builds the dedupe key for a failed enrichment:
// one notice per job and concern, not one per retry.
func enrichmentNoticeKey(job, concern string) string {
	return strings.Join([]string{"enrich", job, concern}, "/")
}
