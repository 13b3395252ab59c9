// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flightdeck-foundation/flightdeck/lib/clock"
	"github.com/flightdeck-foundation/flightdeck/lib/enrich"
	"github.com/flightdeck-foundation/flightdeck/lib/gateway"
	"github.com/flightdeck-foundation/flightdeck/lib/schema"
	"github.com/flightdeck-foundation/flightdeck/lib/session"
	"github.com/flightdeck-foundation/flightdeck/lib/workflow"
)

// Handler serves the workbench session API.
type Handler struct {
	store         *Store
	presets       gateway.PresetSource
	launcher      gateway.Launcher
	environments  func(name string) (*schema.EnvironmentSnapshot, error)
	sources       enrich.Sources
	stageExecMode bool
	clock         clock.Clock
	logger        *slog.Logger
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Store holds live sessions. Required.
	Store *Store

	// Presets is where new sessions fetch their workflow documents.
	// Required.
	Presets gateway.PresetSource

	// Launcher submits serialized runs. Optional; without it, submit
	// requests fail with 503.
	Launcher gateway.Launcher

	// Environments resolves a named environment to its snapshot.
	// Optional; without it, sessions run with no environment data.
	Environments func(name string) (*schema.EnvironmentSnapshot, error)

	// Sources are the enrichment collaborators handed to every
	// session.
	Sources enrich.Sources

	// StageExecMode is the service-wide default for new sessions; a
	// create request can override it.
	StageExecMode bool

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewHandler builds the API handler.
func NewHandler(config HandlerConfig) *Handler {
	if config.Store == nil {
		panic("workbench.Handler: Store is required")
	}
	if config.Presets == nil {
		panic("workbench.Handler: Presets is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:         config.Store,
		presets:       config.Presets,
		launcher:      config.Launcher,
		environments:  config.Environments,
		sources:       config.Sources,
		stageExecMode: config.StageExecMode,
		clock:         clk,
		logger:        logger,
	}
}

// Router builds the chi route tree.
func (h *Handler) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.logRequests)

	router.Get("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": h.store.Len(),
		})
	})

	router.Route("/api/v1/sessions", func(router chi.Router) {
		router.Post("/", h.createSession)
		router.Get("/", h.listSessions)
		router.Route("/{session}", func(router chi.Router) {
			router.Get("/", h.getSession)
			router.Delete("/", h.closeSession)
			router.Get("/document", h.getDocument)
			router.Get("/views", h.getViews)
			router.Get("/notices", h.getNotices)
			router.Get("/validate", h.validateSession)
			router.Post("/submit", h.submitSession)
			router.Route("/jobs/{job}", func(router chi.Router) {
				router.Get("/", h.getJob)
				router.Post("/selection", h.editSelection)
				router.Post("/skip", h.toggleSkip)
				router.Post("/policy", h.setRunPolicy)
				router.Post("/enrich", h.enrichJob)
				router.Post("/check", h.checkStatement)
			})
		})
	})

	return router
}

// logRequests is slog-backed request logging middleware.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
		start := h.clock.Now()
		next.ServeHTTP(wrapped, request)
		h.logger.Info("request",
			"method", request.Method,
			"path", request.URL.Path,
			"status", wrapped.Status(),
			"bytes", wrapped.BytesWritten(),
			"duration", h.clock.Now().Sub(start).Round(time.Microsecond).String(),
		)
	})
}

// --- Session lifecycle ---

type createSessionRequest struct {
	// Workflow and Project name the preset to fetch.
	Workflow string `json:"workflow"`
	Project  string `json:"project"`

	// ApprovalTicket is forwarded to the preset source.
	ApprovalTicket string `json:"approval_ticket,omitempty"`

	// Environment names the target environment snapshot. Empty means
	// no environment data.
	Environment string `json:"environment,omitempty"`

	// Workspace is an opaque client identifier carried for log
	// correlation.
	Workspace string `json:"workspace,omitempty"`

	// StageExec overrides the service default when non-nil.
	StageExec *bool `json:"stage_exec,omitempty"`
}

type sessionSummary struct {
	ID           string    `json:"id"`
	Workflow     string    `json:"workflow"`
	Project      string    `json:"project"`
	Workspace    string    `json:"workspace,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	LastTaskID   string    `json:"last_task_id,omitempty"`
}

func (h *Handler) createSession(writer http.ResponseWriter, request *http.Request) {
	var body createSessionRequest
	if !decodeBody(writer, request, &body) {
		return
	}
	if body.Workflow == "" {
		writeError(writer, http.StatusBadRequest, fmt.Errorf("workflow is required"))
		return
	}

	content, err := h.presets.FetchPreset(request.Context(), gateway.PresetRequest{
		Workflow:       body.Workflow,
		Project:        body.Project,
		ApprovalTicket: body.ApprovalTicket,
	})
	if err != nil {
		writeError(writer, http.StatusBadGateway, err)
		return
	}

	var env *schema.EnvironmentSnapshot
	if body.Environment != "" {
		if h.environments == nil {
			writeError(writer, http.StatusBadRequest, fmt.Errorf("environment snapshots are not configured"))
			return
		}
		env, err = h.environments(body.Environment)
		if err != nil {
			writeError(writer, http.StatusBadRequest, err)
			return
		}
	}

	stageExec := h.stageExecMode
	if body.StageExec != nil {
		stageExec = *body.StageExec
	}

	sess, err := session.New(session.Config{
		Document:      content,
		Environment:   env,
		Sources:       h.sources,
		Launcher:      h.launcher,
		StageExecMode: stageExec,
		Workspace:     body.Workspace,
		Clock:         h.clock,
		Logger:        h.logger,
	})
	if err != nil {
		writeError(writer, http.StatusBadRequest, err)
		return
	}
	h.store.Add(sess)

	views, err := sess.Views()
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writeJSON(writer, http.StatusCreated, map[string]any{
		"id":    sess.ID(),
		"views": views,
	})
}

func (h *Handler) listSessions(writer http.ResponseWriter, _ *http.Request) {
	sessions := h.store.List()
	summaries := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, h.summarize(sess))
	}
	writeJSON(writer, http.StatusOK, summaries)
}

func (h *Handler) summarize(sess *session.Session) sessionSummary {
	summary := sessionSummary{
		ID:           sess.ID(),
		Workspace:    sess.Workspace(),
		CreatedAt:    sess.CreatedAt(),
		LastActivity: sess.LastActivity(),
		LastTaskID:   sess.LastTaskID(),
	}
	if document, err := sess.Document(); err == nil {
		summary.Workflow = document.Name
		summary.Project = document.Project
	}
	return summary
}

func (h *Handler) getSession(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	views, err := sess.Views()
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writeJSON(writer, http.StatusOK, map[string]any{
		"session": h.summarize(sess),
		"views":   views,
	})
}

func (h *Handler) closeSession(writer http.ResponseWriter, request *http.Request) {
	id := chi.URLParam(request, "session")
	if !h.store.Remove(id) {
		writeError(writer, http.StatusNotFound, fmt.Errorf("unknown session %q", id))
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getDocument(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	document, err := sess.Document()
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writeJSON(writer, http.StatusOK, document)
}

func (h *Handler) getViews(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	views, err := sess.Views()
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writeJSON(writer, http.StatusOK, views)
}

func (h *Handler) getNotices(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	notices := sess.Notices()
	if notices == nil {
		notices = []string{}
	}
	writeJSON(writer, http.StatusOK, notices)
}

// --- Job operations ---

func (h *Handler) getJob(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	job, revision, err := sess.Job(chi.URLParam(request, "job"))
	if err != nil {
		writeError(writer, http.StatusNotFound, err)
		return
	}
	writeJSON(writer, http.StatusOK, map[string]any{
		"job":      job,
		"revision": revision,
	})
}

type editSelectionRequest struct {
	// Revision is the job revision the client computed the edit
	// against. A mismatch is rejected with 409 and the current
	// revision.
	Revision uint64 `json:"revision"`

	// Selection replaces the job's selection wholesale.
	Selection schema.Selection `json:"selection"`

	// Statement replaces a db-change job's statement when non-nil.
	Statement *string `json:"statement,omitempty"`

	// Approvers replaces the named approval node's approver list.
	Approvers map[string][]string `json:"approvers,omitempty"`
}

type mergeResponse struct {
	Applied       bool   `json:"applied"`
	Revision      uint64 `json:"revision"`
	SelectionKept bool   `json:"selection_kept,omitempty"`
}

func (h *Handler) editSelection(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	var body editSelectionRequest
	if !decodeBody(writer, request, &body) {
		return
	}

	name := chi.URLParam(request, "job")
	result, err := sess.EditJob(name, body.Revision, func(job *schema.Job) {
		job.Selection = body.Selection
		if body.Statement != nil && job.Spec.DBChange != nil {
			job.Spec.DBChange.Statement = *body.Statement
		}
		for nodeName, approvers := range body.Approvers {
			if job.Spec.Approval == nil {
				break
			}
			for i := range job.Spec.Approval.Nodes {
				if job.Spec.Approval.Nodes[i].Name == nodeName {
					job.Spec.Approval.Nodes[i].Approvers = approvers
				}
			}
		}
	})
	if err != nil {
		h.writeEditError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, mergeResponse{
		Applied:       result.Applied,
		Revision:      result.Revision,
		SelectionKept: result.SelectionKept,
	})
}

func (h *Handler) writeEditError(writer http.ResponseWriter, err error) {
	var stale *workflow.StaleEditError
	if errors.As(err, &stale) {
		writeJSON(writer, http.StatusConflict, map[string]any{
			"error":    stale.Error(),
			"revision": stale.Revision,
		})
		return
	}
	var immutable *workflow.ImmutableFieldError
	if errors.As(err, &immutable) {
		writeError(writer, http.StatusUnprocessableEntity, err)
		return
	}
	writeError(writer, http.StatusNotFound, err)
}

func (h *Handler) toggleSkip(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	var body struct {
		Skipped bool `json:"skipped"`
	}
	if !decodeBody(writer, request, &body) {
		return
	}
	result, err := sess.ToggleSkip(chi.URLParam(request, "job"), body.Skipped)
	if err != nil {
		h.writeEditError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, mergeResponse{
		Applied:  result.Applied,
		Revision: result.Revision,
	})
}

func (h *Handler) setRunPolicy(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	var body struct {
		RunPolicy schema.RunPolicy `json:"run_policy"`
	}
	if !decodeBody(writer, request, &body) {
		return
	}
	if !body.RunPolicy.Valid() {
		writeError(writer, http.StatusBadRequest, fmt.Errorf("unknown run policy %q", body.RunPolicy))
		return
	}
	result, err := sess.SetRunPolicy(chi.URLParam(request, "job"), body.RunPolicy)
	if err != nil {
		h.writeEditError(writer, err)
		return
	}
	writeJSON(writer, http.StatusOK, mergeResponse{
		Applied:  result.Applied,
		Revision: result.Revision,
	})
}

func (h *Handler) enrichJob(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	name := chi.URLParam(request, "job")
	if err := sess.EnrichJob(request.Context(), name); err != nil {
		writeError(writer, http.StatusNotFound, err)
		return
	}
	job, revision, err := sess.Job(name)
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writeJSON(writer, http.StatusOK, map[string]any{
		"job":      job,
		"revision": revision,
	})
}

func (h *Handler) checkStatement(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	findings, err := sess.CheckStatement(request.Context(), chi.URLParam(request, "job"))
	if err != nil {
		writeError(writer, http.StatusNotFound, err)
		return
	}
	writeJSON(writer, http.StatusOK, findingsResponse(findings))
}

// --- Validation and submit ---

func (h *Handler) validateSession(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	findings, err := sess.Validate()
	if err != nil {
		writeError(writer, http.StatusInternalServerError, err)
		return
	}
	writeJSON(writer, http.StatusOK, findingsResponse(findings))
}

func (h *Handler) submitSession(writer http.ResponseWriter, request *http.Request) {
	sess, ok := h.lookup(writer, request)
	if !ok {
		return
	}
	if h.launcher == nil {
		writeError(writer, http.StatusServiceUnavailable, fmt.Errorf("no launcher configured"))
		return
	}
	var body struct {
		Debug bool `json:"debug"`
	}
	if !decodeBody(writer, request, &body) {
		return
	}

	taskID, err := sess.Submit(request.Context(), body.Debug)
	if err != nil {
		var invalid *session.ValidationError
		if errors.As(err, &invalid) {
			writeJSON(writer, http.StatusUnprocessableEntity, map[string]any{
				"error":    invalid.Error(),
				"findings": findingsResponse(invalid.Findings),
			})
			return
		}
		var rejected *gateway.RejectionError
		if errors.As(err, &rejected) {
			writeJSON(writer, http.StatusBadGateway, map[string]any{
				"error":  rejected.Message,
				"status": rejected.Status,
			})
			return
		}
		writeError(writer, http.StatusBadGateway, err)
		return
	}
	writeJSON(writer, http.StatusOK, map[string]any{"task_id": taskID})
}

// --- Helpers ---

func (h *Handler) lookup(writer http.ResponseWriter, request *http.Request) (*session.Session, bool) {
	id := chi.URLParam(request, "session")
	sess, ok := h.store.Get(id)
	if !ok {
		writeError(writer, http.StatusNotFound, fmt.Errorf("unknown session %q", id))
		return nil, false
	}
	return sess, true
}

type findingView struct {
	Job     string `json:"job"`
	Message string `json:"message"`
}

func findingsResponse(findings []workflow.Finding) []findingView {
	views := make([]findingView, 0, len(findings))
	for _, finding := range findings {
		views = append(views, findingView{Job: finding.Job, Message: finding.Message})
	}
	return views
}

func decodeBody(writer http.ResponseWriter, request *http.Request, into any) bool {
	defer request.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(request.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		writeError(writer, http.StatusBadRequest, fmt.Errorf("decoding request body: %w", err))
		return false
	}
	return true
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(value)
}

func writeError(writer http.ResponseWriter, status int, err error) {
	writeJSON(writer, status, map[string]string{"error": err.Error()})
}
