// Package api serves the HTTP surface: ingestion, retrieval and answering.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"

	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/models"
	"docqa/internal/providers"
	"docqa/internal/query"
	"docqa/internal/workflows"
)

type Server struct {
	cfg      config.Config
	queries  *query.Service
	temporal tclient.Client
	metrics  *Metrics
}

func NewServer(cfg config.Config) (*Server, error) {
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	store := index.NewStore(cfg.IndexRoot)
	queries := query.NewService(store, pm.EmbedProvider(), pm.LLMProvider(), query.Config{
		EmbedDim: cfg.EmbedDim,
		DefaultK: cfg.DefaultTopK,
	})
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		return nil, fmt.Errorf("dial temporal: %w", err)
	}
	return &Server{cfg: cfg, queries: queries, temporal: tc, metrics: NewMetrics(nil)}, nil
}

// NewServerWith wires a server over prebuilt collaborators. Used by tests.
func NewServerWith(cfg config.Config, queries *query.Service, tc tclient.Client, m *Metrics) *Server {
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Server{cfg: cfg, queries: queries, temporal: tc, metrics: m}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.instrument("health", s.handleHealth))
	mux.HandleFunc("/ingest", s.instrument("ingest", s.handleIngest))
	mux.HandleFunc("/ingest/", s.instrument("ingest_progress", s.handleIngestProgress))
	mux.HandleFunc("/query", s.instrument("query", s.handleQuery))
	mux.HandleFunc("/ask", s.instrument("ask", s.handleAsk))
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	return withCORS(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest starts (or joins) the project's ingestion workflow and waits
// for the result. The workflow ID is project-scoped, so a second request
// while a run is in flight attaches to the running workflow instead of
// starting another.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	if req.ProjectID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("project_id is required"))
		return
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                       "ingest-" + req.ProjectID,
		TaskQueue:                s.cfg.TemporalTaskQueue,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}, workflows.IngestProjectWorkflow, workflows.IngestProjectInput{
		ProjectID: req.ProjectID,
		RunID:     uuid.NewString(),
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("start ingest workflow: %w", err))
		return
	}

	var result models.IngestResult
	if err := we.Get(r.Context(), &result); err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("ingest workflow failed: %w", err))
		return
	}
	s.metrics.ObserveIngest(result)
	writeJSON(w, http.StatusOK, result)
}

// handleIngestProgress reports live progress for a running ingestion via the
// workflow's query handler.
func (s *Server) handleIngestProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	projectID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ingest/"), "/")
	if projectID == "" || strings.Contains(projectID, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	val, err := s.temporal.QueryWorkflow(r.Context(), "ingest-"+projectID, "", workflows.QueryGetIngestProgress)
	if err != nil {
		writeErr(w, http.StatusNotFound, fmt.Errorf("no ingest in progress for project: %w", err))
		return
	}
	var progress workflows.IngestProgress
	if err := val.Get(&progress); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	req, ok := s.decodeQuestion(w, r)
	if !ok {
		return
	}
	res, err := s.queries.Query(r.Context(), req.ProjectID, req.Question, req.K)
	if err != nil {
		writeQueryErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	req, ok := s.decodeQuestion(w, r)
	if !ok {
		return
	}
	res, answer, err := s.queries.Ask(r.Context(), req.ProjectID, req.Question, req.K)
	if err != nil {
		writeQueryErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     res.Status,
		"message":    res.Message,
		"project_id": res.ProjectID,
		"question":   res.Question,
		"answer":     answer,
		"matches":    res.Matches,
	})
}

type questionRequest struct {
	ProjectID string `json:"project_id"`
	Question  string `json:"question"`
	K         *int   `json:"k,omitempty"`
}

func (s *Server) decodeQuestion(w http.ResponseWriter, r *http.Request) (questionRequest, bool) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return questionRequest{}, false
	}
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	req.Question = strings.TrimSpace(req.Question)
	return req, true
}

func writeQueryErr(w http.ResponseWriter, err error) {
	var invalid *query.InvalidArgumentError
	if errors.As(err, &invalid) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeErr(w, http.StatusInternalServerError, err)
}

// instrument wraps a handler with request counting and latency observation.
func (s *Server) instrument(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		s.metrics.ObserveRequest(name, r.Method, sw.status, time.Since(start))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "DQ-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{Code: "DQ-API-5002", Message: "A backing service is unavailable. Check local services and retry."}
		case strings.Contains(raw, "corrupt"):
			return apiError{Code: "DQ-IDX-5003", Message: "Stored index is corrupt and must be rebuilt."}
		case strings.Contains(raw, "embedding model"):
			return apiError{Code: "DQ-IDX-5004", Message: "Index was built with a different embedding model. Rebuild the index or restore the original model."}
		default:
			return apiError{Code: "DQ-API-5000", Message: "Internal server error. Please retry or check service logs."}
		}
	case status == http.StatusBadRequest:
		code = "DQ-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "DQ-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "DQ-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "project_id is required"):
			msg = "Project is required."
		case strings.Contains(raw, "question is required"):
			msg = "Question is required."
		case strings.Contains(raw, "k must be positive"):
			msg = "k must be a positive integer."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
