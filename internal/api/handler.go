package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tachi/internal/crew"
	"tachi/internal/jobs"
	"tachi/pkg/errors"
	"tachi/pkg/logger"
)

// Handler serves the analysis job API.
type Handler struct {
	manager *jobs.Manager
	log     *logger.Logger
}

// NewHandler creates the job API handler.
func NewHandler(manager *jobs.Manager) *Handler {
	return &Handler{
		manager: manager,
		log:     logger.Get().With("component", "api"),
	}
}

// Register mounts the job routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/portfolio/analyze", h.handleAnalyzePortfolio)
	mux.HandleFunc("POST /api/v1/stock/analyze", h.handleAnalyzeStock)
	mux.HandleFunc("GET /api/v1/jobs", h.handleListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", h.handleJobStatus)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", h.handleDeleteJob)
}

// jobView is the wire representation of a job snapshot.
type jobView struct {
	JobID        string          `json:"job_id"`
	Kind         string          `json:"kind"`
	State        string          `json:"state"`
	Attempts     int             `json:"attempts,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorKind    string          `json:"error_kind,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func viewOf(job *jobs.Job) jobView {
	v := jobView{
		JobID:        job.ID.String(),
		Kind:         string(job.Kind),
		State:        string(job.State),
		Attempts:     job.Attempts,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		FinishedAt:   job.FinishedAt,
		ErrorKind:    job.ErrorKind,
		ErrorMessage: job.ErrorMessage,
	}
	if job.State == jobs.StateSucceeded {
		v.Result = job.Result
	}
	return v
}

func (h *Handler) handleAnalyzePortfolio(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	// Reject malformed portfolios up front instead of failing the job later.
	if _, _, err := crew.ParsePortfolioRequest(body); err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	h.submit(w, r, jobs.KindPortfolio, body)
}

func (h *Handler) handleAnalyzeStock(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	if _, err := crew.ParseStockRequest(body); err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	h.submit(w, r, jobs.KindStock, body)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, kind jobs.Kind, body json.RawMessage) {
	job, err := h.manager.Submit(r.Context(), kind, body)
	if err != nil {
		h.log.Error("Job submission failed", "kind", string(kind), "error", err)
		writeError(w, http.StatusInternalServerError, errors.Kind(err), "failed to submit job")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID.String(),
		"state":  string(job.State),
	})
}

func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.manager.Get(r.Context(), id)
	if err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	writeJSON(w, statusCodeFor(job), viewOf(job))
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_input", "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := h.manager.List(r.Context(), limit)
	if err != nil {
		h.writeTaxonomyError(w, err)
		return
	}

	views := make([]jobView, len(list))
	for i, job := range list {
		views[i] = viewOf(job)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  views,
		"count": len(views),
	})
}

func (h *Handler) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.manager.Delete(r.Context(), id); err != nil {
		if errors.Is(err, errors.ErrInvalidInput) {
			writeError(w, http.StatusConflict, "invalid_input", "job is running")
			return
		}
		h.writeTaxonomyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "job not found")
		return uuid.Nil, false
	}
	return id, true
}

// statusCodeFor maps a job snapshot to the polling contract: 202 while the
// work is pending, 200 with the payload on success, and an error status
// derived from the failure kind otherwise.
func statusCodeFor(job *jobs.Job) int {
	switch job.State {
	case jobs.StateQueued, jobs.StateRunning:
		return http.StatusAccepted
	case jobs.StateSucceeded:
		return http.StatusOK
	case jobs.StateTimedOut:
		return http.StatusGatewayTimeout
	default:
		return statusForKind(job.ErrorKind)
	}
}

func statusForKind(kind string) int {
	switch kind {
	case "invalid_input", "configuration_error":
		return http.StatusUnprocessableEntity
	case "timeout_exceeded":
		return http.StatusGatewayTimeout
	case "rate_limit_exceeded":
		return http.StatusTooManyRequests
	case "auth_error", "model_unavailable", "transient_network_error", "task_dependency_failure":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeTaxonomyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrConfiguration):
		writeError(w, http.StatusBadRequest, errors.Kind(err), err.Error())
	default:
		h.log.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.Kind(err), "internal error")
	}
}

func readBody(r *http.Request) (json.RawMessage, error) {
	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read request body")
	}
	if len(body) == 0 {
		return nil, errors.New("empty request body")
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, kind, detail string) {
	writeJSON(w, code, map[string]string{
		"error":      detail,
		"error_kind": kind,
	})
}
