package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fortuna/diana/internal/collect"
	"github.com/fortuna/diana/internal/reconcile"
	"github.com/fortuna/diana/internal/store"
	"github.com/fortuna/diana/internal/store/repository"
)

// SchedulerStatus reports scheduler configuration for the status
// endpoint.
type SchedulerStatus interface {
	GetStatus() map[string]interface{}
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db         *store.Database
	collector  *collect.Service
	profiles   *repository.ProfileRepository
	reconciler *reconcile.Engine
	scheduler  SchedulerStatus
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, collector *collect.Service, profiles *repository.ProfileRepository, reconciler *reconcile.Engine, sched SchedulerStatus) *Handler {
	return &Handler{
		db:         db,
		collector:  collector,
		profiles:   profiles,
		reconciler: reconciler,
		scheduler:  sched,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.db.HealthCheck(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]string{
		"status":  status,
		"service": "diana",
		"version": "1.0.0",
	})
}

// GetStatus handles GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.collector.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active run",
		"history": []map[string]interface{}{},
	}

	if summary.ActiveRun != nil {
		response["status"] = summary.ActiveRun.Status
		if summary.ActiveRun.StatusMessage.Valid {
			response["message"] = summary.ActiveRun.StatusMessage.String
		}
		response["active_run"] = runPayload(summary.ActiveRun)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, run := range summary.History {
		history = append(history, runPayload(run))
	}
	response["history"] = history

	if h.scheduler != nil {
		response["scheduler"] = h.scheduler.GetStatus()
	}

	respondJSON(w, http.StatusOK, response)
}

// ListRuns handles GET /api/v1/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 20 // default
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	runs, err := h.collector.Repo().ListRecentRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch runs", err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		payload = append(payload, runPayload(run))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  payload,
		"count": len(payload),
	})
}

// GetRunEvents handles GET /api/v1/runs/{runID}/events
func (h *Handler) GetRunEvents(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	runID, err := strconv.ParseInt(vars["runID"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run ID", err)
		return
	}

	events, err := h.collector.Repo().ListEvents(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch run events", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// HandleCollectRequest handles POST /api/v1/collect
func (h *Handler) HandleCollectRequest(w http.ResponseWriter, r *http.Request) {
	var req collect.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	run, err := h.collector.Enqueue(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue collection run", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"run": runPayload(run),
	})
}

// ListProfiles handles GET /api/v1/profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	entries, err := h.profiles.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch profiles", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": entries,
		"count":    len(entries),
	})
}

// HandleReconcile handles POST /api/v1/reconcile
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Repair(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to reconcile manifest", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// runPayload flattens a run row for JSON responses
func runPayload(run *collect.Run) map[string]interface{} {
	if run == nil {
		return nil
	}

	payload := map[string]interface{}{
		"run_id":           run.RunID,
		"season_year":      run.SeasonYear,
		"dry_run":          run.DryRun,
		"status":           run.Status,
		"progress_current": run.ProgressCurrent,
		"progress_total":   run.ProgressTotal,
		"games_collected":  run.GamesCollected,
		"games_skipped":    run.GamesSkipped,
		"stat_rows":        run.StatRows,
		"profiles_fetched": run.ProfilesFetched,
		"api_calls":        run.APICalls,
		"warnings":         run.Warnings,
		"created_at":       run.CreatedAt,
		"updated_at":       run.UpdatedAt,
	}

	if run.StatusMessage.Valid {
		payload["status_message"] = run.StatusMessage.String
	}
	if run.StartedAt.Valid {
		payload["started_at"] = run.StartedAt.Time
	}
	if run.CompletedAt.Valid {
		payload["completed_at"] = run.CompletedAt.Time
	}
	if run.LastError.Valid {
		payload["last_error"] = run.LastError.String
	}

	return payload
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
