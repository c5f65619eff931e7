package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lingoroots/backend/internal/tasks"
	"go.uber.org/zap"
)

const manualJobUniqueFor = time.Minute

// MaintenanceEnqueuer enqueues maintenance jobs on the worker queue
type MaintenanceEnqueuer interface {
	EnqueueMaintenance(ctx context.Context, typename string, uniqueFor time.Duration) error
}

var maintenanceJobs = map[string]string{
	"streak-reset":        tasks.TypeStreakReset,
	"leaderboard-rebuild": tasks.TypeLeaderboardRebuild,
	"token-cleanup":       tasks.TypeTokenCleanup,
}

// MaintenanceHandler lets operators trigger scheduled jobs on demand
type MaintenanceHandler struct {
	BaseHandler
	enqueuer MaintenanceEnqueuer
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(enqueuer MaintenanceEnqueuer, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler: BaseHandler{Logger: logger},
		enqueuer:    enqueuer,
	}
}

// RegisterRoutes registers internal routes behind apiKeyMiddleware
func (h *MaintenanceHandler) RegisterRoutes(r chi.Router, apiKeyMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware)
		r.Post("/internal/jobs/{job}", h.TriggerJob)
	})
}

// TriggerJob handles POST /internal/jobs/{job}
// @Summary Trigger a maintenance job
// @Description Enqueue streak-reset, leaderboard-rebuild or token-cleanup now. Requires the X-API-Key header.
// @Tags internal
// @Produce json
// @Param X-API-Key header string true "Internal API key"
// @Param job path string true "Job name"
// @Success 202 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string "Unknown job"
// @Failure 500 {object} map[string]string
// @Router /internal/jobs/{job} [post]
func (h *MaintenanceHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	typename, ok := maintenanceJobs[job]
	if !ok {
		h.RespondError(w, http.StatusNotFound, "unknown job")
		return
	}

	if err := h.enqueuer.EnqueueMaintenance(r.Context(), typename, manualJobUniqueFor); err != nil {
		h.HandleServiceError(w, err, "failed to enqueue job")
		return
	}

	h.Logger.Info("Maintenance job triggered", zap.String("task", typename))
	h.RespondJSON(w, http.StatusAccepted, map[string]string{"task": typename})
}
