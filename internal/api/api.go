package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/alert"
	"github.com/Capitan-Parrot/safety-monitor/internal/config"
	"github.com/Capitan-Parrot/safety-monitor/internal/database"
	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/Capitan-Parrot/safety-monitor/internal/monitor"
	"github.com/gorilla/mux"
)

// Handlers serves the read-only health/status surface.
type Handlers struct {
	cfg   *config.Config
	stats *monitor.Registry
	queue *alert.Queue
	db    *database.Database // nil when persistence is disabled
}

func NewHandlers(cfg *config.Config, stats *monitor.Registry, queue *alert.Queue, db *database.Database) *Handlers {
	return &Handlers{cfg: cfg, stats: stats, queue: queue, db: db}
}

// Router wires the read endpoints.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/status", h.StatusHandler).Methods(http.MethodGet)
	r.HandleFunc("/feeds", h.FeedsHandler).Methods(http.MethodGet)
	r.HandleFunc("/alerts", h.AlertsHandler).Methods(http.MethodGet)
	return r
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// StatusResponse is the aggregate observability snapshot.
type StatusResponse struct {
	Time       string                      `json:"time"`
	QueueDepth int                         `json:"queue_depth"`
	Feeds      map[string]models.FeedStats `json:"feeds"`
}

func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{
		Time:       time.Now().UTC().Format(time.RFC3339),
		QueueDepth: h.queue.Depth(),
		Feeds:      h.stats.Snapshot(),
	})
}

func (h *Handlers) FeedsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.cfg.Feeds)
}

func (h *Handlers) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "alert history disabled", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	alerts, err := h.db.RecentAlerts(r.Context(), limit)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, alerts)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
