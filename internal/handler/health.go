package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"pantry-api/pkg/apierror"
	"pantry-api/pkg/response"
)

// StartTime tracks when the server started for uptime calculation
var StartTime = time.Now()

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains the health endpoints.
type Handler struct {
	db      Pinger
	service string
	version string
}

// New creates a health handler. db may be nil.
func New(db Pinger, service, version string) *Handler {
	return &Handler{db: db, service: service, version: version}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health handles GET /api/health. It never touches the database.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Status:    "API is running",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

// DBHealthResponse represents the database probe response.
type DBHealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	LatencyMS int64  `json:"latency_ms"`
}

// DBHealth handles GET /api/health/db.
func (h *Handler) DBHealth(w http.ResponseWriter, r *http.Request) {
	latency, err := h.ping(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("database health check failed")
		response.Error(w, apierror.ServiceUnavailable("Failed to connect to the database"))
		return
	}
	response.OK(w, DBHealthResponse{
		Status:    "ok",
		Database:  "connected",
		LatencyMS: latency.Milliseconds(),
	})
}

func (h *Handler) ping(ctx context.Context) (time.Duration, error) {
	if h.db == nil {
		return 0, apierror.ServiceUnavailable("database not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	return time.Since(start), err
}

// StatusChecks represents the checks in status response
type StatusChecks struct {
	Database string  `json:"database"`
	MemoryMB float64 `json:"memory_mb"`
}

// StatusResponse represents the unified status response for uptime monitors
type StatusResponse struct {
	Service       string       `json:"service"`
	Status        string       `json:"status"`
	Timestamp     string       `json:"timestamp"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	PingMS        int64        `json:"ping_ms"`
	Checks        StatusChecks `json:"checks"`
}

// Status handles GET /api/status. It reports "degraded" rather than failing
// when the database is unreachable.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryMB := float64(memStats.Alloc) / 1024 / 1024

	status, dbStatus := "ok", "ok"
	latency, err := h.ping(r.Context())
	if err != nil {
		status, dbStatus = "degraded", "unreachable"
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	response.OK(w, StatusResponse{
		Service:       h.service,
		Status:        status,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(StartTime).Seconds()),
		PingMS:        latency.Milliseconds(),
		Checks: StatusChecks{
			Database: dbStatus,
			MemoryMB: float64(int(memoryMB*100)) / 100,
		},
	})
}
