package handler

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"pantry-api/internal/cache"
	"pantry-api/pkg/response"
)

// PoolStatser exposes connection pool statistics.
type PoolStatser interface {
	Stats() sql.DBStats
}

// Counter counts rows of one record kind.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// AdminHandler serves operational statistics.
type AdminHandler struct {
	pool      PoolStatser
	dialect   string
	counters  map[string]Counter
	cache     cache.Cache
	startTime time.Time
}

// NewAdminHandler creates a new admin handler. counters maps a record kind
// to its repository; c may be nil.
func NewAdminHandler(pool PoolStatser, dialect string, counters map[string]Counter, c cache.Cache) *AdminHandler {
	return &AdminHandler{
		pool:      pool,
		dialect:   dialect,
		counters:  counters,
		cache:     c,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().UTC().Format(time.RFC3339)
	stats["db_type"] = h.dialect

	if h.pool != nil {
		ps := h.pool.Stats()
		stats["pool"] = map[string]interface{}{
			"max_open":       ps.MaxOpenConnections,
			"open":           ps.OpenConnections,
			"in_use":         ps.InUse,
			"idle":           ps.Idle,
			"wait_count":     ps.WaitCount,
			"wait_ms":        ps.WaitDuration.Milliseconds(),
			"max_idle_close": ps.MaxIdleClosed,
		}
	}

	records := make(map[string]interface{}, len(h.counters))
	for kind, c := range h.counters {
		n, err := c.Count(ctx)
		if err != nil {
			log.Warn().Err(err).Str("kind", kind).Msg("count failed")
			records[kind] = map[string]string{"status": "error"}
			continue
		}
		records[kind] = n
	}
	stats["records"] = records

	if h.cache != nil {
		if n, err := h.cache.Len(ctx); err == nil {
			stats["detection_cache"] = map[string]interface{}{"entries": n, "status": "connected"}
		} else {
			log.Warn().Err(err).Msg("cache stats failed")
			stats["detection_cache"] = map[string]interface{}{"status": "error"}
		}
	} else {
		stats["detection_cache"] = map[string]interface{}{"status": "not_configured"}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
