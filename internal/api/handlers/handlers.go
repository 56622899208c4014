// Package handlers implements the REST API endpoint handlers for relaydns.
//
// Endpoints:
//   - GET /api/v1/health   - liveness check
//   - GET /api/v1/stats    - relay counters plus runtime and host metrics
//   - GET /api/v1/querylog - recent entries from the persistent query log
//
// All endpoints honor the optional X-API-Key protection configured on the
// route group.
package handlers

import (
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mstock/relaydns/internal/querylog"
	"github.com/mstock/relaydns/internal/stats"
)

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	logger    *slog.Logger
	snapshot  func() stats.Snapshot
	qlog      *querylog.Store
	startTime time.Time
}

// New creates a Handler. snapshot supplies relay counters; qlog may be nil
// when the query log is disabled.
func New(logger *slog.Logger, snapshot func() stats.Snapshot, qlog *querylog.Store) *Handler {
	return &Handler{
		logger:    logger,
		snapshot:  snapshot,
		qlog:      qlog,
		startTime: time.Now(),
	}
}

// StatusResponse is the health check body.
type StatusResponse struct {
	Status string `json:"status"`
}

// HostStats are best-effort metrics about the machine the relay runs on.
type HostStats struct {
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	MemoryTotalMB     float64 `json:"memory_total_mb"`
	Load1             float64 `json:"load1"`
	Load5             float64 `json:"load5"`
	Load15            float64 `json:"load15"`
	UptimeSeconds     uint64  `json:"uptime_seconds"`
}

// StatsResponse is the /stats body.
type StatsResponse struct {
	Uptime        string         `json:"uptime"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     time.Time      `json:"start_time"`
	GoRoutines    int            `json:"goroutines"`
	MemoryAllocMB float64        `json:"memory_alloc_mb"`
	NumCPU        int            `json:"num_cpu"`
	Relay         stats.Snapshot `json:"relay"`
	Host          *HostStats     `json:"host,omitempty"`
}

// Health returns server liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Stats returns relay counters plus runtime and host metrics.
func (h *Handler) Stats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)
	resp := StatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		GoRoutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
		NumCPU:        runtime.NumCPU(),
	}
	if h.snapshot != nil {
		resp.Relay = h.snapshot()
	}
	resp.Host = collectHostStats()

	c.JSON(http.StatusOK, resp)
}

// collectHostStats gathers host metrics; any probe failure just omits the
// section rather than failing the request.
func collectHostStats() *HostStats {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil
	}
	hs := &HostStats{
		MemoryUsedPercent: vm.UsedPercent,
		MemoryTotalMB:     float64(vm.Total) / 1024 / 1024,
	}
	if avg, err := load.Avg(); err == nil {
		hs.Load1, hs.Load5, hs.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	if up, err := host.Uptime(); err == nil {
		hs.UptimeSeconds = up
	}
	return hs
}

// QueryLogEntry is one row of the /querylog body.
type QueryLogEntry struct {
	Time          time.Time `json:"time"`
	Client        string    `json:"client"`
	QName         string    `json:"qname"`
	QType         uint16    `json:"qtype"`
	Outcome       string    `json:"outcome"`
	RTTMillis     int64     `json:"rtt_ms"`
	ResponseBytes int       `json:"response_bytes"`
}

// QueryLog returns recent query log entries, newest first.
// Query parameter: limit (default 100, max 1000).
func (h *Handler) QueryLog(c *gin.Context) {
	if h.qlog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "query log disabled"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, 1000)
	}

	entries, err := h.qlog.Recent(limit)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("query log read failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query log read failed"})
		return
	}

	out := make([]QueryLogEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, QueryLogEntry{
			Time:          e.Time,
			Client:        e.Client,
			QName:         e.QName,
			QType:         e.QType,
			Outcome:       e.Outcome,
			RTTMillis:     e.RTT.Milliseconds(),
			ResponseBytes: e.ResponseBytes,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}
