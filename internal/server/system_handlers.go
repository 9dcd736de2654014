package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bcutrell/dumbfi/internal/database"
)

// SystemHandlers handles health and status endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	portfolioDB *database.DB
	marketDB    *database.DB
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, portfolioDB, marketDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		portfolioDB: portfolioDB,
		marketDB:    marketDB,
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryPercent float64           `json:"memory_percent"`
	Databases     map[string]string `json:"databases"`
}

// HandleHealth is a lightweight liveness check.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// HandleSystemStatus returns process and database health.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	databases := make(map[string]string)
	status := "ok"
	for _, db := range []*database.DB{h.portfolioDB, h.marketDB} {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(r.Context()); err != nil {
			h.log.Warn().Err(err).Str("db", db.Name()).Msg("Database health check failed")
			databases[db.Name()] = "unhealthy"
			status = "degraded"
		} else {
			databases[db.Name()] = "ok"
		}
	}

	writeJSON(w, SystemStatusResponse{
		Status:        status,
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Databases:     databases,
	})
}

// getSystemStats returns CPU and memory usage percentages.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuAvg := 0.0
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuAvg, 0
	}

	return cpuAvg, memStat.UsedPercent
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
