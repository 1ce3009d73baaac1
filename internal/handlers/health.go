package handlers

import (
	"net/http"
	"runtime"
	"time"

	"pdfshelf/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Ready       bool   `json:"ready"`
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Scanning    bool   `json:"scanning"`
	LastScanned string `json:"lastScanned,omitempty"`

	// Progress info
	FilesFound     int64 `json:"filesFound"`
	FilesProcessed int64 `json:"filesProcessed"`
	ScanErrors     int64 `json:"scanErrors"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	TotalPdfs int `json:"totalPdfs"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	scanStatus := h.indexer.Status()
	lastScan := h.indexer.LastScanTime()
	ready := !lastScan.IsZero()

	response := HealthResponse{
		Ready:          ready,
		Version:        startup.Version,
		Uptime:         time.Since(h.startTime).Round(time.Second).String(),
		Scanning:       h.indexer.IsScanning(),
		FilesFound:     scanStatus.FilesFound,
		FilesProcessed: scanStatus.FilesProcessed,
		ScanErrors:     scanStatus.Errors,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
		TotalPdfs:      scanStatus.TotalIndexed,
	}

	if ready {
		response.Status = statusHealthy
		response.LastScanned = lastScan.Format(time.RFC3339)
	} else {
		response.Status = statusStarting
	}

	if count, err := h.store.Count(r.Context()); err == nil {
		response.TotalPdfs = int(count)
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only until the initial scan has completed
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the initial scan has completed
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !h.indexer.LastScanTime().IsZero() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
