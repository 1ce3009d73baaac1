package handlers

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"pdfshelf/internal/logging"
	"pdfshelf/internal/store"
)

// ListPdfs returns every indexed record, sorted by path.
func (h *Handlers) ListPdfs(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.All(r.Context())
	if err != nil {
		logging.Error("Failed to list records: %v", err)
		writeJSONError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.PdfMetadata{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, records)
}

// GetPdf returns the record for one content hash.
func (h *Handlers) GetPdf(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	if !isHexHash(hash) {
		writeJSONError(w, "invalid hash", http.StatusBadRequest)
		return
	}

	record, err := h.store.LookupByHash(r.Context(), hash)
	if err != nil {
		logging.Error("Lookup failed for %s: %v", hash, err)
		writeJSONError(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if record == nil {
		writeJSONError(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, record)
}

// GetCover serves the cover thumbnail for one content hash.
func (h *Handlers) GetCover(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	if !isHexHash(hash) {
		writeJSONError(w, "invalid hash", http.StatusBadRequest)
		return
	}

	record, err := h.store.LookupByHash(r.Context(), hash)
	if err != nil {
		logging.Error("Lookup failed for %s: %v", hash, err)
		writeJSONError(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if record == nil || record.CoverPath == "" {
		writeJSONError(w, "no cover", http.StatusNotFound)
		return
	}

	coverPath := h.covers.CoverPath(record.CoverPath)
	if _, err := os.Stat(coverPath); err != nil {
		writeJSONError(w, "no cover", http.StatusNotFound)
		return
	}

	// Covers are content-addressed; the bytes for a hash never change.
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, coverPath)
}

// TriggerScan starts a background scan unless one is already running.
func (h *Handlers) TriggerScan(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.indexer.IsScanning() {
		w.WriteHeader(http.StatusConflict)
		writeJSON(w, map[string]string{"status": "already_running"})
		return
	}

	h.indexer.TriggerScan()
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "started"})
}

// ScanStatus returns the current scan progress snapshot.
func (h *Handlers) ScanStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.indexer.Status())
}
