package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"pdfshelf/internal/indexer"
	"pdfshelf/internal/pdf"
	"pdfshelf/internal/store"
)

type Handlers struct {
	store     *store.Store
	indexer   *indexer.Indexer
	covers    *pdf.CoverRenderer
	startTime time.Time
}

func New(st *store.Store, idx *indexer.Indexer, covers *pdf.CoverRenderer) *Handlers {
	return &Handlers{
		store:     st,
		indexer:   idx,
		covers:    covers,
		startTime: time.Now(),
	}
}

// RegisterRoutes attaches all API and operational routes to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router, metricsEnabled bool) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("liveness")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet).Name("readiness")
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet).Name("metrics")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pdfs", h.ListPdfs).Methods(http.MethodGet).Name("list-pdfs")
	api.HandleFunc("/pdfs/{hash}", h.GetPdf).Methods(http.MethodGet).Name("get-pdf")
	api.HandleFunc("/cover/{hash}", h.GetCover).Methods(http.MethodGet).Name("get-cover")
	api.HandleFunc("/scan", h.TriggerScan).Methods(http.MethodPost).Name("trigger-scan")
	api.HandleFunc("/scan/status", h.ScanStatus).Methods(http.MethodGet).Name("scan-status")
}
