package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"intelhub/internal/core"
)

// StatsHandler serves the JSON aggregates behind the dashboard charts.
// Routes are mounted inside the session-gated group; chart drawing itself
// happens client-side.
type StatsHandler struct {
	incidentRepo core.IncidentRepository
	ticketRepo   core.TicketRepository
	datasetRepo  core.DatasetRepository
}

func NewStatsHandler(incidentRepo core.IncidentRepository, ticketRepo core.TicketRepository, datasetRepo core.DatasetRepository) *StatsHandler {
	return &StatsHandler{
		incidentRepo: incidentRepo,
		ticketRepo:   ticketRepo,
		datasetRepo:  datasetRepo,
	}
}

func (h *StatsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/incidents/by-severity", h.groupBy(h.incidentRepo.CountByColumn, "severity"))
	r.Get("/incidents/by-status", h.groupBy(h.incidentRepo.CountByColumn, "status"))
	r.Get("/tickets/by-priority", h.groupBy(h.ticketRepo.CountByColumn, "priority"))
	r.Get("/tickets/by-status", h.groupBy(h.ticketRepo.CountByColumn, "status"))
	r.Get("/datasets/by-category", h.groupBy(h.datasetRepo.CountByColumn, "category"))
	r.Get("/summary", h.Summary)
	return r
}

func (h *StatsHandler) groupBy(count func(string) (map[string]int, error), column string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := count(column)
		if err != nil {
			http.Error(w, `{"error":"aggregation failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, counts)
	}
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.incidentRepo.Count()
	if err != nil {
		http.Error(w, `{"error":"aggregation failed"}`, http.StatusInternalServerError)
		return
	}
	tickets, _ := h.ticketRepo.Count()
	datasets, _ := h.datasetRepo.Count()
	openIncidents, _ := h.incidentRepo.CountWhere("status", core.StatusOpen)
	highSeverity, _ := h.incidentRepo.CountWhere("severity", core.SeverityHigh)
	totalSize, _ := h.datasetRepo.TotalSize()

	writeJSON(w, map[string]int64{
		"incidents":          int64(incidents),
		"tickets":            int64(tickets),
		"datasets":           int64(datasets),
		"open_incidents":     int64(openIncidents),
		"high_severity":      int64(highSeverity),
		"total_dataset_size": totalSize,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
