package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/analysis"
	"github.com/sells-group/coverage-cli/internal/dataset"
	"github.com/sells-group/coverage-cli/internal/ingest"
	"github.com/sells-group/coverage-cli/internal/report"
)

type coverageResponse struct {
	Version    string       `json:"version"`
	RadiusKM   float64      `json:"radius_km"`
	MaxWeight  int64        `json:"max_weight"`
	ComputedAt time.Time    `json:"computed_at"`
	Cached     bool         `json:"cached"`
	Rows       []report.Row `json:"rows"`
}

type datasetResponse struct {
	Version      string          `json:"version"`
	LoadedAt     time.Time       `json:"loaded_at"`
	Locations    int             `json:"locations"`
	DemandPoints int             `json:"demand_points"`
	TotalDemand  int64           `json:"total_demand"`
	Reports      []ingest.Report `json:"reports"`
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.summary(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, coverageResponse{
		Version:    sum.Version.String(),
		RadiusKM:   sum.RadiusKM,
		MaxWeight:  sum.MaxWeight,
		ComputedAt: sum.ComputedAt,
		Cached:     sum.Cached,
		Rows:       report.FromSummary(sum),
	})
}

func (s *Server) handleCoverageCSV(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.summary(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.DefaultFileName+`"`)
	if err := report.WriteCSV(w, report.FromSummary(sum)); err != nil {
		zap.L().Error("server: write csv", zap.Error(err))
	}
}

func (s *Server) handleCoverageGeoJSON(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.summary(w, r)
	if !ok {
		return
	}
	data, err := report.WorkshopsGeoJSON(report.FromSummary(sum))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "geojson encoding failed")
		return
	}
	writeRaw(w, "application/geo+json", data)
}

func (s *Server) handleDemandGeoJSON(w http.ResponseWriter, _ *http.Request) {
	snap := s.holder.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no dataset loaded")
		return
	}
	data, err := report.DemandGeoJSON(snap.Demand)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "geojson encoding failed")
		return
	}
	writeRaw(w, "application/geo+json", data)
}

func (s *Server) handleDataset(w http.ResponseWriter, _ *http.Request) {
	snap := s.holder.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no dataset loaded")
		return
	}
	writeJSON(w, http.StatusOK, describe(snap))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeError(w, http.StatusNotImplemented, "reload not configured")
		return
	}
	snap, err := s.holder.Reload(r.Context(), s.loader)
	if err != nil {
		writeError(w, http.StatusBadGateway, "reload failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, describe(snap))
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Cache().Stats())
}

// summary parses radius and session and runs the engine, writing an error
// response when it fails.
func (s *Server) summary(w http.ResponseWriter, r *http.Request) (*analysis.Summary, bool) {
	radius := s.cfg.DefaultRadiusKM
	if raw := strings.TrimSpace(r.URL.Query().Get("radius")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "radius must be a number")
			return nil, false
		}
		radius = v
	}

	session := r.URL.Query().Get("session")
	if session == "" {
		session = r.Header.Get("X-Session-ID")
	}

	sum, err := s.engine.Coverage(r.Context(), session, radius)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			zap.L().Error("server: coverage failed", zap.Float64("radius_km", radius), zap.Error(err))
		}
		writeError(w, status, msg)
		return nil, false
	}
	return sum, true
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, analysis.ErrRadiusOutOfRange):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, analysis.ErrNoSnapshot):
		return http.StatusServiceUnavailable, "no dataset loaded"
	case errors.Is(err, analysis.ErrSuperseded):
		return http.StatusConflict, "superseded by a newer request"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "computation timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request cancelled"
	default:
		return http.StatusInternalServerError, "coverage computation failed"
	}
}

func describe(snap *dataset.Snapshot) datasetResponse {
	reports := snap.Reports
	if reports == nil {
		reports = []ingest.Report{}
	}
	return datasetResponse{
		Version:      snap.Version.String(),
		LoadedAt:     snap.LoadedAt,
		Locations:    len(snap.Locations),
		DemandPoints: len(snap.Demand),
		TotalDemand:  snap.TotalDemand(),
		Reports:      reports,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeRaw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
