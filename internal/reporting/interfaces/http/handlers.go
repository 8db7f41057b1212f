package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"energy-dashboard/internal/observability/metrics"
	quality "energy-dashboard/internal/quality/domain"
	reporting "energy-dashboard/internal/reporting/domain"
	"energy-dashboard/internal/reporting/interfaces"
)

const dayLayout = "2006-01-02"

// QualityScorer rates a stored series and estimates its mean.
type QualityScorer interface {
	Score(ctx context.Context, id reporting.SeriesID) (quality.QualityScore, error)
	MeanEstimate(ctx context.Context, id reporting.SeriesID) (quality.Estimate, error)
}

// PipelineRunner re-runs the full ingest pipeline.
type PipelineRunner interface {
	RunAll(ctx context.Context) error
}

type seriesPoint struct {
	Day            string  `json:"day"`
	Quantity       float64 `json:"quantity"`
	Source         string  `json:"source,omitempty"`
	UnitPrice      float64 `json:"unit_price,omitempty"`
	Cost           float64 `json:"cost,omitempty"`
	PeakKW         float64 `json:"peak_kw,omitempty"`
	AvgKW          float64 `json:"avg_kw,omitempty"`
	CapacityFactor float64 `json:"capacity_factor,omitempty"`
}

// SeriesHandler serves stored daily series as JSON.
type SeriesHandler struct {
	repo reporting.SeriesRepository
}

// NewSeriesHandler constructs a SeriesHandler.
func NewSeriesHandler(repo reporting.SeriesRepository) (*SeriesHandler, error) {
	if repo == nil {
		return nil, errors.New("series handler: nil repository")
	}
	return &SeriesHandler{repo: repo}, nil
}

// ServeHTTP handles GET /api/v1/series and GET /api/v1/series?id=...
func (h *SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		ids, err := h.repo.SeriesIDs(r.Context())
		if err != nil {
			http.Error(w, "list series error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ids)
		return
	}

	from, err := parseDayQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDayQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := h.repo.ListSeries(r.Context(), reporting.SeriesID(id), from, to)
	if errors.Is(err, reporting.ErrSeriesNotFound) {
		http.Error(w, "series not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query series error", http.StatusInternalServerError)
		return
	}

	points := make([]seriesPoint, len(records))
	for i, record := range records {
		points[i] = seriesPoint{
			Day:            record.Day.Format(dayLayout),
			Quantity:       record.Quantity,
			Source:         record.Source,
			UnitPrice:      record.UnitPrice,
			Cost:           record.Cost,
			PeakKW:         record.PeakKW,
			AvgKW:          record.AvgKW,
			CapacityFactor: record.CapacityFactor,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(points)
}

// QualityHandler serves on-demand quality scores.
type QualityHandler struct {
	scorer QualityScorer
}

// NewQualityHandler constructs a QualityHandler.
func NewQualityHandler(scorer QualityScorer) (*QualityHandler, error) {
	if scorer == nil {
		return nil, errors.New("quality handler: nil scorer")
	}
	return &QualityHandler{scorer: scorer}, nil
}

// ServeHTTP handles GET /api/v1/quality?id=...
func (h *QualityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	score, err := h.scorer.Score(r.Context(), reporting.SeriesID(id))
	if errors.Is(err, quality.ErrInsufficientData) {
		// An explicit state, not an error page: the dashboard renders
		// "insufficient data" instead of a fabricated score.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"state": "insufficient_data"})
		return
	}
	if errors.Is(err, reporting.ErrSeriesNotFound) {
		http.Error(w, "series not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "score error", http.StatusInternalServerError)
		return
	}

	estimate, err := h.scorer.MeanEstimate(r.Context(), reporting.SeriesID(id))
	if err != nil {
		http.Error(w, "score error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"completeness": score.Completeness,
		"continuity":   score.Continuity,
		"consistency":  score.Consistency,
		"total":        score.Total,
		"grade":        score.Grade,
		"mean":         estimate.Mean,
		"mean_lower":   estimate.Lower,
		"mean_upper":   estimate.Upper,
		"has_interval": estimate.HasInterval,
	})
}

// ExportHandler serves CSV/XLSX/PDF exports of a stored series.
type ExportHandler struct {
	repo reporting.SeriesRepository
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(repo reporting.SeriesRepository) (*ExportHandler, error) {
	if repo == nil {
		return nil, errors.New("export handler: nil repository")
	}
	return &ExportHandler{repo: repo}, nil
}

// ServeHTTP handles GET /api/v1/exports/{series}.{csv|xlsx|pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		http.Error(w, "export format is required", http.StatusBadRequest)
		return
	}
	id := reporting.SeriesID(name[:dot])
	format := name[dot+1:]

	records, err := h.repo.ListSeries(r.Context(), id, time.Time{}, time.Time{})
	if errors.Is(err, reporting.ErrSeriesNotFound) {
		http.Error(w, "series not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query series error", http.StatusInternalServerError)
		return
	}

	started := time.Now()
	var payload []byte
	var contentType string
	switch format {
	case "csv":
		payload, err = interfaces.BuildSeriesCSV(records)
		contentType = "text/csv"
	case "xlsx":
		payload, err = interfaces.BuildSeriesXLSX(id, records)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = interfaces.BuildSeriesPDF(id, records, time.Now().UTC())
		contentType = "application/pdf"
	default:
		http.Error(w, "unsupported export format", http.StatusBadRequest)
		return
	}
	metrics.ObserveExport(format, err, time.Since(started))
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	_, _ = w.Write(payload)
}

// RefreshHandler re-runs the pipeline over the configured feeds.
type RefreshHandler struct {
	runner PipelineRunner
	logger *log.Logger
}

// NewRefreshHandler constructs a RefreshHandler.
func NewRefreshHandler(runner PipelineRunner, logger *log.Logger) (*RefreshHandler, error) {
	if runner == nil {
		return nil, errors.New("refresh handler: nil runner")
	}
	if logger == nil {
		return nil, errors.New("refresh handler: nil logger")
	}
	return &RefreshHandler{runner: runner, logger: logger}, nil
}

// ServeHTTP handles POST /api/v1/refresh.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.runner.RunAll(r.Context()); err != nil {
		h.logger.Printf("refresh: %v", err)
		http.Error(w, "refresh error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseDayQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(dayLayout, raw)
	if err != nil {
		return time.Time{}, errors.New(key + " must be YYYY-MM-DD")
	}
	return day.UTC(), nil
}
