package application

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"sync"
	"time"

	"energy-dashboard/internal/observability/metrics"
	quality "energy-dashboard/internal/quality/domain"
	reporting "energy-dashboard/internal/reporting/domain"
)

// QualityService scores stored series on demand. Scores are memoized by a
// content hash of the input snapshot, not a wall-clock TTL: if the
// underlying series changes the key changes, so a stale score can never be
// served.
type QualityService struct {
	repo   reporting.SeriesRepository
	scorer *quality.Scorer

	expectedFrom time.Time
	expectedTo   time.Time

	mu    sync.Mutex
	cache map[string]quality.QualityScore
}

// QualityOption tunes a QualityService.
type QualityOption func(*QualityService)

// WithExpectedRange judges completeness against a nominal coverage window
// instead of each series' own observed span, so days missing at the start
// or end of the window lower the score too.
func WithExpectedRange(from, to time.Time) QualityOption {
	return func(s *QualityService) {
		s.expectedFrom = from
		s.expectedTo = to
	}
}

// NewQualityService constructs the service.
func NewQualityService(repo reporting.SeriesRepository, scorer *quality.Scorer, opts ...QualityOption) (*QualityService, error) {
	if repo == nil {
		return nil, errors.New("quality service: nil repository")
	}
	if scorer == nil {
		return nil, errors.New("quality service: nil scorer")
	}
	service := &QualityService{
		repo:   repo,
		scorer: scorer,
		cache:  make(map[string]quality.QualityScore),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Score loads a series and rates it over the configured expected range, or
// over its own observed date range when none is configured.
// quality.ErrInsufficientData propagates so callers can render an explicit
// "not enough data" state instead of a fabricated number.
func (s *QualityService) Score(ctx context.Context, id reporting.SeriesID) (quality.QualityScore, error) {
	records, err := s.repo.ListSeries(ctx, id, time.Time{}, time.Time{})
	if err != nil {
		return quality.QualityScore{}, err
	}

	if len(records) == 0 {
		return quality.QualityScore{}, quality.ErrInsufficientData
	}
	series := make([]quality.DatedValue, len(records))
	for i, record := range records {
		series[i] = quality.DatedValue{Date: record.Day, Value: record.Quantity}
	}

	from, to := series[0].Date, series[len(series)-1].Date
	if !s.expectedFrom.IsZero() {
		from, to = s.expectedFrom, s.expectedTo
	}

	key := snapshotHash(id, series, from, to)
	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	score, err := s.scorer.Score(series, from, to)
	if err != nil {
		return quality.QualityScore{}, err
	}

	s.mu.Lock()
	s.cache[key] = score
	s.mu.Unlock()
	metrics.SetQualityScore(string(id), score.Total)
	return score, nil
}

// MeanEstimate returns the series mean with its 95% confidence interval
// when one is computable. Degenerate series keep the point estimate with
// HasInterval false, so report surfaces can always render a band.
func (s *QualityService) MeanEstimate(ctx context.Context, id reporting.SeriesID) (quality.Estimate, error) {
	records, err := s.repo.ListSeries(ctx, id, time.Time{}, time.Time{})
	if err != nil {
		return quality.Estimate{}, err
	}
	if len(records) == 0 {
		return quality.Estimate{}, quality.ErrInsufficientData
	}
	values := make([]float64, len(records))
	for i, record := range records {
		values[i] = record.Quantity
	}
	return quality.MeanConfidenceInterval(values), nil
}

// snapshotHash keys the memo by series identity, content, and the range the
// series is judged against.
func snapshotHash(id reporting.SeriesID, series []quality.DatedValue, from, to time.Time) string {
	hasher := sha256.New()
	hasher.Write([]byte(id))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(from.Unix()))
	binary.BigEndian.PutUint64(buf[8:], uint64(to.Unix()))
	hasher.Write(buf[:])
	for _, point := range series {
		binary.BigEndian.PutUint64(buf[:8], uint64(point.Date.Unix()))
		binary.BigEndian.PutUint64(buf[8:], math.Float64bits(point.Value))
		hasher.Write(buf[:])
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
