package quality

import (
	"errors"
	"sort"
	"time"
)

const defaultMinPoints = 3

var (
	// ErrInsufficientData is returned when a series has fewer points than
	// the configured minimum. Callers surface an explicit "insufficient
	// data" state instead of a fabricated score.
	ErrInsufficientData = errors.New("quality: insufficient data")
	// ErrInvalidRange is returned when the expected range is empty or
	// reversed.
	ErrInvalidRange = errors.New("quality: invalid expected range")
)

// DatedValue is one day of the series under assessment.
type DatedValue struct {
	Date  time.Time
	Value float64
}

// Scorer computes quality scores. It is a pure function of its input
// snapshot: no state is kept between calls.
type Scorer struct {
	minPoints int
}

// NewScorer constructs a Scorer. A non-positive minPoints gets the default.
func NewScorer(minPoints int) *Scorer {
	if minPoints <= 0 {
		minPoints = defaultMinPoints
	}
	return &Scorer{minPoints: minPoints}
}

// Score rates a daily series against its nominal expected date range.
//
// Completeness (0-40) penalizes missing days within the expected range.
// Continuity (0-30) penalizes gaps longer than 24h between consecutive
// observed days, over the number of possible gap positions. Consistency
// (0-30) penalizes outliers under the Tukey IQR rule (1.5 * IQR fences);
// the IQR rule is used rather than 3 sigma because daily energy values are
// skewed and a few genuine high days would inflate sigma enough to hide
// real sensor faults.
func (s *Scorer) Score(series []DatedValue, expectedFrom, expectedTo time.Time) (QualityScore, error) {
	if len(series) < s.minPoints {
		return QualityScore{}, ErrInsufficientData
	}
	if expectedFrom.IsZero() || expectedTo.IsZero() || expectedTo.Before(expectedFrom) {
		return QualityScore{}, ErrInvalidRange
	}

	days := make([]time.Time, len(series))
	values := make([]float64, len(series))
	for i, point := range series {
		days[i] = truncateDay(point.Date)
		values[i] = point.Value
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	expectedDays := int(truncateDay(expectedTo).Sub(truncateDay(expectedFrom)).Hours()/24) + 1
	observed := make(map[int64]struct{}, len(days))
	missing := 0
	for _, day := range days {
		observed[day.Unix()] = struct{}{}
	}
	for day := truncateDay(expectedFrom); !day.After(truncateDay(expectedTo)); day = day.AddDate(0, 0, 1) {
		if _, ok := observed[day.Unix()]; !ok {
			missing++
		}
	}
	completeness := 40 * (1 - float64(missing)/float64(expectedDays))
	if completeness < 0 {
		completeness = 0
	}

	continuity := 30.0
	if len(days) > 1 {
		gaps := 0
		for i := 1; i < len(days); i++ {
			if days[i].Sub(days[i-1]) > 24*time.Hour {
				gaps++
			}
		}
		continuity = 30 * (1 - float64(gaps)/float64(len(days)-1))
	}

	outliers := countIQROutliers(values)
	consistency := 30 * (1 - float64(outliers)/float64(len(values)))

	score := QualityScore{
		Completeness: completeness,
		Continuity:   continuity,
		Consistency:  consistency,
	}
	score.Total = score.Completeness + score.Continuity + score.Consistency
	score.Grade = gradeFor(score.Total)
	return score, nil
}

// countIQROutliers applies Tukey fences at 1.5 * IQR.
func countIQROutliers(values []float64) int {
	ordered := make([]float64, len(values))
	copy(ordered, values)
	sort.Float64s(ordered)

	q1 := quantile(ordered, 0.25)
	q3 := quantile(ordered, 0.75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	outliers := 0
	for _, value := range values {
		if value < lo || value > hi {
			outliers++
		}
	}
	return outliers
}

// quantile interpolates linearly between closest ranks of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(pos)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
