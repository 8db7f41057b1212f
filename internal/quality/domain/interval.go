package quality

import "math"

// Estimate is a point estimate with an optional confidence interval.
// HasInterval is false when the input cannot support one (fewer than two
// points, or zero variance); the point estimate is still returned rather
// than NaN or an error.
type Estimate struct {
	Mean        float64
	Lower       float64
	Upper       float64
	HasInterval bool
}

// Two-sided 95% critical values of Student's t for small samples; larger
// samples use the normal approximation.
var tCritical95 = map[int]float64{
	1: 12.706, 2: 4.303, 3: 3.182, 4: 2.776, 5: 2.571,
	6: 2.447, 7: 2.365, 8: 2.306, 9: 2.262, 10: 2.228,
	15: 2.131, 20: 2.086, 25: 2.060, 30: 2.042,
}

// MeanConfidenceInterval returns the mean of the values with a 95%
// confidence interval when one is computable.
func MeanConfidenceInterval(values []float64) Estimate {
	if len(values) == 0 {
		return Estimate{}
	}

	var sum float64
	for _, value := range values {
		sum += value
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return Estimate{Mean: mean, Lower: mean, Upper: mean}
	}

	var sq float64
	for _, value := range values {
		diff := value - mean
		sq += diff * diff
	}
	variance := sq / float64(len(values)-1)
	if variance == 0 {
		return Estimate{Mean: mean, Lower: mean, Upper: mean}
	}

	sem := math.Sqrt(variance / float64(len(values)))
	margin := tScore(len(values)-1) * sem
	return Estimate{
		Mean:        mean,
		Lower:       mean - margin,
		Upper:       mean + margin,
		HasInterval: true,
	}
}

func tScore(df int) float64 {
	if t, ok := tCritical95[df]; ok {
		return t
	}
	if df > 60 {
		return 1.960
	}
	for _, step := range []int{30, 25, 20, 15, 10} {
		if df > step {
			return tCritical95[step]
		}
	}
	return 1.960
}
