package quality

// Grade buckets a total score for display.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// QualityScore is the composite 0-100 reliability of a daily series. It is
// recomputed from a snapshot on every request, never cached next to data
// that could have changed underneath it.
type QualityScore struct {
	Completeness float64 // 0-40
	Continuity   float64 // 0-30
	Consistency  float64 // 0-30
	Total        float64 // 0-100
	Grade        Grade
}

func gradeFor(total float64) Grade {
	switch {
	case total >= 90:
		return GradeA
	case total >= 75:
		return GradeB
	case total >= 60:
		return GradeC
	default:
		return GradeD
	}
}
