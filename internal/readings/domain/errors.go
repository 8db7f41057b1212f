package readings

import "errors"

var (
	// ErrEmptySensorID is returned when a sensor spec has no id.
	ErrEmptySensorID = errors.New("readings: empty sensor id")
	// ErrMissingSensorKind is returned when a sensor spec has no kind.
	ErrMissingSensorKind = errors.New("readings: missing sensor kind")
	// ErrInvalidSensorKind is returned when the kind is unsupported.
	ErrInvalidSensorKind = errors.New("readings: invalid sensor kind")
	// ErrNoReadings is returned when a feed yields no usable rows.
	ErrNoReadings = errors.New("readings: no usable rows")
)

// Validate ensures the spec can safely drive delta extraction.
func (s SensorSpec) Validate() error {
	if s.ID == "" {
		return ErrEmptySensorID
	}
	if s.Kind == "" {
		return ErrMissingSensorKind
	}
	if !s.Kind.IsValid() {
		return ErrInvalidSensorKind
	}
	return nil
}
