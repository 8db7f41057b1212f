package solar

import (
	"errors"
	"time"
)

var (
	// ErrEmptyGroupName is returned when a group has no name.
	ErrEmptyGroupName = errors.New("solar: empty group name")
	// ErrNoGroupMembers is returned when a group declares no inverters.
	ErrNoGroupMembers = errors.New("solar: group has no members")
	// ErrNoGroupForDate is returned when no group membership covers a
	// reading's date. Membership is explicit configuration, never inferred
	// from which entity ids happen to appear in a file.
	ErrNoGroupForDate = errors.New("solar: no group membership for date")
)

// InverterGroup declares which physical inverters compose the system over a
// date range. The plant's hardware upgrade replaced a 4-inverter legacy
// array with a 3-inverter one, so membership is a function of the date.
type InverterGroup struct {
	Name    string
	Members []string
	From    time.Time
	To      time.Time // zero means open-ended
}

// Validate checks the group declaration.
func (g InverterGroup) Validate() error {
	if g.Name == "" {
		return ErrEmptyGroupName
	}
	if len(g.Members) == 0 {
		return ErrNoGroupMembers
	}
	return nil
}

// Covers reports whether the membership applies at the given instant.
func (g InverterGroup) Covers(at time.Time) bool {
	if at.Before(g.From) {
		return false
	}
	if !g.To.IsZero() && !at.Before(g.To) {
		return false
	}
	return true
}

// GroupForDate selects the membership valid at the given instant.
func GroupForDate(groups []InverterGroup, at time.Time) (InverterGroup, error) {
	for _, group := range groups {
		if group.Covers(at) {
			return group, nil
		}
	}
	return InverterGroup{}, ErrNoGroupForDate
}
