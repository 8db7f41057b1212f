package solar

import (
	"sort"
	"time"

	readings "energy-dashboard/internal/readings/domain"
)

// GroupResult is the integrated output for one group over one feed.
type GroupResult struct {
	Group    string
	Hourly   []HourEnergy
	Daily    []DayEnergy
	ByMember map[string][]DayEnergy
}

// IntegrateGroup integrates every member sensor of the group and aggregates
// to system level. Hourly energy is the sum across members; daily energy is
// the sum of the day's hours. Peak power is the maximum raw sample across
// the members for that day, never a number derived from the integrated
// energy. Average power is the plain mean of the day's samples.
func (in *Integrator) IntegrateGroup(group InverterGroup, bySensor map[string][]readings.Reading) (GroupResult, error) {
	if err := group.Validate(); err != nil {
		return GroupResult{}, err
	}

	result := GroupResult{Group: group.Name, ByMember: make(map[string][]DayEnergy, len(group.Members))}
	hourTotals := make(map[int64]float64)
	groupDays := make(map[int64]*dayStats)

	for _, member := range group.Members {
		sequence := bySensor[member]
		if len(sequence) == 0 {
			continue
		}
		hours := in.IntegrateSensor(sequence)

		memberDays := make(map[int64]*dayStats)
		for _, hour := range hours {
			hourTotals[hour.Hour.Unix()] += hour.KWh
			day := truncateToDay(hour.Hour).Unix()
			stats := memberDays[day]
			if stats == nil {
				stats = &dayStats{}
				memberDays[day] = stats
			}
			stats.kwh += hour.KWh
		}
		for _, r := range sequence {
			if r.Value < 0 {
				continue
			}
			day := truncateToDay(r.TS).Unix()
			stats := memberDays[day]
			if stats == nil {
				continue
			}
			if r.Value > stats.peak {
				stats.peak = r.Value
			}
			stats.sum += r.Value
			stats.samples++

			groupStats := groupDays[day]
			if groupStats == nil {
				groupStats = &dayStats{}
				groupDays[day] = groupStats
			}
			if r.Value > groupStats.peak {
				groupStats.peak = r.Value
			}
			groupStats.sum += r.Value
			groupStats.samples++
		}
		for day, stats := range memberDays {
			groupStats := groupDays[day]
			if groupStats == nil {
				groupStats = &dayStats{}
				groupDays[day] = groupStats
			}
			groupStats.kwh += stats.kwh
		}

		result.ByMember[member] = materializeDays(memberDays)
	}

	result.Daily = materializeDays(groupDays)
	result.Hourly = materializeHours(hourTotals)
	return result, nil
}

type dayStats struct {
	kwh     float64
	peak    float64
	sum     float64
	samples int
}

func materializeDays(byDay map[int64]*dayStats) []DayEnergy {
	if len(byDay) == 0 {
		return nil
	}
	out := make([]DayEnergy, 0, len(byDay))
	for unix, stats := range byDay {
		day := DayEnergy{
			Date:    time.Unix(unix, 0).UTC(),
			KWh:     stats.kwh,
			PeakKW:  stats.peak,
			Samples: stats.samples,
		}
		if stats.samples > 0 {
			day.AvgKW = stats.sum / float64(stats.samples)
		}
		if stats.peak > 0 {
			day.CapacityFactor = day.AvgKW / stats.peak * 100
		}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func materializeHours(byHour map[int64]float64) []HourEnergy {
	if len(byHour) == 0 {
		return nil
	}
	out := make([]HourEnergy, 0, len(byHour))
	for unix, kwh := range byHour {
		out = append(out, HourEnergy{Hour: time.Unix(unix, 0).UTC(), KWh: kwh})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out
}
