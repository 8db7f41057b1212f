package pricing

import (
	"sort"
	"time"
)

// PurchaseRecord is one row of the fuel purchase ledger. UnitPrice is
// derived from TotalCost/Volume when the source sheet omits it.
type PurchaseRecord struct {
	Date      time.Time
	Volume    float64
	UnitPrice float64
	TotalCost float64
}

// Ledger is the immutable, date-ascending purchase history. It is loaded
// once and referenced, never mutated, by the attributor.
type Ledger struct {
	records []PurchaseRecord
}

// NewLedger builds a ledger from raw records. Records without a unit price
// get TotalCost/Volume; records that still lack a positive price or a date
// are rejected by the loader before this point, so the ledger only ever
// holds usable rows. The records are sorted ascending by date.
func NewLedger(records []PurchaseRecord) (*Ledger, error) {
	if len(records) == 0 {
		return nil, ErrEmptyLedger
	}
	cleaned := make([]PurchaseRecord, 0, len(records))
	for _, record := range records {
		if record.Date.IsZero() {
			return nil, ErrInvalidPurchase
		}
		if record.UnitPrice == 0 && record.Volume > 0 {
			record.UnitPrice = record.TotalCost / record.Volume
		}
		if record.UnitPrice <= 0 {
			return nil, ErrInvalidPurchase
		}
		cleaned = append(cleaned, record)
	}
	sort.Slice(cleaned, func(i, j int) bool { return cleaned[i].Date.Before(cleaned[j].Date) })
	return &Ledger{records: cleaned}, nil
}

// Records returns the ascending purchase history.
func (l *Ledger) Records() []PurchaseRecord { return l.records }

// LatestAtOrBefore returns the most recent purchase with date <= at.
func (l *Ledger) LatestAtOrBefore(at time.Time) (PurchaseRecord, bool) {
	// First record strictly after `at`; the one before it is the answer.
	idx := sort.Search(len(l.records), func(i int) bool {
		return l.records[i].Date.After(at)
	})
	if idx == 0 {
		return PurchaseRecord{}, false
	}
	return l.records[idx-1], true
}

// WeightedAveragePrice is the volume-weighted mean unit price across the
// whole ledger, used as the explicit fallback when consumption predates
// every purchase.
func (l *Ledger) WeightedAveragePrice() float64 {
	var volume, cost float64
	for _, record := range l.records {
		if record.Volume > 0 {
			volume += record.Volume
			cost += record.UnitPrice * record.Volume
		}
	}
	if volume == 0 {
		// No volumes recorded; fall back to the plain mean.
		var sum float64
		for _, record := range l.records {
			sum += record.UnitPrice
		}
		return sum / float64(len(l.records))
	}
	return cost / volume
}

// MonthlyAveragePrices groups purchases by calendar month and averages
// their unit prices.
func (l *Ledger) MonthlyAveragePrices() map[time.Time]float64 {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, record := range l.records {
		month := time.Date(record.Date.Year(), record.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		sums[month] += record.UnitPrice
		counts[month]++
	}
	out := make(map[time.Time]float64, len(sums))
	for month, sum := range sums {
		out[month] = sum / float64(counts[month])
	}
	return out
}
