package pricing

import "time"

// Mode selects how a unit price is assigned to a consumption day.
type Mode string

const (
	// ModeNearestPrior applies the unit price of the latest purchase on or
	// before the consumption date.
	ModeNearestPrior Mode = "nearest_prior"
	// ModeMonthlyAverage applies the average unit price of the purchases in
	// the consumption day's calendar month.
	ModeMonthlyAverage Mode = "monthly_average"
)

// IsValid checks if the mode is supported.
func (m Mode) IsValid() bool {
	return m == ModeNearestPrior || m == ModeMonthlyAverage
}

// DatedQuantity is one day of consumption to be priced.
type DatedQuantity struct {
	Date     time.Time
	Quantity float64
}

// DailyCostRecord is one priced consumption day.
type DailyCostRecord struct {
	Date      time.Time
	Quantity  float64
	UnitPrice float64
	Cost      float64
}

// Attributor assigns unit prices to daily consumption from the purchase
// ledger. The applied price never depends on a purchase dated after the
// consumption day.
type Attributor struct {
	ledger *Ledger
	mode   Mode
}

// NewAttributor constructs an Attributor.
func NewAttributor(ledger *Ledger, mode Mode) (*Attributor, error) {
	if ledger == nil {
		return nil, ErrNilLedger
	}
	if mode == "" {
		mode = ModeNearestPrior
	}
	if !mode.IsValid() {
		return nil, ErrInvalidMode
	}
	return &Attributor{ledger: ledger, mode: mode}, nil
}

// Attribute prices each consumption day. Days the ledger cannot cover get
// the ledger-wide volume-weighted average price as an explicit fallback,
// never zero.
func (a *Attributor) Attribute(consumption []DatedQuantity) []DailyCostRecord {
	if len(consumption) == 0 {
		return nil
	}
	fallback := a.ledger.WeightedAveragePrice()

	var monthly map[time.Time]float64
	if a.mode == ModeMonthlyAverage {
		monthly = a.ledger.MonthlyAveragePrices()
	}

	out := make([]DailyCostRecord, 0, len(consumption))
	for _, day := range consumption {
		price := fallback
		switch a.mode {
		case ModeNearestPrior:
			if record, ok := a.ledger.LatestAtOrBefore(day.Date); ok {
				price = record.UnitPrice
			}
		case ModeMonthlyAverage:
			month := time.Date(day.Date.Year(), day.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
			if avg, ok := monthly[month]; ok {
				price = avg
			}
		}
		out = append(out, DailyCostRecord{
			Date:      day.Date,
			Quantity:  day.Quantity,
			UnitPrice: price,
			Cost:      day.Quantity * price,
		})
	}
	return out
}
