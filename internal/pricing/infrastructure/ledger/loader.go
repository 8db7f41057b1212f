package ledger

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	pricing "energy-dashboard/internal/pricing/domain"
)

// The purchase sheets name their columns inconsistently across months:
// "amount(liters)", "Amount_Liters", "litres", "cost(Rands)" and so on.
// This table maps the observed open set onto the canonical fields; anything
// unrecognized is dropped with a warning.
var columnAliases = map[string]string{
	"date":            "date",
	"purchase_date":   "date",
	"litres":          "volume",
	"liters":          "volume",
	"amount":          "volume",
	"amount_liters":   "volume",
	"amountliters":    "volume",
	"amount_litres":   "volume",
	"volume":          "volume",
	"cost":            "total_cost",
	"cost_rands":      "total_cost",
	"costrands":       "total_cost",
	"total_cost":      "total_cost",
	"price_per_litre": "unit_price",
	"price_per_liter": "unit_price",
	"unit_price":      "unit_price",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var (
	// ErrMissingDateColumn is returned when no date column can be mapped.
	ErrMissingDateColumn = errors.New("ledger: missing date column")
)

// Loader reads and normalizes a purchase ledger from CSV or XLSX.
type Loader struct {
	logger *log.Logger

	// maxUnitPrice rejects implausible prices that indicate a unit mixup in
	// the source sheet (original installation: 50 R/L).
	maxUnitPrice float64
}

// Option configures the loader.
type Option func(*Loader)

// WithMaxUnitPrice overrides the plausibility ceiling for unit prices.
func WithMaxUnitPrice(ceiling float64) Option {
	return func(l *Loader) {
		if ceiling > 0 {
			l.maxUnitPrice = ceiling
		}
	}
}

// NewLoader constructs a Loader.
func NewLoader(logger *log.Logger, opts ...Option) (*Loader, error) {
	if logger == nil {
		return nil, errors.New("ledger: nil logger")
	}
	l := &Loader{logger: logger, maxUnitPrice: 50}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadFile dispatches on the file extension.
func (l *Loader) LoadFile(path string) (*pricing.Ledger, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return l.loadXLSX(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return l.LoadCSV(file)
}

// LoadCSV reads a normalized ledger from CSV.
func (l *Loader) LoadCSV(r io.Reader) (*pricing.Ledger, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return l.build(rows)
}

func (l *Loader) loadXLSX(path string) (*pricing.Ledger, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("ledger: workbook has no sheets")
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return l.build(rows)
}

func (l *Loader) build(rows [][]string) (*pricing.Ledger, error) {
	if len(rows) < 2 {
		return nil, pricing.ErrEmptyLedger
	}

	indices := map[string]int{}
	for i, name := range rows[0] {
		canonical, ok := columnAliases[normalizeHeader(name)]
		if !ok {
			l.logger.Printf("ledger: dropping unrecognized column %q", name)
			continue
		}
		indices[canonical] = i
	}
	dateIdx, ok := indices["date"]
	if !ok {
		return nil, ErrMissingDateColumn
	}

	skipped := 0
	var records []pricing.PurchaseRecord
	for _, row := range rows[1:] {
		if len(row) <= dateIdx {
			skipped++
			continue
		}
		date, ok := parseDate(row[dateIdx])
		if !ok {
			skipped++
			continue
		}
		record := pricing.PurchaseRecord{Date: date}
		record.Volume = fieldFloat(row, indices, "volume")
		record.TotalCost = fieldFloat(row, indices, "total_cost")
		record.UnitPrice = fieldFloat(row, indices, "unit_price")
		if record.UnitPrice == 0 && record.Volume > 0 {
			record.UnitPrice = record.TotalCost / record.Volume
		}
		if record.UnitPrice <= 0 || record.UnitPrice >= l.maxUnitPrice {
			skipped++
			continue
		}
		records = append(records, record)
	}
	if skipped > 0 {
		l.logger.Printf("ledger: skipped %d unusable purchase rows", skipped)
	}
	return pricing.NewLedger(records)
}

func fieldFloat(row []string, indices map[string]int, name string) float64 {
	idx, ok := indices[name]
	if !ok || idx >= len(row) {
		return 0
	}
	raw := strings.TrimSpace(strings.ReplaceAll(row[idx], ",", ""))
	raw = strings.TrimPrefix(raw, "R")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "(", "")
	name = strings.ReplaceAll(name, ")", "")
	return name
}
