package csvfeed

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"os"
	"strings"

	readings "energy-dashboard/internal/readings/domain"
)

// Canonical feed columns. Source exports name these inconsistently; the
// alias table maps the open set of observed headers onto the closed
// canonical set. Unrecognized columns are dropped with a warning, never
// guessed.
var columnAliases = map[string]string{
	"entity_id":    "entity_id",
	"entity":       "entity_id",
	"sensor_id":    "entity_id",
	"state":        "state",
	"value":        "state",
	"reading":      "state",
	"last_changed": "last_changed",
	"last_updated": "last_changed",
	"timestamp":    "last_changed",
	"time":         "last_changed",
	"date":         "last_changed",
}

var (
	// ErrMissingColumns is returned when a feed lacks one of the canonical
	// columns after alias mapping.
	ErrMissingColumns = errors.New("csvfeed: missing required columns")
)

// Loader reads a reading feed from CSV.
type Loader struct {
	logger *log.Logger
}

// NewLoader constructs a Loader.
func NewLoader(logger *log.Logger) (*Loader, error) {
	if logger == nil {
		return nil, errors.New("csvfeed: nil logger")
	}
	return &Loader{logger: logger}, nil
}

// LoadFile reads raw rows from a CSV file on disk.
func (l *Loader) LoadFile(path string) ([]readings.RawRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return l.Load(file)
}

// Load reads raw rows from CSV. The first record is the header; fields are
// mapped through the alias table and rows shorter than the header are
// skipped.
func (l *Loader) Load(r io.Reader) ([]readings.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	entityIdx, stateIdx, tsIdx := -1, -1, -1
	for i, name := range header {
		canonical, ok := columnAliases[normalizeHeader(name)]
		if !ok {
			l.logger.Printf("csvfeed: dropping unrecognized column %q", name)
			continue
		}
		switch canonical {
		case "entity_id":
			entityIdx = i
		case "state":
			stateIdx = i
		case "last_changed":
			tsIdx = i
		}
	}
	if entityIdx < 0 || stateIdx < 0 || tsIdx < 0 {
		return nil, ErrMissingColumns
	}

	var rows []readings.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		max := entityIdx
		if stateIdx > max {
			max = stateIdx
		}
		if tsIdx > max {
			max = tsIdx
		}
		if len(record) <= max {
			continue
		}
		rows = append(rows, readings.RawRow{
			EntityID:  strings.TrimSpace(record[entityIdx]),
			State:     strings.TrimSpace(record[stateIdx]),
			Timestamp: strings.TrimSpace(record[tsIdx]),
		})
	}
	return rows, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "(", "")
	name = strings.ReplaceAll(name, ")", "")
	return name
}
