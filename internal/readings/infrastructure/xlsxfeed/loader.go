package xlsxfeed

import (
	"errors"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	readings "energy-dashboard/internal/readings/domain"
)

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

// ErrMissingColumns is returned when the sheet lacks a canonical column.
var ErrMissingColumns = errors.New("xlsxfeed: missing required columns")

// Loader reads a reading feed from an Excel workbook. The first sheet is
// the feed; row one is the header.
type Loader struct {
	logger *log.Logger
}

// NewLoader constructs a Loader.
func NewLoader(logger *log.Logger) (*Loader, error) {
	if logger == nil {
		return nil, errors.New("xlsxfeed: nil logger")
	}
	return &Loader{logger: logger}, nil
}

// LoadFile reads raw rows from an XLSX file on disk.
func (l *Loader) LoadFile(path string) ([]readings.RawRow, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsxfeed: workbook has no sheets")
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrMissingColumns
	}

	entityIdx, stateIdx, tsIdx := -1, -1, -1
	for i, name := range rows[0] {
		canonical, ok := columnAliases[normalizeHeader(name)]
		if !ok {
			l.logger.Printf("xlsxfeed: dropping unrecognized column %q", name)
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

	var out []readings.RawRow
	for _, row := range rows[1:] {
		max := entityIdx
		if stateIdx > max {
			max = stateIdx
		}
		if tsIdx > max {
			max = tsIdx
		}
		if len(row) <= max {
			continue
		}
		out = append(out, readings.RawRow{
			EntityID:  strings.TrimSpace(row[entityIdx]),
			State:     strings.TrimSpace(row[stateIdx]),
			Timestamp: strings.TrimSpace(row[tsIdx]),
		})
	}
	return out, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "(", "")
	name = strings.ReplaceAll(name, ")", "")
	return name
}
