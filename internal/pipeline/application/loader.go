package application

import (
	"errors"
	"log"
	"strings"

	readings "energy-dashboard/internal/readings/domain"
	"energy-dashboard/internal/readings/infrastructure/csvfeed"
	"energy-dashboard/internal/readings/infrastructure/xlsxfeed"
)

// FeedLoader reads raw rows from one feed file.
type FeedLoader interface {
	LoadFile(path string) ([]readings.RawRow, error)
}

// FormatLoader dispatches to the CSV or XLSX loader by file extension, so
// a pipeline can mix exports of both formats for the same logical feed.
type FormatLoader struct {
	csv  *csvfeed.Loader
	xlsx *xlsxfeed.Loader
}

// NewFormatLoader constructs a FormatLoader.
func NewFormatLoader(logger *log.Logger) (*FormatLoader, error) {
	if logger == nil {
		return nil, errors.New("loader: nil logger")
	}
	csvLoader, err := csvfeed.NewLoader(logger)
	if err != nil {
		return nil, err
	}
	xlsxLoader, err := xlsxfeed.NewLoader(logger)
	if err != nil {
		return nil, err
	}
	return &FormatLoader{csv: csvLoader, xlsx: xlsxLoader}, nil
}

// LoadFile reads one feed file.
func (l *FormatLoader) LoadFile(path string) ([]readings.RawRow, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return l.xlsx.LoadFile(path)
	}
	return l.csv.LoadFile(path)
}

// LoadFeeds concatenates the rows of several feed files.
func LoadFeeds(loader FeedLoader, paths []string) ([]readings.RawRow, error) {
	if loader == nil {
		return nil, errors.New("loader: nil feed loader")
	}
	var rows []readings.RawRow
	for _, path := range paths {
		loaded, err := loader.LoadFile(path)
		if err != nil {
			return nil, err
		}
		rows = append(rows, loaded...)
	}
	return rows, nil
}
