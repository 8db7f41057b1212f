package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	reporting "energy-dashboard/internal/reporting/domain"
)

const dayLayout = "2006-01-02"

// BuildSeriesCSV renders daily records as CSV. The column set matches
// ParseSeriesCSV so an exported series round-trips losslessly.
func BuildSeriesCSV(records []reporting.DailyRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{"day", "quantity", "source", "unit_price", "cost", "peak_kw", "avg_kw", "capacity_factor"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, record := range records {
		row := []string{
			record.Day.Format(dayLayout),
			formatFloat(record.Quantity),
			record.Source,
			formatFloat(record.UnitPrice),
			formatFloat(record.Cost),
			formatFloat(record.PeakKW),
			formatFloat(record.AvgKW),
			formatFloat(record.CapacityFactor),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// ParseSeriesCSV reads records back from BuildSeriesCSV output.
func ParseSeriesCSV(data []byte) ([]reporting.DailyRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, nil
	}
	out := make([]reporting.DailyRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 8 {
			continue
		}
		day, err := time.Parse(dayLayout, row[0])
		if err != nil {
			return nil, err
		}
		record := reporting.DailyRecord{Day: day.UTC(), Source: row[2]}
		if record.Quantity, err = strconv.ParseFloat(row[1], 64); err != nil {
			return nil, err
		}
		if record.UnitPrice, err = strconv.ParseFloat(row[3], 64); err != nil {
			return nil, err
		}
		if record.Cost, err = strconv.ParseFloat(row[4], 64); err != nil {
			return nil, err
		}
		if record.PeakKW, err = strconv.ParseFloat(row[5], 64); err != nil {
			return nil, err
		}
		if record.AvgKW, err = strconv.ParseFloat(row[6], 64); err != nil {
			return nil, err
		}
		if record.CapacityFactor, err = strconv.ParseFloat(row[7], 64); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// BuildSeriesXLSX renders a series as an XLSX workbook: a summary sheet
// plus the daily rows.
func BuildSeriesXLSX(id reporting.SeriesID, records []reporting.DailyRecord) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	daysSheet := "days"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(daysSheet)

	var totalQuantity, totalCost float64
	for _, record := range records {
		totalQuantity += record.Quantity
		totalCost += record.Cost
	}

	_ = f.SetCellValue(summarySheet, "A1", "Energy Series Export")
	_ = f.SetCellValue(summarySheet, "A3", "Series")
	_ = f.SetCellValue(summarySheet, "B3", string(id))
	_ = f.SetCellValue(summarySheet, "A4", "Days")
	_ = f.SetCellValue(summarySheet, "B4", len(records))
	_ = f.SetCellValue(summarySheet, "A5", "Total Quantity")
	_ = f.SetCellValue(summarySheet, "B5", totalQuantity)
	_ = f.SetCellValue(summarySheet, "A6", "Total Cost")
	_ = f.SetCellValue(summarySheet, "B6", totalCost)

	headers := []string{"Day", "Quantity", "Source", "Unit Price", "Cost", "Peak kW", "Avg kW", "Capacity Factor"}
	for i, name := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(daysSheet, cell, name)
	}
	for i, record := range records {
		row := i + 2
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("A%d", row), record.Day.Format(dayLayout))
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("B%d", row), record.Quantity)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("C%d", row), record.Source)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("D%d", row), record.UnitPrice)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("E%d", row), record.Cost)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("F%d", row), record.PeakKW)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("G%d", row), record.AvgKW)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("H%d", row), record.CapacityFactor)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSeriesPDF renders a minimal PDF summary for a series.
func BuildSeriesPDF(id reporting.SeriesID, records []reporting.DailyRecord, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Energy Series Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Series: %s", id))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Days: %d", len(records)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Day", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Quantity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Unit Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Cost", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, record := range records {
		pdf.CellFormat(35, 6, record.Day.Format(dayLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", record.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", record.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", record.Cost), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
