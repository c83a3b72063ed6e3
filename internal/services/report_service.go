package services

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/openprep/sat-import-service/internal/progress"
	"github.com/openprep/sat-import-service/internal/utils"
)

// ReportService renders the progress store as downloadable reports.
type ReportService interface {
	ExportProgressToExcel() ([]byte, error)
	ExportProgressToCSV() ([]byte, error)
}

type reportService struct {
	store  *progress.Store
	logger utils.Logger
}

func NewReportService(store *progress.Store, logger utils.Logger) ReportService {
	return &reportService{store: store, logger: logger}
}

var reportHeaders = []string{
	"Partition", "Total", "Processed", "Next Index",
	"Imported", "Duplicates", "Skipped", "Failed",
	"Completed", "Last Updated",
}

func (s *reportService) ExportProgressToExcel() ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Import Progress"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range reportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	snapshot := s.store.Snapshot()
	for rowIndex, key := range s.store.Keys() {
		for colIndex, value := range reportRow(key, snapshot[key]) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Progress report exported", "format", "xlsx", "partitions", len(snapshot))
	return buf.Bytes(), nil
}

func (s *reportService) ExportProgressToCSV() ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(reportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	snapshot := s.store.Snapshot()
	for _, key := range s.store.Keys() {
		values := reportRow(key, snapshot[key])
		row := make([]string, len(values))
		for i, value := range values {
			row[i] = fmt.Sprint(value)
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.logger.Info("Progress report exported", "format", "csv", "partitions", len(snapshot))
	return []byte(buf.String()), nil
}

func reportRow(key string, rec progress.Record) []interface{} {
	completed := "No"
	if rec.Completed {
		completed = "Yes"
	}
	lastUpdated := ""
	if rec.LastUpdated != nil {
		lastUpdated = rec.LastUpdated.Format("2006-01-02 15:04:05")
	}
	return []interface{}{
		key,
		rec.TotalQuestions,
		rec.ProcessedQuestions,
		rec.NextStartIndex,
		rec.Imported,
		rec.Duplicates,
		rec.Skipped,
		rec.Failed,
		completed,
		lastUpdated,
	}
}
