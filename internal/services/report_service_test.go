package services

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openprep/sat-import-service/internal/progress"
	"github.com/openprep/sat-import-service/internal/utils"
)

func newReportFixture(t *testing.T) (*progress.Store, ReportService) {
	t.Helper()
	store, err := progress.Open(filepath.Join(t.TempDir(), "progress.json"))
	require.NoError(t, err)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return store, NewReportService(store, logger)
}

func TestExportProgressToCSV(t *testing.T) {
	store, svc := newReportFixture(t)
	require.NoError(t, store.Update("T2-H-99", 10, 10, "q10", progress.Delta{Imported: 8, Duplicates: 2}))
	require.NoError(t, store.Update("T1-INI-99", 5, 3, "q3", progress.Delta{Imported: 2, Failed: 1}))

	raw, err := svc.ExportProgressToCSV()
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, reportHeaders, records[0])

	// Keys come out sorted, so the reading partition leads.
	assert.Equal(t, "T1-INI-99", records[1][0])
	assert.Equal(t, "No", records[1][8])
	assert.Equal(t, "T2-H-99", records[2][0])
	assert.Equal(t, "8", records[2][4])
	assert.Equal(t, "Yes", records[2][8])
}

func TestExportProgressToExcel(t *testing.T) {
	store, svc := newReportFixture(t)
	require.NoError(t, store.Update("T2-H-99", 10, 4, "q4", progress.Delta{Imported: 3, Skipped: 1}))

	raw, err := svc.ExportProgressToExcel()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Import Progress")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, reportHeaders, rows[0])
	assert.Equal(t, "T2-H-99", rows[1][0])
	assert.Equal(t, "3", rows[1][4])
	assert.Equal(t, "1", rows[1][6])
}

func TestExportProgressEmptyStore(t *testing.T) {
	_, svc := newReportFixture(t)

	raw, err := svc.ExportProgressToCSV()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(string(raw)), "\n")+1)
}
