package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openprep/sat-import-service/internal/progress"
	"github.com/openprep/sat-import-service/internal/services"
	"github.com/openprep/sat-import-service/internal/utils"
)

// ProgressHandler serves the read side of the progress store for operators
// watching a long-running import.
type ProgressHandler struct {
	BaseHandler
	store  *progress.Store
	report services.ReportService
}

func NewProgressHandler(store *progress.Store, report services.ReportService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: NewBaseHandler(logger),
		store:       store,
		report:      report,
	}
}

// PartitionProgress is one partition's record keyed for API consumers.
type PartitionProgress struct {
	Key string `json:"key"`
	progress.Record
}

// ProgressSummary aggregates counters across all partitions.
type ProgressSummary struct {
	Partitions          int `json:"partitions"`
	CompletedPartitions int `json:"completed_partitions"`
	Imported            int `json:"imported"`
	Duplicates          int `json:"duplicates"`
	Skipped             int `json:"skipped"`
	Failed              int `json:"failed"`
}

// ListProgress handles GET /api/v1/progress
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	snapshot := h.store.Snapshot()

	var summary ProgressSummary
	summary.Partitions = len(snapshot)
	for _, rec := range snapshot {
		if rec.Completed {
			summary.CompletedPartitions++
		}
		summary.Imported += rec.Imported
		summary.Duplicates += rec.Duplicates
		summary.Skipped += rec.Skipped
		summary.Failed += rec.Failed
	}

	partitions := make([]PartitionProgress, 0, len(snapshot))
	for _, key := range h.store.Keys() {
		partitions = append(partitions, PartitionProgress{Key: key, Record: snapshot[key]})
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":    summary,
		"partitions": partitions,
	})
}

// GetProgress handles GET /api/v1/progress/:key
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	key := c.Param("key")
	if !h.store.Has(key) {
		h.RespondWithError(c, http.StatusNotFound, "partition not found", nil)
		return
	}
	c.JSON(http.StatusOK, PartitionProgress{Key: key, Record: h.store.Get(key)})
}

// DownloadReport handles GET /api/v1/progress/report?format=xlsx|csv
func (h *ProgressHandler) DownloadReport(c *gin.Context) {
	format := c.DefaultQuery("format", "xlsx")

	switch format {
	case "xlsx":
		data, err := h.report.ExportProgressToExcel()
		if err != nil {
			h.RespondWithError(c, http.StatusInternalServerError, "failed to build report", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="sat_import_progress.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		data, err := h.report.ExportProgressToCSV()
		if err != nil {
			h.RespondWithError(c, http.StatusInternalServerError, "failed to build report", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="sat_import_progress.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	default:
		h.RespondWithError(c, http.StatusBadRequest, "unsupported report format: "+format, nil)
	}
}

// ResetProgress handles POST /api/v1/progress/:key/reset
func (h *ProgressHandler) ResetProgress(c *gin.Context) {
	key := c.Param("key")
	if !h.store.Has(key) {
		h.RespondWithError(c, http.StatusNotFound, "partition not found", nil)
		return
	}
	if err := h.store.Reset(key); err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "failed to reset partition", err)
		return
	}
	h.logger.Info("Partition progress reset", "partition", key)
	h.RespondWithSuccess(c, http.StatusOK, "partition progress reset", gin.H{"key": key})
}
