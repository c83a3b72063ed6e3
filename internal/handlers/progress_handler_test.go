package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprep/sat-import-service/internal/progress"
	"github.com/openprep/sat-import-service/internal/services"
	"github.com/openprep/sat-import-service/internal/utils"
)

func newTestRouter(t *testing.T) (*gin.Engine, *progress.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := progress.Open(filepath.Join(t.TempDir(), "progress.json"))
	require.NoError(t, err)

	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	report := services.NewReportService(store, logger)

	router := gin.New()
	NewHandlerManager(store, report, logger).SetupRoutes(router)
	return router, store
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)
	w := doRequest(router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestListProgress(t *testing.T) {
	router, store := newTestRouter(t)
	require.NoError(t, store.Update("T2-H-99", 10, 10, "q10", progress.Delta{Imported: 9, Skipped: 1}))
	require.NoError(t, store.Update("T1-INI-99", 8, 4, "q4", progress.Delta{Imported: 3, Failed: 1}))

	w := doRequest(router, http.MethodGet, "/api/v1/progress")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Summary    ProgressSummary     `json:"summary"`
		Partitions []PartitionProgress `json:"partitions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 2, body.Summary.Partitions)
	assert.Equal(t, 1, body.Summary.CompletedPartitions)
	assert.Equal(t, 12, body.Summary.Imported)
	assert.Equal(t, 1, body.Summary.Failed)

	require.Len(t, body.Partitions, 2)
	assert.Equal(t, "T1-INI-99", body.Partitions[0].Key)
	assert.Equal(t, "T2-H-99", body.Partitions[1].Key)
}

func TestGetProgress(t *testing.T) {
	router, store := newTestRouter(t)
	require.NoError(t, store.Update("T2-H-99", 10, 4, "q4", progress.Delta{Imported: 4}))

	w := doRequest(router, http.MethodGet, "/api/v1/progress/T2-H-99")
	require.Equal(t, http.StatusOK, w.Code)

	var body PartitionProgress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "T2-H-99", body.Key)
	assert.Equal(t, 4, body.Imported)

	w = doRequest(router, http.MethodGet, "/api/v1/progress/T9-X-1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetProgress(t *testing.T) {
	router, store := newTestRouter(t)
	require.NoError(t, store.Update("T2-H-99", 10, 4, "q4", progress.Delta{Imported: 4}))

	w := doRequest(router, http.MethodPost, "/api/v1/progress/T2-H-99/reset")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.Has("T2-H-99"))

	w = doRequest(router, http.MethodPost, "/api/v1/progress/T2-H-99/reset")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadReport(t *testing.T) {
	router, store := newTestRouter(t)
	require.NoError(t, store.Update("T2-H-99", 10, 10, "q10", progress.Delta{Imported: 10}))

	w := doRequest(router, http.MethodGet, "/api/v1/progress/report?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sat_import_progress.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Partition,"))

	w = doRequest(router, http.MethodGet, "/api/v1/progress/report")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sat_import_progress.xlsx")

	w = doRequest(router, http.MethodGet, "/api/v1/progress/report?format=pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
