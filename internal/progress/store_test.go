package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sat_import_progress.json")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestGetUnseenPartitionIsZeroRecord(t *testing.T) {
	s, _ := tempStore(t)

	rec := s.Get("T2-H-99")
	assert.Equal(t, Record{}, rec)
	assert.False(t, s.Has("T2-H-99"))
}

func TestUpdateMergesCountersAdditively(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.Update("T2-H-99", 100, 40, "Q40", Delta{Imported: 30, Duplicates: 5, Skipped: 3, Failed: 2}))
	require.NoError(t, s.Update("T2-H-99", 100, 80, "Q80", Delta{Imported: 20, Duplicates: 10, Skipped: 6, Failed: 4}))

	rec := s.Get("T2-H-99")
	assert.Equal(t, 100, rec.TotalQuestions)
	assert.Equal(t, 80, rec.NextStartIndex)
	assert.Equal(t, 80, rec.ProcessedQuestions)
	assert.Equal(t, "Q80", rec.LastSeenID)
	assert.Equal(t, 50, rec.Imported)
	assert.Equal(t, 15, rec.Duplicates)
	assert.Equal(t, 9, rec.Skipped)
	assert.Equal(t, 6, rec.Failed)
	assert.False(t, rec.Completed)
	assert.NotNil(t, rec.LastUpdated)
}

func TestUpdateMarksCompletionAtTotal(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.Update("T1-INI-100", 10, 10, "Q10", Delta{Imported: 10}))
	assert.True(t, s.Get("T1-INI-100").Completed)

	// Zero-total partitions are never complete.
	require.NoError(t, s.Update("T1-CAS-100", 0, 0, "", Delta{}))
	assert.False(t, s.Get("T1-CAS-100").Completed)
}

func TestUpdateKeepsLastSeenIDWhenBatchHadNone(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.Update("T2-P-99", 5, 2, "Q2", Delta{Imported: 2}))
	require.NoError(t, s.Update("T2-P-99", 5, 3, "", Delta{Skipped: 1}))

	assert.Equal(t, "Q2", s.Get("T2-P-99").LastSeenID)
}

func TestRoundTripAcrossReopen(t *testing.T) {
	s, path := tempStore(t)
	require.NoError(t, s.Update("T2-S-102", 30, 12, "Q12", Delta{Imported: 12}))

	reopened, err := Open(path)
	require.NoError(t, err)

	rec := reopened.Get("T2-S-102")
	assert.Equal(t, 12, rec.Imported)
	assert.Equal(t, 12, rec.NextStartIndex)
	assert.Equal(t, "Q12", rec.LastSeenID)
}

func TestOpenLegacyFlatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := map[string]Record{
		"T2-H-99": {TotalQuestions: 50, NextStartIndex: 20, Imported: 18, Skipped: 2},
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	s, err := Open(path)
	require.NoError(t, err)

	rec := s.Get("T2-H-99")
	assert.Equal(t, 50, rec.TotalQuestions)
	assert.Equal(t, 18, rec.Imported)

	// Saving upgrades the document to the versioned layout.
	require.NoError(t, s.Update("T2-H-99", 50, 25, "Q25", Delta{Imported: 5}))
	upgraded, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal(upgraded, &doc))
	assert.Equal(t, SchemaVersion, doc.Version)
}

func TestResetClearsSinglePartition(t *testing.T) {
	s, _ := tempStore(t)

	require.NoError(t, s.Update("T2-H-99", 10, 5, "Q5", Delta{Imported: 5}))
	require.NoError(t, s.Update("T2-Q-99", 10, 4, "Q4", Delta{Imported: 4}))

	require.NoError(t, s.Reset("T2-H-99"))
	assert.False(t, s.Has("T2-H-99"))
	assert.True(t, s.Has("T2-Q-99"))

	// Resetting an unknown key is a no-op.
	require.NoError(t, s.Reset("T9-X-1"))
}

func TestKeysAreSorted(t *testing.T) {
	s, _ := tempStore(t)
	require.NoError(t, s.Update("T2-S-99", 1, 1, "a", Delta{Imported: 1}))
	require.NoError(t, s.Update("T1-INI-99", 1, 1, "b", Delta{Imported: 1}))

	assert.Equal(t, []string{"T1-INI-99", "T2-S-99"}, s.Keys())
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("not-json"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}
