package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	log, err := NewLog(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return log
}

func TestLog_RecordAndRecent(t *testing.T) {
	log := newTestLog(t)

	first, err := log.Record(ActionFormIngested, "i-589", "", map[string]interface{}{"version": 1})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.Timestamp)

	_, err = log.Record(ActionMappingApproved, "i-589", "Pt1Line1a_FamilyName[0]", nil)
	require.NoError(t, err)

	entries, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionMappingApproved, entries[0].Action, "newest first")
	assert.Equal(t, ActionFormIngested, entries[1].Action)
}

func TestLog_RecentHonorsLimit(t *testing.T) {
	log := newTestLog(t)
	for i := 0; i < 5; i++ {
		_, err := log.Record(ActionFormIngested, "i-130", "", nil)
		require.NoError(t, err)
	}

	entries, err := log.Recent(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLog_ForForm(t *testing.T) {
	log := newTestLog(t)
	_, err := log.Record(ActionFormIngested, "i-589", "", nil)
	require.NoError(t, err)
	_, err = log.Record(ActionFormIngested, "g-28", "", nil)
	require.NoError(t, err)
	_, err = log.Record(ActionMappingRejected, "i-589", "f1", nil)
	require.NoError(t, err)

	entries, err := log.ForForm("i-589", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionMappingRejected, entries[0].Action)
	assert.Equal(t, ActionFormIngested, entries[1].Action)
}

func TestLog_DatePartitioning(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLog(dir, zap.NewNop())
	require.NoError(t, err)

	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	log.now = func() time.Time { return day1 }
	_, err = log.Record(ActionFormIngested, "i-589", "", nil)
	require.NoError(t, err)

	log.now = func() time.Time { return day2 }
	_, err = log.Record(ActionMappingApproved, "i-589", "f1", nil)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "2026-03-01.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "2026-03-02.jsonl"))

	entries, err := log.ForDate("2026-03-01")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionFormIngested, entries[0].Action)

	// Cross-day ordering: newest day first.
	recent, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ActionMappingApproved, recent[0].Action)
}

func TestLog_TornLineIsSkipped(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLog(dir, zap.NewNop())
	require.NoError(t, err)

	_, err = log.Record(ActionFormIngested, "i-589", "", nil)
	require.NoError(t, err)

	path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{truncated\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := log.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the torn line must not hide valid entries")
}

func TestLog_ForDateMissingFile(t *testing.T) {
	log := newTestLog(t)
	entries, err := log.ForDate("1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
