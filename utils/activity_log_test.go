package utils

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) {
	t.Helper()
	_, err := OpenBotDB(filepath.Join(t.TempDir(), "bot_data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseBotDB() })
}

func TestActivityLogWithoutDatabase(t *testing.T) {
	require.NoError(t, CloseBotDB())

	err := LogActivity(ActionRename, "rename", 1)
	assert.Error(t, err)
	_, err = GetActivityLogs(1, 10)
	assert.Error(t, err)
}

func TestActivityLogRoundTrip(t *testing.T) {
	openTestDB(t)

	require.NoError(t, LogActivity(ActionPairing, "Pairing 628111111111", 10))
	require.NoError(t, LogActivityWithMetadata(ActionAddPromote, "Add/Promote Admin: 2 berhasil, 0 gagal", 10,
		map[string]interface{}{"batch_id": "b1", "total": 2}, true, ""))
	require.NoError(t, LogActivityError(ActionOperationFail, "Alpha: 628111111111", 10,
		errors.New(strings.Repeat("x", 300)), nil))
	require.NoError(t, LogActivity(ActionLogout, "chat lain", 20))

	logs, err := GetActivityLogs(10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	assert.Equal(t, ActionOperationFail, logs[0].Action)
	assert.False(t, logs[0].Success)
	assert.Len(t, logs[0].ErrorMessage, 203)

	assert.Equal(t, ActionAddPromote, logs[1].Action)
	assert.Equal(t, "b1", logs[1].Metadata["batch_id"])
	assert.EqualValues(t, 2, logs[1].Metadata["total"])

	limited, err := GetActivityLogs(10, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestActivityStats(t *testing.T) {
	openTestDB(t)

	require.NoError(t, LogActivity(ActionRename, "a", 5))
	require.NoError(t, LogActivity(ActionRename, "b", 5))
	require.NoError(t, LogActivityError(ActionDemote, "c", 5, errors.New("gagal"), nil))

	stats, err := GetActivityStats(5, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Success)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.TopActions[ActionRename])
}

func TestOpenBotDBReusesPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.db")
	first, err := OpenBotDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseBotDB() })

	second, err := OpenBotDB(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
