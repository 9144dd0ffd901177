package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadNonExistent(t *testing.T) {
	state := Load(filepath.Join(t.TempDir(), "missing"))
	require.NotNil(t, state)
	assert.Empty(t, state.Dashboards)
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	state := DefaultUIState()
	ds := state.Dashboard("d1")
	ds.FocusedWidget = "w2"
	ds.Params["count"] = "5"

	require.NoError(t, Save(tmpDir, state))
	assert.FileExists(t, filepath.Join(tmpDir, fileName))

	loaded := Load(tmpDir)
	got := loaded.Dashboard("d1")
	assert.Equal(t, "w2", got.FocusedWidget)
	assert.Equal(t, map[string]string{"count": "5"}, got.Params)

	fresh := loaded.Dashboard("d2")
	assert.NotNil(t, fresh.Params)
	assert.Empty(t, fresh.FocusedWidget)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "dir")
	require.NoError(t, Save(dataDir, DefaultUIState()))
	assert.DirExists(t, dataDir)
}

func TestLoadCorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, fileName), []byte("{not json"), 0644))

	state := Load(tmpDir)
	require.NotNil(t, state)
	assert.Empty(t, state.Dashboards)
}

func TestLoadNullDashboardEntry(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, fileName), []byte(`{"dashboards":{"x":null}}`), 0644))

	loaded := Load(tmpDir)
	var ds *DashboardState
	require.NotPanics(t, func() { ds = loaded.Dashboard("x") })
	require.NotNil(t, ds)
	assert.NotNil(t, ds.Params)
	ds.Params["count"] = "3"
	assert.Equal(t, "3", loaded.Dashboards["x"].Params["count"])
}
