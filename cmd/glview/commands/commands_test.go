package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agiangrant/glview"
	"github.com/agiangrant/glview/internal/ffi"
)

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, Init([]string{"--name", "demo"}))
	config, err := glview.LoadConfig(filepath.Join(dir, glview.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "glview_", config.Library.SymbolPrefix)

	err = Init(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, Init([]string{"--force"}))
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, glview.DefaultConfig(), config)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	err := printReport(&buf, ffi.Report{
		Path:     "/opt/libglview_engine.so",
		Resolved: []string{"handle_init", "handle_redraw"},
		Missing:  []string{"handle_long_press"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Library:  /opt/libglview_engine.so")
	assert.Contains(t, buf.String(), "✓ handle_init")
	assert.Contains(t, buf.String(), "- handle_long_press (optional)")

	buf.Reset()
	err = printReport(&buf, ffi.Report{Missing: []string{"handle_scroll"}})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "✗ handle_scroll")
}
