package glview

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentPlatform(t *testing.T) {
	p := CurrentPlatform()
	switch runtime.GOOS {
	case "linux", "darwin", "windows":
		assert.True(t, p.IsDesktop())
		assert.False(t, p.IsMobile())
		assert.False(t, p.HasTouchInput())
	case "android", "ios":
		assert.True(t, p.IsMobile())
		assert.True(t, p.HasTouchInput())
	}
}

func TestDefaultStoragePath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "demo"), DefaultStoragePath("demo"))
}
