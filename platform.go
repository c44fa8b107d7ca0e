package glview

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform represents the current operating system/platform
type Platform string

const (
	PlatformMacOS   Platform = "darwin"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// CurrentPlatform returns the platform the view is running on
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "ios":
		return PlatformIOS
	case "android":
		return PlatformAndroid
	case "linux":
		return PlatformLinux
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

// IsMobile returns true for iOS and Android
func (p Platform) IsMobile() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// IsDesktop returns true for macOS, Linux and Windows
func (p Platform) IsDesktop() bool {
	return p == PlatformMacOS || p == PlatformLinux || p == PlatformWindows
}

// HasTouchInput returns true if the platform delivers touch rather than
// mouse events natively.
func (p Platform) HasTouchInput() bool {
	return p.IsMobile()
}

// DefaultStoragePath returns a per-user data directory named app on
// desktop platforms. Mobile hosts know their sandboxed files directory and
// pass it in the config, so it returns "" there.
func DefaultStoragePath(app string) string {
	if !CurrentPlatform().IsDesktop() {
		return ""
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, app)
}
