package glview

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the file FindConfig looks for.
const ConfigFileName = "glview.toml"

// Config represents the glview.toml configuration file
type Config struct {
	Library LibraryConfig `toml:"library"`
	Storage StorageConfig `toml:"storage"`
	Input   InputConfig   `toml:"input"`
	Log     LogConfig     `toml:"log"`
}

// LibraryConfig locates the native engine library.
type LibraryConfig struct {
	// Path to the shared library. Empty uses $GLVIEW_LIB_PATH, then the
	// default search locations.
	Path string `toml:"path"`
	// Prefix of every exported entry point
	SymbolPrefix string `toml:"symbol_prefix"`
	// "direct" or "batch"
	Transport string `toml:"transport"`
}

// StorageConfig is passed to the engine on init.
type StorageConfig struct {
	// Directory for the engine's persistent data. On Android this is
	// normally the activity's files directory.
	Path string `toml:"path"`
}

// InputConfig tunes gesture recognition. Distances and velocities are in
// density-independent pixels (per second) and are scaled by Density.
type InputConfig struct {
	// Display density (1.0 = 160 dpi)
	Density float32 `toml:"density"`
	// Distance a pointer may travel before a press becomes a scroll
	TouchSlop float32 `toml:"touch_slop"`
	// How long a pointer must stay down to count as a long press
	LongPressTimeoutMs int `toml:"long_press_timeout_ms"`
	// Slowest release that still starts a fling
	MinFlingVelocity float32 `toml:"min_fling_velocity"`
	// Fling velocity is clamped to this
	MaxFlingVelocity float32 `toml:"max_fling_velocity"`
	// Upper bound of the fling range on both axes, in pixels
	MaxFlingDistance int `toml:"max_fling_distance"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// debug, info, warn or error
	Level string `toml:"level"`
	// text or json
	Format string `toml:"format"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Library: LibraryConfig{
			SymbolPrefix: "glview_",
			Transport:    "direct",
		},
		Input: DefaultInputConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultInputConfig returns gesture thresholds matching common Android
// defaults at mdpi.
func DefaultInputConfig() InputConfig {
	return InputConfig{
		Density:            1,
		TouchSlop:          8,
		LongPressTimeoutMs: 500,
		MinFlingVelocity:   50,
		MaxFlingVelocity:   8000,
		MaxFlingDistance:   999999999,
	}
}

// LoadConfig loads the configuration from path.
// If the file doesn't exist, returns default config
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Apply defaults for empty values
	defaults := DefaultConfig()
	if config.Library.SymbolPrefix == "" {
		config.Library.SymbolPrefix = defaults.Library.SymbolPrefix
	}
	if config.Input.Density <= 0 {
		config.Input.Density = defaults.Input.Density
	}
	if config.Input.MaxFlingDistance <= 0 {
		config.Input.MaxFlingDistance = defaults.Input.MaxFlingDistance
	}

	return config, nil
}

// SaveConfig writes the configuration to path
func SaveConfig(path string, config Config) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// FindConfig looks for glview.toml in the working directory and its
// parents. It returns an empty string if none is found.
func FindConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// NewLogger builds a slog.Logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil && c.Level != "" {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", c.Format)
	}
}
