package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RecordingsDir string `toml:"recordings_dir"`
	StateDir      string `toml:"state_dir"`
	LogDir        string `toml:"log_dir"`
}

// Device contains configuration for the device under test.
type Device struct {
	Platform  string `toml:"platform"`
	Serial    string `toml:"serial"`
	ADBBinary string `toml:"adb_binary"`
	WatchUSB  bool   `toml:"watch_usb"`
}

// ScreenRecord contains configuration for the on-device screenrecord mechanism.
type ScreenRecord struct {
	DevicePath string `toml:"device_path"`
	BitRate    int    `toml:"bit_rate"`
	TimeLimit  int    `toml:"time_limit"`
}

// Scrcpy contains configuration for the scrcpy desktop mechanism.
type Scrcpy struct {
	Executable  string `toml:"executable"`
	OverrideEnv string `toml:"override_env"`
}

// Recording contains configuration shared by all capture mechanisms.
type Recording struct {
	// Mechanism selects the capture mechanism: "auto", "screenrecord" or "scrcpy".
	Mechanism string `toml:"mechanism"`
	// StopTimeout bounds how long a stop waits for teardown, in seconds.
	StopTimeout int `toml:"stop_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for screenrec.
//
// Configuration sections by subsystem:
//   - Paths: recordings, state and log directories
//   - Device: platform, adb serial and binary, USB detach watching
//   - ScreenRecord: on-device capture file and bit rate
//   - Scrcpy: executable name and override environment variable
//   - Recording: mechanism selection and stop timeout
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Device       Device       `toml:"device"`
	ScreenRecord ScreenRecord `toml:"screenrecord"`
	Scrcpy       Scrcpy       `toml:"scrcpy"`
	Recording    Recording    `toml:"recording"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/screenrec/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("screenrec.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories screenrec writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RecordingsDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the location of the recording history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockDir returns the directory holding per-device session locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// StopTimeout returns the recording stop timeout as a duration.
func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.Recording.StopTimeout) * time.Second
}

// RecordingPath resolves a destination for a recording. Relative names are
// placed under the recordings directory; an empty name gets a timestamped one.
func (c *Config) RecordingPath(name string, now time.Time) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("recording-%s.mp4", now.UTC().Format("20060102T150405Z"))
	}
	if strings.HasPrefix(name, "~") || filepath.IsAbs(name) {
		return expandPath(name)
	}
	return filepath.Join(c.Paths.RecordingsDir, name), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
