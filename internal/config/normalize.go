package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDevice()
	c.normalizeScreenRecord()
	c.normalizeScrcpy()
	c.normalizeRecording()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RecordingsDir) == "" {
		c.Paths.RecordingsDir = defaultRecordingsDir
	}
	if c.Paths.RecordingsDir, err = expandPath(c.Paths.RecordingsDir); err != nil {
		return fmt.Errorf("paths.recordings_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDevice() {
	c.Device.Platform = strings.ToLower(strings.TrimSpace(c.Device.Platform))
	if c.Device.Platform == "" {
		c.Device.Platform = defaultPlatform
	}
	c.Device.Serial = strings.TrimSpace(c.Device.Serial)
	if c.Device.Serial == "" {
		if value, ok := os.LookupEnv("ANDROID_SERIAL"); ok {
			c.Device.Serial = strings.TrimSpace(value)
		}
	}
	c.Device.ADBBinary = strings.TrimSpace(c.Device.ADBBinary)
	if c.Device.ADBBinary == "" {
		c.Device.ADBBinary = defaultADBBinary
	}
}

func (c *Config) normalizeScreenRecord() {
	c.ScreenRecord.DevicePath = strings.TrimSpace(c.ScreenRecord.DevicePath)
	if c.ScreenRecord.DevicePath == "" {
		c.ScreenRecord.DevicePath = defaultDevicePath
	}
	if c.ScreenRecord.BitRate == 0 {
		c.ScreenRecord.BitRate = defaultBitRate
	}
}

func (c *Config) normalizeScrcpy() {
	c.Scrcpy.Executable = strings.TrimSpace(c.Scrcpy.Executable)
	if c.Scrcpy.Executable == "" {
		c.Scrcpy.Executable = defaultScrcpyExecutable
	}
	c.Scrcpy.OverrideEnv = strings.TrimSpace(c.Scrcpy.OverrideEnv)
	if c.Scrcpy.OverrideEnv == "" {
		c.Scrcpy.OverrideEnv = defaultScrcpyOverrideEnv
	}
}

func (c *Config) normalizeRecording() {
	c.Recording.Mechanism = strings.ToLower(strings.TrimSpace(c.Recording.Mechanism))
	if c.Recording.Mechanism == "" {
		c.Recording.Mechanism = defaultMechanism
	}
	if c.Recording.StopTimeout == 0 {
		c.Recording.StopTimeout = defaultStopTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
