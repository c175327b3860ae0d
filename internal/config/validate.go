package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateScreenRecord(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDevice() error {
	switch c.Device.Platform {
	case "android", "ios", "web":
		return nil
	default:
		return fmt.Errorf("device.platform: unsupported value %q (expected android, ios or web)", c.Device.Platform)
	}
}

func (c *Config) validateScreenRecord() error {
	if c.ScreenRecord.BitRate < 0 {
		return errors.New("screenrecord.bit_rate must be positive")
	}
	if c.ScreenRecord.TimeLimit < 0 {
		return errors.New("screenrecord.time_limit must be zero or positive")
	}
	if !strings.HasPrefix(c.ScreenRecord.DevicePath, "/") {
		return fmt.Errorf("screenrecord.device_path must be absolute, got %q", c.ScreenRecord.DevicePath)
	}
	return nil
}

func (c *Config) validateRecording() error {
	switch c.Recording.Mechanism {
	case MechanismAuto, MechanismScreenRecord, MechanismScrcpy:
	default:
		return fmt.Errorf("recording.mechanism: unsupported value %q (expected auto, screenrecord or scrcpy)", c.Recording.Mechanism)
	}
	if c.Recording.StopTimeout < 0 {
		return errors.New("recording.stop_timeout must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
