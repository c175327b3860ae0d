package main

import (
	"fmt"
	"io"
	"log/slog"

	"screenrec/internal/config"
	"screenrec/internal/deps"
	"screenrec/internal/device"
	"screenrec/internal/platform"
	"screenrec/internal/recording"
	"screenrec/internal/recording/scrcpy"
	"screenrec/internal/recording/screenrecord"
)

type recorderSet struct {
	scrcpy       *scrcpy.Recorder
	screenrecord *screenrecord.Recorder
}

// all returns the mechanisms in auto-selection order.
func (s recorderSet) all() []recording.Recorder {
	return []recording.Recorder{s.scrcpy, s.screenrecord}
}

// candidates returns the mechanisms allowed by mechanism, in preference order.
func (s recorderSet) candidates(mechanism string) ([]recording.Recorder, error) {
	switch mechanism {
	case "", config.MechanismAuto:
		return s.all(), nil
	case config.MechanismScrcpy:
		return []recording.Recorder{s.scrcpy}, nil
	case config.MechanismScreenRecord:
		return []recording.Recorder{s.screenrecord}, nil
	default:
		return nil, fmt.Errorf("unsupported mechanism %q (expected auto, screenrecord or scrcpy)", mechanism)
	}
}

func newADB(cfg *config.Config, logger *slog.Logger) (*device.ADB, error) {
	return device.New(cfg.Device.ADBBinary,
		device.WithSerial(cfg.Device.Serial),
		device.WithLogger(logger),
	)
}

func newScrcpyLocator(cfg *config.Config) deps.Locator {
	return deps.Locator{
		Executable:  cfg.Scrcpy.Executable,
		OverrideEnv: cfg.Scrcpy.OverrideEnv,
	}
}

// buildRecorders constructs every mechanism available for the configured platform.
func buildRecorders(cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) (recorderSet, error) {
	p, err := platform.Parse(cfg.Device.Platform)
	if err != nil {
		return recorderSet{}, err
	}
	if p != platform.Android {
		return recorderSet{}, fmt.Errorf("%w: %s", recording.ErrUnsupportedPlatform, p.Description())
	}

	adb, err := newADB(cfg, logger)
	if err != nil {
		return recorderSet{}, err
	}
	shell, err := screenrecord.New(adb,
		screenrecord.WithBitRate(cfg.ScreenRecord.BitRate),
		screenrecord.WithDevicePath(cfg.ScreenRecord.DevicePath),
		screenrecord.WithTimeLimit(cfg.ScreenRecord.TimeLimit),
		screenrecord.WithLogger(logger),
	)
	if err != nil {
		return recorderSet{}, err
	}
	proc, err := scrcpy.New(newScrcpyLocator(cfg),
		scrcpy.WithSerial(cfg.Device.Serial),
		scrcpy.WithStdout(stdout),
		scrcpy.WithStderr(stderr),
		scrcpy.WithLogger(logger),
	)
	if err != nil {
		return recorderSet{}, err
	}
	return recorderSet{scrcpy: proc, screenrecord: shell}, nil
}
