package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"screenrec/internal/config"
	"screenrec/internal/recording/scrcpy"
	"screenrec/internal/testsupport"
)

const (
	adbDevicesScript = `#!/bin/sh
if [ "$1" = "devices" ]; then
	echo "List of devices attached"
	echo "emulator-5554	device"
	echo "R58M12ABCDE	unauthorized"
	exit 0
fi
exit 1
`
	// Writes the record target when terminated, like scrcpy finalizing its MP4.
	scrcpyRecordingScript = `#!/bin/sh
target="${2#--record=}"
trap 'echo mp4 > "$target"; exit 0' TERM
echo "INFO: Recording started to mp4 file: $target" >&2
while :; do sleep 0.05; done
`
	// Like scrcpyRecordingScript, and also notes the device it was pointed at.
	scrcpySerialScript = `#!/bin/sh
printf '%s' "$ANDROID_SERIAL" > "$(dirname "$0")/serial.txt"
target="${2#--record=}"
trap 'echo mp4 > "$target"; exit 0' TERM
echo "INFO: Recording started to mp4 file: $target" >&2
while :; do sleep 0.05; done
`
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	binDir     string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries require a POSIX shell")
	}

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("ANDROID_SERIAL", "")
	t.Setenv(scrcpy.OverrideEnv, "")

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithStubbedBinaries()}, opts...)...)
	cfg.Logging.Level = "error"
	binDir := testsupport.BinDir(testsupport.BaseDir(cfg))
	testsupport.WriteExecutable(t, filepath.Join(binDir, "adb"), adbDevicesScript)

	configPath := filepath.Join(homeDir, ".config", "screenrec", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, binDir: binDir}
}

func (e *cliTestEnv) stubScrcpy(t *testing.T, script string) {
	t.Helper()
	testsupport.WriteExecutable(t, filepath.Join(e.binDir, "scrcpy"), script)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
