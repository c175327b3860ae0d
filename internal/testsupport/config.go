package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"screenrec/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSerial sets the device serial on the test config.
func WithSerial(serial string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.Serial = serial
	}
}

// WithMechanism selects the recording mechanism on the test config.
func WithMechanism(mechanism string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Recording.Mechanism = mechanism
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, adb and scrcpy are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"adb", "scrcpy"}
		}
		binDir := BinDir(b.baseDir)
		for _, name := range names {
			WriteExecutable(b.t, filepath.Join(binDir, name), "#!/bin/sh\nexit 0\n")
		}
		setEnv(b.t, "PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithIsolatedPath restricts PATH to the stub directory and clears the scrcpy
// override so only stubbed binaries resolve.
func WithIsolatedPath() ConfigOption {
	return func(b *configBuilder) {
		binDir := BinDir(b.baseDir)
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		setEnv(b.t, "PATH", binDir)
		setEnv(b.t, b.cfg.Scrcpy.OverrideEnv, "")
	}
}

// BinDir returns the stub executable directory under base.
func BinDir(base string) string {
	return filepath.Join(base, "bin")
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

func setEnv(t testing.TB, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("set %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
			return
		}
		_ = os.Unsetenv(key)
	})
}
