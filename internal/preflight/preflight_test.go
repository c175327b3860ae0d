package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"screenrec/internal/config"
	"screenrec/internal/device"
	"screenrec/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllWithStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("adb", "scrcpy"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	if AnyFailed(results) {
		t.Fatalf("expected all checks to pass, got %+v", results)
	}
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Recordings directory", "State directory", "adb", "scrcpy"} {
		if !names[want] {
			t.Fatalf("expected %q check in %+v", want, results)
		}
	}
}

func TestRunAllMissingScrcpyIsOptionalForAuto(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("adb"), testsupport.WithIsolatedPath())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	if AnyFailed(results) {
		t.Fatalf("expected missing scrcpy to be optional, got %+v", results)
	}
	var scrcpy *Result
	for i := range results {
		if results[i].Name == "scrcpy" {
			scrcpy = &results[i]
		}
	}
	if scrcpy == nil || scrcpy.Passed || !scrcpy.Optional {
		t.Fatalf("expected optional failing scrcpy check, got %+v", scrcpy)
	}
}

func TestRunAllRequiresScrcpyWhenSelected(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("adb"), testsupport.WithIsolatedPath())
	cfg.Recording.Mechanism = config.MechanismScrcpy
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	if !AnyFailed(RunAll(context.Background(), cfg)) {
		t.Fatal("expected scrcpy to be required when selected")
	}
}

func TestRunAllSkipsBinariesOffAndroid(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Device.Platform = "ios"
	if deps := CheckSystemDeps(context.Background(), cfg); len(deps) != 0 {
		t.Fatalf("expected no binary requirements for iOS, got %+v", deps)
	}
}

type stubLister struct {
	devices []device.Device
	err     error
}

func (s stubLister) Devices(context.Context) ([]device.Device, error) {
	return s.devices, s.err
}

func TestCheckDevice(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		lister stubLister
		serial string
		passed bool
	}{
		{name: "single online device", lister: stubLister{devices: []device.Device{{Serial: "emulator-5554", State: "device"}}}, passed: true},
		{name: "no devices", lister: stubLister{}, passed: false},
		{name: "ambiguous", lister: stubLister{devices: []device.Device{{Serial: "a", State: "device"}, {Serial: "b", State: "device"}}}, passed: false},
		{name: "configured online", lister: stubLister{devices: []device.Device{{Serial: "a", State: "device"}, {Serial: "b", State: "device"}}}, serial: "b", passed: true},
		{name: "configured unauthorized", lister: stubLister{devices: []device.Device{{Serial: "b", State: "unauthorized"}}}, serial: "b", passed: false},
		{name: "configured missing", lister: stubLister{devices: []device.Device{{Serial: "a", State: "device"}}}, serial: "b", passed: false},
		{name: "adb failure", lister: stubLister{err: errors.New("daemon not running")}, passed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckDevice(ctx, tt.lister, tt.serial)
			if result.Passed != tt.passed {
				t.Fatalf("expected passed=%v, got %+v", tt.passed, result)
			}
			if result.Detail == "" {
				t.Fatal("expected detail")
			}
		})
	}
}
