package deps_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"screenrec/internal/deps"
)

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, executableName(name))
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLocatorOverrideMissingFileNeverFallsBack(t *testing.T) {
	binDir := filepath.Join(t.TempDir(), "bin")
	writeStub(t, binDir, "scrcpy")

	locator := deps.Locator{
		Executable:  "scrcpy",
		OverrideEnv: "MAESTRO_SCRCPY",
		LookupEnv: envMap(map[string]string{
			"MAESTRO_SCRCPY": filepath.Join(t.TempDir(), "does-not-exist"),
			"PATH":           binDir,
		}),
	}

	path, err := locator.Locate()
	if err == nil {
		t.Fatalf("expected override failure, got path %q", path)
	}
	if !strings.Contains(err.Error(), "MAESTRO_SCRCPY") {
		t.Fatalf("expected reason to name the override variable, got %q", err)
	}
	var locateErr *deps.LocateError
	if !errors.As(err, &locateErr) {
		t.Fatalf("expected *deps.LocateError, got %T", err)
	}
}

func TestLocatorOverrideWins(t *testing.T) {
	override := writeStub(t, filepath.Join(t.TempDir(), "custom"), "scrcpy-nightly")
	binDir := filepath.Join(t.TempDir(), "bin")
	writeStub(t, binDir, "scrcpy")

	locator := deps.Locator{
		Executable:  "scrcpy",
		OverrideEnv: "MAESTRO_SCRCPY",
		LookupEnv:   envMap(map[string]string{"MAESTRO_SCRCPY": override, "PATH": binDir}),
	}
	path, err := locator.Locate()
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if path != override {
		t.Fatalf("expected override %q, got %q", override, path)
	}
}

func TestLocatorOverrideDirectoryRejected(t *testing.T) {
	locator := deps.Locator{
		Executable:  "scrcpy",
		OverrideEnv: "MAESTRO_SCRCPY",
		LookupEnv:   envMap(map[string]string{"MAESTRO_SCRCPY": t.TempDir(), "PATH": "/usr/bin"}),
	}
	if _, err := locator.Locate(); err == nil || !strings.Contains(err.Error(), "MAESTRO_SCRCPY") {
		t.Fatalf("expected override error for directory, got %v", err)
	}
}

func TestLocatorSearchesPathInOrder(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "a")
	dirB := filepath.Join(root, "b")
	if err := os.MkdirAll(dirA, 0o755); err != nil {
		t.Fatalf("mkdir a: %v", err)
	}
	want := writeStub(t, dirB, "scrcpy")
	writeStub(t, filepath.Join(root, "c"), "scrcpy")

	searchPath := strings.Join([]string{
		filepath.Join(root, "missing"),
		dirA,
		dirB,
		filepath.Join(root, "c"),
	}, string(os.PathListSeparator))

	locator := deps.Locator{
		Executable:  "scrcpy",
		OverrideEnv: "MAESTRO_SCRCPY",
		LookupEnv:   envMap(map[string]string{"PATH": searchPath}),
	}
	path, err := locator.Locate()
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}

// A set but blank override counts as unset: only a non-blank value disables
// the PATH search.
func TestLocatorBlankOverrideIsTreatedAsUnset(t *testing.T) {
	binDir := filepath.Join(t.TempDir(), "bin")
	want := writeStub(t, binDir, "scrcpy")
	locator := deps.Locator{
		Executable:  "scrcpy",
		OverrideEnv: "MAESTRO_SCRCPY",
		LookupEnv:   envMap(map[string]string{"MAESTRO_SCRCPY": "  ", "PATH": binDir}),
	}
	path, err := locator.Locate()
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}

func TestLocatorSkipsDirectoriesNamedLikeExecutable(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", executableName("scrcpy")), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := writeStub(t, filepath.Join(root, "b"), "scrcpy")
	searchPath := filepath.Join(root, "a") + string(os.PathListSeparator) + filepath.Join(root, "b")

	path, err := deps.Locator{Executable: "scrcpy", LookupEnv: envMap(map[string]string{"PATH": searchPath})}.Locate()
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}

func TestLocatorMissingPath(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"unset": {},
		"empty": {"PATH": ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := deps.Locator{Executable: "scrcpy", OverrideEnv: "MAESTRO_SCRCPY", LookupEnv: envMap(env)}.Locate()
			if err == nil {
				t.Fatal("expected error when PATH is missing")
			}
			if !strings.Contains(err.Error(), "PATH is not set") {
				t.Fatalf("expected misconfiguration reason, got %q", err)
			}
		})
	}
}

func TestLocatorNotFound(t *testing.T) {
	_, err := deps.Locator{Executable: "scrcpy", LookupEnv: envMap(map[string]string{"PATH": t.TempDir()})}.Locate()
	if err == nil {
		t.Fatal("expected not found error")
	}
	if !strings.Contains(err.Error(), "not available in PATH") {
		t.Fatalf("unexpected reason: %q", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present")
	t.Setenv("PATH", binDir)

	reqs := []deps.Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "OnPath", Command: "present"},
		{Name: "Empty", Command: "  "},
	}

	results := deps.CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if !results[2].Available || results[2].Command != present {
		t.Fatalf("expected PATH lookup to resolve %q, got %#v", present, results[2])
	}
	if results[3].Available || results[3].Detail != "command not configured" {
		t.Fatalf("expected empty command to be reported, got %#v", results[3])
	}
}

func TestCheckBinariesHonoursOverride(t *testing.T) {
	override := writeStub(t, t.TempDir(), "scrcpy-custom")
	t.Setenv("PATH", t.TempDir())
	t.Setenv("MAESTRO_SCRCPY", override)

	results := deps.CheckBinaries([]deps.Requirement{{Name: "scrcpy", Command: "scrcpy", OverrideEnv: "MAESTRO_SCRCPY", Optional: true}})
	if !results[0].Available {
		t.Fatalf("expected override to satisfy requirement, got %#v", results[0])
	}
	if results[0].Command != override {
		t.Fatalf("expected command %q, got %q", override, results[0].Command)
	}
}
