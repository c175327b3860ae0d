package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// LocateError explains why an executable could not be resolved.
type LocateError struct {
	Executable string
	Reason     string
}

func (e *LocateError) Error() string {
	return e.Reason
}

// Locator resolves an external executable. An explicit path in OverrideEnv
// wins over the PATH search; once the override is set, PATH is never consulted.
type Locator struct {
	Executable  string
	OverrideEnv string
	// LookupEnv reads environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Locate returns the absolute path of the executable or a *LocateError.
func (l Locator) Locate() (string, error) {
	name := strings.TrimSpace(l.Executable)
	if name == "" {
		return "", &LocateError{Reason: "executable name not configured"}
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if l.OverrideEnv != "" {
		if value, ok := lookup(l.OverrideEnv); ok && strings.TrimSpace(value) != "" {
			return resolveOverride(name, l.OverrideEnv, strings.TrimSpace(value))
		}
	}

	searchPath, ok := lookup("PATH")
	if !ok || strings.TrimSpace(searchPath) == "" {
		return "", &LocateError{
			Executable: name,
			Reason:     "PATH is not set; the environment is misconfigured",
		}
	}

	if found, ok := searchDirs(filepath.SplitList(searchPath), executableName(name)); ok {
		return found, nil
	}
	return "", &LocateError{
		Executable: name,
		Reason:     fmt.Sprintf("%s is not available in PATH", name),
	}
}

func resolveOverride(name, envName, value string) (string, error) {
	fail := &LocateError{
		Executable: name,
		Reason: fmt.Sprintf("the environment variable `%s` is set, but contains a path to a file which does not exist or cannot be read (%s)",
			envName, value),
	}
	info, err := os.Stat(value)
	if err != nil || info.IsDir() {
		return "", fail
	}
	if err := unix.Access(value, unix.R_OK); err != nil {
		return "", fail
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fail
	}
	return abs, nil
}

// searchDirs scans the direct entries of each directory, in order, for name.
func searchDirs(dirs []string, name string) (string, bool) {
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.Name() != name {
				continue
			}
			candidate := filepath.Join(dir, entry.Name())
			// Stat follows symlinks so dangling links are skipped.
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs, true
			}
			return candidate, true
		}
	}
	return "", false
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(base), ".exe") {
		return base + ".exe"
	}
	return base
}
