package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Requirement defines an external executable screenrec relies on.
type Requirement struct {
	Name        string
	Command     string
	OverrideEnv string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Bare command names are resolved with a Locator; commands containing a path
// separator are checked in place.
func CheckBinaries(requirements []Requirement) []Status {
	return checkBinaries(requirements, os.LookupEnv)
}

func checkBinaries(requirements []Requirement, lookup func(string) (string, bool)) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if strings.ContainsRune(cmd, filepath.Separator) {
			if info, err := os.Stat(cmd); err != nil || info.IsDir() {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
			results = append(results, status)
			continue
		}
		locator := Locator{Executable: cmd, OverrideEnv: req.OverrideEnv, LookupEnv: lookup}
		resolved, err := locator.Locate()
		if err != nil {
			status.Detail = err.Error()
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}
