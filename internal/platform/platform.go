// Package platform enumerates the device platforms a test run can target.
package platform

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Platform identifies a device platform.
type Platform int

const (
	Android Platform = iota
	IOS
	Web
)

var all = []Platform{Android, IOS, Web}

// All returns every known platform in declaration order.
func All() []Platform {
	out := make([]Platform, len(all))
	copy(out, all)
	return out
}

// Description returns the human-readable platform name.
func (p Platform) Description() string {
	switch p {
	case Android:
		return "Android"
	case IOS:
		return "iOS"
	case Web:
		return "Web"
	default:
		return fmt.Sprintf("Platform(%d)", int(p))
	}
}

func (p Platform) String() string {
	return p.Description()
}

// FromString matches a platform by its description, ignoring case.
func FromString(value string) (Platform, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(value))
	for _, p := range all {
		if fold.String(p.Description()) == want {
			return p, true
		}
	}
	return 0, false
}

// Parse is FromString with an error for unknown names.
func Parse(value string) (Platform, error) {
	p, ok := FromString(value)
	if !ok {
		return 0, fmt.Errorf("unknown platform %q", value)
	}
	return p, nil
}
