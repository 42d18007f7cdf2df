// Package category holds the per-category log policy: the typed
// configuration, the raw records supplied by configuration providers and the
// in-memory registry the writer path reads from.
package category

import (
	"fmt"
	"strings"
)

// Category names a log stream with its own configuration and file set.
type Category string

const (
	Production  Category = "Production"
	Audit       Category = "Audit"
	Error       Category = "Error"
	Diagnostics Category = "Diagnostics"
)

var all = []Category{Production, Audit, Error, Diagnostics}

// All returns the known categories in a stable order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Parse matches s case-insensitively against the known categories.
func Parse(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range all {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func (c Category) String() string { return string(c) }
