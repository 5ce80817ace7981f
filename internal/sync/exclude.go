package sync

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// ExcludeList filters item names out of sync runs. Patterns use
// doublestar glob syntax; a pattern without metacharacters matches
// the name exactly.
type ExcludeList struct {
	patterns []string
}

// NewExcludeList validates the patterns up front so a bad config fails
// at startup instead of mid-run.
func NewExcludeList(patterns []string) (*ExcludeList, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &ExcludeList{patterns: patterns}, nil
}

// Match reports whether name is excluded from syncing. A nil list
// excludes nothing.
func (e *ExcludeList) Match(name string) bool {
	if e == nil {
		return false
	}
	for _, p := range e.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
