package mirror

import (
	"path/filepath"
	"strings"
)

type matcher struct {
	patterns []string
}

func newMatcher(patterns []string) matcher {
	return matcher{patterns: patterns}
}

// Match reports whether the slash-relative path rel hits any pattern. A
// pattern matching a directory segment excludes the whole subtree.
func (m matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	segments := strings.Split(rel, "/")
	for _, pattern := range m.patterns {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		for _, segment := range segments {
			if ok, _ := filepath.Match(pattern, segment); ok {
				return true
			}
		}
	}
	return false
}
