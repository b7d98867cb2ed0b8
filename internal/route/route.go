// Package route maps dictionary words to page paths and keeps an in-memory
// navigation history with browser-like back/forward semantics.
package route

import (
	"net/url"
	"strings"

	"github.com/alarino/dictweb/internal/text"
)

// Well-known paths.
const (
	HomePath   = "/"
	WordPrefix = "/word/"
	AdminPath  = "/admin"
)

// WordPath returns the page path for word: /word/ followed by the
// normalized word encoded as a URI component. A blank word maps to the
// home page.
func WordPath(word string) string {
	normalized := text.Normalize(word)
	if normalized == "" {
		return HomePath
	}
	return WordPrefix + text.EscapeComponent(normalized)
}

// ParseWordPath extracts the decoded word from a /word/{w} path.
func ParseWordPath(path string) (string, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	raw, ok := strings.CutPrefix(path, WordPrefix)
	if !ok {
		return "", false
	}
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		return "", false
	}

	word, err := url.PathUnescape(raw)
	if err != nil || text.IsBlank(word) {
		return "", false
	}
	return word, true
}

// Navigator is the routing collaborator the view-state controller drives.
type Navigator interface {
	// Path returns the current path.
	Path() string
	// Replace swaps the current entry without adding a history entry.
	Replace(path string)
}
