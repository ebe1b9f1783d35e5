// Package slug derives URL-safe post identifiers from titles.
package slug

import (
	"regexp"
	"strings"
)

// Untitled is returned when a title has nothing usable in it. It is never
// accepted as a post identifier.
const Untitled = "untitled-post"

var (
	// disallowed matches anything that isn't a Unicode letter, digit, space or hyphen.
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	// separators collapses runs of whitespace and hyphens.
	separators = regexp.MustCompile(`[\s-]+`)
)

// Generate creates a URL-friendly slug from the given title.
// Example: "Hello, World!" → "hello-world"
func Generate(title string) string {
	s := strings.ToLower(title)
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return Untitled
	}
	return s
}

// IsUsable reports whether s may be used to create a post.
func IsUsable(s string) bool {
	return s != "" && s != Untitled
}
