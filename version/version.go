// Package version extracts semantic version strings from Markdown documents.
//
// A document may mention several versions. Extract does not look for the
// best or highest one: it tries a fixed list of label shapes in priority
// order and returns the first hit of the first shape that matches anywhere.
package version

import (
	"regexp"
)

// token matches MAJOR.MINOR.PATCH with optional pre-release and build
// metadata. Identifiers are dot-separated alphanumerics.
const token = `(\d+\.\d+\.\d+(?:-[0-9A-Za-z]+(?:\.[0-9A-Za-z]+)*)?(?:\+[0-9A-Za-z]+(?:\.[0-9A-Za-z]+)*)?)`

// matcher returns the version token it finds in text, if any.
type matcher func(text string) (string, bool)

func regexMatcher(re *regexp.Regexp) matcher {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

var (
	boldLabel  = regexp.MustCompile(`(?i)\*\*version(?:\*\*:|:\*\*)[ \t]*` + token)
	plainLabel = regexp.MustCompile(`(?i)version:[ \t]*` + token)
	heading    = regexp.MustCompile(`(?im)^#+[^\n]*?v` + token)
	bareWord   = regexp.MustCompile(`(?i)version[\s:]+` + token)
)

// matchers in priority order.
var matchers = []matcher{
	regexMatcher(boldLabel),
	regexMatcher(plainLabel),
	regexMatcher(heading),
	regexMatcher(bareWord),
}

// Extract returns the document's version, or false if no known label
// shape carries one.
func Extract(text string) (string, bool) {
	for _, m := range matchers {
		if v, ok := m(text); ok {
			return v, true
		}
	}
	return "", false
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9.\-]`)

// Sanitize makes v safe for use in a file name by replacing every
// character outside [A-Za-z0-9.-] with a hyphen.
func Sanitize(v string) string {
	return unsafeChars.ReplaceAllString(v, "-")
}
