package skill

import "regexp"

var lastUpdated = regexp.MustCompile(
	`(?i)(\*\*Last Updated(?:\*\*:|:\*\*)[ \t]*|Last Updated:[ \t]*)(\d{4}-\d{2}-\d{2})`)

// PatchLastUpdated rewrites the date of the first "Last Updated" field in
// text to date. Only the date digits change. The field is never inserted:
// text without one is returned as is. The bool reports whether text changed.
func PatchLastUpdated(text, date string) (string, bool) {
	loc := lastUpdated.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, false
	}
	start, end := loc[4], loc[5]
	if text[start:end] == date {
		return text, false
	}
	return text[:start] + date + text[end:], true
}
