// Package changelog maintains the per-skill CHANGELOG.md.
//
// The file has a fixed preamble ending in a "---" separator. New entries
// are inserted directly below the separator, so the newest edit is always
// on top. Entries are never re-sorted by version, and a version that is
// already present is never written twice.
package changelog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/deepnoodle-ai/skillver/outcome"
)

// DefaultFilename is the changelog's name inside a skill directory.
const DefaultFilename = "CHANGELOG.md"

// StepName identifies changelog outcomes.
const StepName = "changelog"

// Entry is one version record.
type Entry struct {
	// Name is the logical document identifier used in the title.
	Name string

	Version string

	// Date is YYYY-MM-DD.
	Date string

	// Document is the tracked file name. Defaults to SKILL.md.
	Document string

	// Archive is the snapshot path relative to the skill directory. When
	// set it is listed under "### Added".
	Archive string
}

// Marker returns the heading that identifies the entry for ver.
func Marker(ver string) string {
	return "## [" + ver + "]"
}

// Render formats e as a changelog entry, ending with a newline.
func (e Entry) Render() string {
	doc := e.Document
	if doc == "" {
		doc = "SKILL.md"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n\n", Marker(e.Version), e.Date)
	b.WriteString("### Changed\n")
	fmt.Fprintf(&b, "- Snapshot created from %s edit\n", doc)
	if e.Archive != "" {
		b.WriteString("\n### Added\n")
		fmt.Fprintf(&b, "- Archived snapshot `%s`\n", filepath.ToSlash(e.Archive))
	}
	return b.String()
}

// Preamble returns the header written to a new changelog.
func Preamble(name string) string {
	return fmt.Sprintf(`# Changelog - %s

All notable changes to the %s skill will be documented in this file.

The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.0.0/),
and this project adheres to [Semantic Versioning](https://semver.org/spec/v2.0.0.html).

---
`, name, name)
}

var separator = regexp.MustCompile(`(?m)^---[ \t]*\r?$`)

// Insert returns content with e added below the first separator line, or
// appended when there is none. The bool is false when content already
// holds an entry for e.Version; content is then returned unchanged.
func Insert(content string, e Entry) (string, bool) {
	if strings.Contains(content, Marker(e.Version)) {
		return content, false
	}
	entry := e.Render()

	loc := separator.FindStringIndex(content)
	if loc == nil {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + "\n" + entry, true
	}

	head := content[:loc[1]] + "\n"
	tail := strings.TrimPrefix(content[loc[1]:], "\n")
	if tail != "" && !strings.HasPrefix(tail, "\n") {
		entry += "\n"
	}
	return head + "\n" + entry + tail, true
}

// Updater writes changelog entries.
type Updater struct{}

// NewUpdater returns an Updater.
func NewUpdater() *Updater {
	return &Updater{}
}

// Update records e in the changelog at path, creating the file with the
// standard preamble when it does not exist. Errors are returned as a Failed
// outcome.
func (u *Updater) Update(path string, e Entry) outcome.Outcome {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		content := Preamble(e.Name) + "\n" + e.Render()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return outcome.Fail(StepName, path, fmt.Errorf("creating changelog directory: %w", err))
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return outcome.Fail(StepName, path, fmt.Errorf("creating changelog: %w", err))
		}
		return outcome.Success(StepName, path, "created")
	}
	if err != nil {
		return outcome.Fail(StepName, path, fmt.Errorf("reading changelog: %w", err))
	}

	updated, changed := Insert(string(data), e)
	if !changed {
		return outcome.Skip(StepName, path, fmt.Sprintf("entry for %s already exists", e.Version))
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return outcome.Fail(StepName, path, fmt.Errorf("writing changelog: %w", err))
	}
	return outcome.Success(StepName, path, "updated")
}
