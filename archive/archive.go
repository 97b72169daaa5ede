// Package archive writes dated, versioned snapshots of skill documents.
//
// A snapshot of SKILL.md at version 1.2.0 taken on 2026-10-14 is stored as
//
//	releases/v1.2.0_2026-10-14_SKILL.md
//
// next to the document. At most one snapshot exists per version and date:
// writing the same version again on the same day is a no-op.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/deepnoodle-ai/skillver/outcome"
	"github.com/deepnoodle-ai/skillver/version"
)

// DefaultDir is the archive directory name, relative to the document.
const DefaultDir = "releases"

// DateLayout is the date format used in snapshot names and changelogs.
const DateLayout = "2006-01-02"

// StepName identifies archive outcomes.
const StepName = "archive"

// Date formats t as a UTC calendar date.
func Date(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Name returns the snapshot file name for a document at version on date.
func Name(ver, date, filename string) string {
	return fmt.Sprintf("v%s_%s_%s", version.Sanitize(ver), date, filename)
}

// Writer writes snapshots.
type Writer struct {
	// Dir is the archive directory name relative to each document's
	// directory. Defaults to DefaultDir.
	Dir string

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewWriter returns a Writer storing snapshots in dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

func (w *Writer) dir() string {
	if w.Dir == "" {
		return DefaultDir
	}
	return w.Dir
}

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

// Path returns where the snapshot for the given document and version would
// be stored today.
func (w *Writer) Path(docDir, filename, ver string) string {
	return w.pathOn(docDir, filename, ver, Date(w.now()))
}

func (w *Writer) pathOn(docDir, filename, ver, date string) string {
	return filepath.Join(docDir, w.dir(), Name(ver, date, filename))
}

// Write stores content as today's snapshot of the document docDir/filename
// at version ver. An existing snapshot with the same name is left untouched
// and reported as Skipped. Write failures are reported as Failed; nothing
// is retried.
func (w *Writer) Write(docDir, filename string, content []byte, ver string) outcome.Outcome {
	return w.WriteDated(docDir, filename, content, ver, Date(w.now()))
}

// WriteDated is Write with the snapshot date given as YYYY-MM-DD.
func (w *Writer) WriteDated(docDir, filename string, content []byte, ver, date string) outcome.Outcome {
	target := w.pathOn(docDir, filename, ver, date)

	if _, err := os.Stat(target); err == nil {
		return outcome.Skip(StepName, target, "already exists")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return outcome.Fail(StepName, target, fmt.Errorf("checking archive: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return outcome.Fail(StepName, target, fmt.Errorf("creating archive directory: %w", err))
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return outcome.Skip(StepName, target, "already exists")
		}
		return outcome.Fail(StepName, target, fmt.Errorf("creating archive: %w", err))
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(target)
		return outcome.Fail(StepName, target, fmt.Errorf("writing archive: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return outcome.Fail(StepName, target, fmt.Errorf("closing archive: %w", err))
	}
	return outcome.Success(StepName, target, "created")
}
