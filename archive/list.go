package archive

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// Snapshot is an archived copy found on disk.
type Snapshot struct {
	// Version is the sanitized version from the file name.
	Version string

	// Date is the YYYY-MM-DD date from the file name.
	Date string

	// Filename is the original document name.
	Filename string

	// Path is the snapshot's full path.
	Path string

	// ModTime is when the snapshot file was written.
	ModTime time.Time
}

var snapshotName = regexp.MustCompile(`^v([A-Za-z0-9.\-]+)_(\d{4}-\d{2}-\d{2})_(.+)$`)

// ParseName splits a snapshot file name into its parts.
func ParseName(name string) (Snapshot, bool) {
	m := snapshotName.FindStringSubmatch(name)
	if m == nil {
		return Snapshot{}, false
	}
	return Snapshot{Version: m[1], Date: m[2], Filename: m[3]}, true
}

// List returns the snapshots of filename stored in dir, oldest first.
// Snapshots are ordered by date, then by modification time, then by file
// name. A missing directory yields no snapshots and no error.
func List(dir, filename string) ([]Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s, ok := ParseName(entry.Name())
		if !ok || s.Filename != filename {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.Path = filepath.Join(dir, entry.Name())
		s.ModTime = info.ModTime()
		snapshots = append(snapshots, s)
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.Before(b.ModTime)
		}
		return filepath.Base(a.Path) < filepath.Base(b.Path)
	})
	return snapshots, nil
}

// Latest returns the newest snapshot of filename in dir.
func Latest(dir, filename string) (Snapshot, bool, error) {
	snapshots, err := List(dir, filename)
	if err != nil || len(snapshots) == 0 {
		return Snapshot{}, false, err
	}
	return snapshots[len(snapshots)-1], true, nil
}
