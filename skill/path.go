package skill

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Default root patterns. A tracked document sits directly inside a
// directory matched by one of them plus one skill-name segment.
var DefaultRoots = []string{
	"**/.claude/skills",
	"**/skills",
}

// DefaultArchiveRoot is the directory name snapshots are written to.
// Paths containing it are never classified as tracked documents.
const DefaultArchiveRoot = "releases"

// ClassifierOptions configures a Classifier. Zero values select defaults.
type ClassifierOptions struct {
	// Filename is the tracked document name. Defaults to SKILL.md.
	Filename string

	// Roots are doublestar patterns for skills directories, matched against
	// the slash-normalized path of the skill's parent directory.
	Roots []string

	// ArchiveRoots are path segments that disqualify a path.
	ArchiveRoots []string
}

// Location describes a tracked document path.
type Location struct {
	// Path is the path as given to Classify.
	Path string

	// Dir is the directory containing the document.
	Dir string

	// Name is the logical document identifier: the enclosing directory name.
	Name string

	// Filename is the document's base name.
	Filename string

	// Root is the root pattern that matched.
	Root string
}

// Classifier decides whether a path names a tracked document.
type Classifier struct {
	filename     string
	roots        []string
	archiveRoots []string
}

// NewClassifier returns a Classifier for the given options.
func NewClassifier(opts ClassifierOptions) *Classifier {
	c := &Classifier{
		filename:     opts.Filename,
		roots:        opts.Roots,
		archiveRoots: opts.ArchiveRoots,
	}
	if c.filename == "" {
		c.filename = DefaultFilename
	}
	if len(c.roots) == 0 {
		c.roots = DefaultRoots
	}
	if len(c.archiveRoots) == 0 {
		c.archiveRoots = []string{DefaultArchiveRoot}
	}
	return c
}

// ValidateRoots reports the first root pattern doublestar cannot parse.
func ValidateRoots(roots []string) error {
	for _, root := range roots {
		if !doublestar.ValidatePattern(root) {
			return fmt.Errorf("invalid skill root pattern %q", root)
		}
	}
	return nil
}

// Filename returns the tracked document name.
func (c *Classifier) Filename() string {
	return c.filename
}

// Classify reports whether p is a tracked document. A false result means
// "not applicable", not an error.
func (c *Classifier) Classify(p string) (Location, bool) {
	norm := normalize(p)
	if norm == "" {
		return Location{}, false
	}

	segments := strings.Split(norm, "/")
	if segments[len(segments)-1] != c.filename {
		return Location{}, false
	}
	for _, seg := range segments {
		for _, archive := range c.archiveRoots {
			if seg == archive {
				return Location{}, false
			}
		}
	}

	dir := path.Dir(norm)
	if dir == "." {
		return Location{}, false
	}
	for _, root := range c.roots {
		ok, err := doublestar.Match(root+"/*", dir)
		if err != nil || !ok {
			continue
		}
		return Location{
			Path:     p,
			Dir:      parentDir(p),
			Name:     path.Base(dir),
			Filename: c.filename,
			Root:     root,
		}, true
	}
	return Location{}, false
}

// parentDir strips the last path element from p, accepting either
// separator so a backslash path keeps its directory on any OS.
func parentDir(p string) string {
	p = strings.TrimSpace(p)
	i := strings.LastIndexAny(p, `/\`)
	switch {
	case i < 0:
		return "."
	case i == 0:
		return p[:1]
	}
	return filepath.Clean(p[:i])
}

// normalize converts separators to slashes, cleans the path, and strips a
// leading volume name or slash so relative root patterns can match.
func normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	if len(p) >= 2 && p[1] == ':' {
		p = p[2:]
	}
	p = path.Clean(p)
	p = strings.TrimLeft(p, "/")
	if p == "." {
		return ""
	}
	return p
}
