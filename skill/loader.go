package skill

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/deepnoodle-ai/skillver/slogger"
)

// LoaderOptions configures skill discovery.
//
// Skills are searched in priority order and the first skill found with a
// given name wins:
//  1. ProjectDir/.claude/skills/
//  2. ProjectDir/skills/
//  3. HomeDir/.claude/skills/
//  4. AdditionalPaths, in order
type LoaderOptions struct {
	// ProjectDir is the base directory for project-level discovery.
	// If empty, defaults to the current working directory.
	ProjectDir string

	// HomeDir is the base directory for user-level discovery.
	// If empty, defaults to os.UserHomeDir().
	HomeDir string

	// DisableHomePaths skips HomeDir/.claude/skills/.
	DisableHomePaths bool

	// AdditionalPaths are extra skills directories searched last.
	AdditionalPaths []string

	// Filename is the tracked document name. Defaults to SKILL.md.
	Filename string

	// Logger receives discovery diagnostics. Defaults to slogger.DefaultLogger.
	Logger slogger.Logger
}

// Loader discovers skills on disk.
//
// The Loader is NOT safe for concurrent use.
type Loader struct {
	opts   LoaderOptions
	skills map[string]*Skill
}

// NewLoader creates a loader. Call LoadSkills to populate it.
func NewLoader(opts LoaderOptions) *Loader {
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	if opts.Logger == nil {
		opts.Logger = slogger.DefaultLogger
	}
	return &Loader{
		opts:   opts,
		skills: make(map[string]*Skill),
	}
}

// LoadSkills clears any previously loaded skills and scans every search
// path. Missing directories are ignored and malformed documents are
// logged and skipped.
func (l *Loader) LoadSkills() error {
	l.skills = make(map[string]*Skill)

	paths, err := l.SearchPaths()
	if err != nil {
		return fmt.Errorf("getting search paths: %w", err)
	}
	for _, searchPath := range paths {
		if err := l.loadSkillsFromPath(searchPath); err != nil {
			l.opts.Logger.Warn("failed to load skills", "path", searchPath, "error", err)
		}
	}
	return nil
}

// GetSkill retrieves a skill by its exact name.
func (l *Loader) GetSkill(name string) (*Skill, bool) {
	s, ok := l.skills[name]
	return s, ok
}

// ListSkills returns all loaded skills sorted by name.
func (l *Loader) ListSkills() []*Skill {
	skills := make([]*Skill, 0, len(l.skills))
	for _, s := range l.skills {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool {
		return skills[i].Name < skills[j].Name
	})
	return skills
}

// SkillCount returns the number of loaded skills.
func (l *Loader) SkillCount() int {
	return len(l.skills)
}

// SearchPaths returns the skills directories in priority order.
func (l *Loader) SearchPaths() ([]string, error) {
	projectDir := l.opts.ProjectDir
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	paths := []string{
		filepath.Join(projectDir, ".claude", "skills"),
		filepath.Join(projectDir, "skills"),
	}

	if !l.opts.DisableHomePaths {
		homeDir := l.opts.HomeDir
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				l.opts.Logger.Warn("could not determine home directory", "error", err)
			}
		}
		if homeDir != "" {
			paths = append(paths, filepath.Join(homeDir, ".claude", "skills"))
		}
	}

	return append(paths, l.opts.AdditionalPaths...), nil
}

// loadSkillsFromPath loads every <name>/SKILL.md directly under searchPath.
func (l *Loader) loadSkillsFromPath(searchPath string) error {
	info, err := os.Stat(searchPath)
	if os.IsNotExist(err) {
		l.opts.Logger.Debug("skill path does not exist", "path", searchPath)
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", searchPath)
	}

	matches, err := doublestar.Glob(os.DirFS(searchPath), "*/"+l.opts.Filename,
		doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("scanning directory: %w", err)
	}
	sort.Strings(matches)
	for _, match := range matches {
		l.loadSkillFile(filepath.Join(searchPath, filepath.FromSlash(match)))
	}
	return nil
}

func (l *Loader) loadSkillFile(filePath string) {
	s, err := ParseFile(filePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.opts.Logger.Warn("failed to parse skill file", "path", filePath, "error", err)
		}
		return
	}
	if _, exists := l.skills[s.Name]; exists {
		l.opts.Logger.Debug("skill already loaded", "name", s.Name, "ignored", filePath)
		return
	}
	l.skills[s.Name] = s
	l.opts.Logger.Debug("loaded skill", "name", s.Name, "path", filePath)
}
