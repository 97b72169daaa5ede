// Package config holds skillver's settings.
//
// Settings come from built-in defaults, the CLAUDE_PROJECT_DIR environment
// variable, and an optional file at .claude/skill-versioning.yaml (or .json)
// under the project directory:
//
//	Tools: [Write, Edit]
//	SkillRoots:
//	  - "**/.claude/skills"
//	  - "**/skills"
//	ArchiveDir: releases
//	LogLevel: debug
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deepnoodle-ai/skillver/archive"
	"github.com/deepnoodle-ai/skillver/changelog"
	"github.com/deepnoodle-ai/skillver/skill"
	"github.com/gobwas/glob"
)

// ProjectDirEnv names the environment variable selecting the project root.
const ProjectDirEnv = "CLAUDE_PROJECT_DIR"

// DefaultTools are the edit tools whose events are acted on.
var DefaultTools = []string{"Write", "Edit"}

// Config is the resolved configuration handed to the dispatcher.
type Config struct {
	// ProjectDir is the project root. The log file lives under it.
	ProjectDir string `yaml:"-" json:"-"`

	// Tools are glob patterns for recognized edit tool names.
	Tools []string `yaml:"Tools,omitempty" json:"Tools,omitempty"`

	// Filename is the tracked document name.
	Filename string `yaml:"Filename,omitempty" json:"Filename,omitempty"`

	// SkillRoots are doublestar patterns for skills directories.
	SkillRoots []string `yaml:"SkillRoots,omitempty" json:"SkillRoots,omitempty"`

	// ArchiveDir is the snapshot directory name next to each document. It
	// is also the archive root segment that disqualifies a path.
	ArchiveDir string `yaml:"ArchiveDir,omitempty" json:"ArchiveDir,omitempty"`

	// ChangelogFile is the changelog name next to each document.
	ChangelogFile string `yaml:"ChangelogFile,omitempty" json:"ChangelogFile,omitempty"`

	// LogFile is the side-channel log. Relative paths resolve against
	// ProjectDir. Set to "-" to disable it.
	LogFile string `yaml:"LogFile,omitempty" json:"LogFile,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"LogLevel,omitempty" json:"LogLevel,omitempty"`
}

// Default returns the built-in configuration rooted at projectDir. An empty
// projectDir is resolved from CLAUDE_PROJECT_DIR, then the working directory.
func Default(projectDir string) *Config {
	return &Config{
		ProjectDir:    ResolveProjectDir(projectDir),
		Tools:         append([]string(nil), DefaultTools...),
		Filename:      skill.DefaultFilename,
		SkillRoots:    append([]string(nil), skill.DefaultRoots...),
		ArchiveDir:    archive.DefaultDir,
		ChangelogFile: changelog.DefaultFilename,
		LogFile:       filepath.Join(".claude", "logs", "skill-versioning.log"),
		LogLevel:      "info",
	}
}

// ResolveProjectDir returns dir, or CLAUDE_PROJECT_DIR, or the working
// directory, whichever is first non-empty.
func ResolveProjectDir(dir string) string {
	if dir != "" {
		return dir
	}
	if env := os.Getenv(ProjectDirEnv); env != "" {
		return env
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// LogPath returns the absolute side-channel log path, or "" when disabled.
func (c *Config) LogPath() string {
	switch {
	case c.LogFile == "" || c.LogFile == "-":
		return ""
	case filepath.IsAbs(c.LogFile):
		return c.LogFile
	default:
		return filepath.Join(c.ProjectDir, c.LogFile)
	}
}

// Classifier builds the path classifier described by c.
func (c *Config) Classifier() *skill.Classifier {
	return skill.NewClassifier(skill.ClassifierOptions{
		Filename:     c.Filename,
		Roots:        c.SkillRoots,
		ArchiveRoots: []string{c.ArchiveDir},
	})
}

// ToolMatchers compiles the tool name patterns.
func (c *Config) ToolMatchers() ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(c.Tools))
	for _, pattern := range c.Tools {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid tool pattern %q: %w", pattern, err)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Tools) == 0 {
		errs = append(errs, errors.New("at least one tool pattern is required"))
	}
	if _, err := c.ToolMatchers(); err != nil {
		errs = append(errs, err)
	}
	if c.Filename == "" {
		errs = append(errs, errors.New("filename is required"))
	}
	if len(c.SkillRoots) == 0 {
		errs = append(errs, errors.New("at least one skill root is required"))
	}
	if err := skill.ValidateRoots(c.SkillRoots); err != nil {
		errs = append(errs, err)
	}
	if c.ArchiveDir == "" || filepath.Base(c.ArchiveDir) != c.ArchiveDir {
		errs = append(errs, fmt.Errorf("archive dir must be a single directory name, got %q", c.ArchiveDir))
	}
	if c.ChangelogFile == "" {
		errs = append(errs, errors.New("changelog file is required"))
	}
	return errors.Join(errs...)
}
