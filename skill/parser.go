package skill

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepnoodle-ai/skillver/version"
	"github.com/goccy/go-yaml"
)

const frontmatterDelimiter = "---"

// ParseFile reads and parses a skill document.
func ParseFile(filePath string) (*Skill, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading skill file: %w", err)
	}
	return ParseContent(content, filePath)
}

// ParseContent parses a skill document. The YAML frontmatter is optional;
// without it the whole content is the body and the name is derived from
// the enclosing directory.
func ParseContent(content []byte, filePath string) (*Skill, error) {
	var cfg SkillConfig
	body := content

	trimmed := bytes.TrimLeft(content, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte(frontmatterDelimiter+"\n")) ||
		bytes.HasPrefix(trimmed, []byte(frontmatterDelimiter+"\r\n")) {
		rest := trimmed[len(frontmatterDelimiter):]
		idx := bytes.Index(rest, []byte("\n"+frontmatterDelimiter))
		if idx == -1 {
			return nil, fmt.Errorf("missing closing frontmatter delimiter (---)")
		}
		if err := yaml.Unmarshal(rest[:idx], &cfg); err != nil {
			return nil, fmt.Errorf("parsing skill frontmatter: %w", err)
		}
		body = bytes.TrimLeft(rest[idx+len("\n"+frontmatterDelimiter):], "\r\n")
	}

	if cfg.Name == "" {
		cfg.Name = deriveSkillName(filePath)
	}
	if cfg.Name == "" || cfg.Name == "." {
		return nil, fmt.Errorf("skill name is required")
	}

	v, ok := version.Extract(string(content))
	if !ok {
		v = strings.TrimSpace(cfg.Version)
	}
	return &Skill{
		Name:        cfg.Name,
		Description: cfg.Description,
		Version:     v,
		Body:        strings.TrimSpace(string(body)),
		FilePath:    filePath,
		Dir:         filepath.Dir(filePath),
	}, nil
}

// deriveSkillName returns the directory name for SKILL.md files and the
// file stem otherwise.
//
//	deriveSkillName("/path/to/code-reviewer/SKILL.md") // "code-reviewer"
//	deriveSkillName("/path/to/skills/helper.md")       // "helper"
func deriveSkillName(filePath string) string {
	base := filepath.Base(filePath)
	if strings.EqualFold(base, DefaultFilename) {
		return filepath.Base(filepath.Dir(filePath))
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
