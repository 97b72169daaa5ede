// Package skill knows what a tracked skill document is and where it lives.
//
// Skills are directories holding a SKILL.md file, usually under a
// .claude/skills/ or skills/ directory:
//
//	.claude/skills/
//	└── code-reviewer/
//	    ├── SKILL.md
//	    ├── CHANGELOG.md
//	    └── releases/
//	        └── v1.2.0_2026-10-14_SKILL.md
//
// The package provides the path classifier used to decide whether an edited
// file is a tracked document, the "Last Updated" metadata patcher, and a
// loader that discovers skills on disk.
//
// # Usage Example
//
//	c := skill.NewClassifier(skill.ClassifierOptions{})
//	if loc, ok := c.Classify("/repo/.claude/skills/demo/SKILL.md"); ok {
//	    fmt.Println(loc.Name) // demo
//	}
package skill

// DefaultFilename is the canonical name of a tracked skill document.
const DefaultFilename = "SKILL.md"

// Skill is a discovered skill document.
type Skill struct {
	// Name is the frontmatter name, or the directory name when the
	// frontmatter has none.
	Name string

	// Description comes from the frontmatter, if present.
	Description string

	// Version is the version extracted from the document text, which is
	// what snapshots are named after. When the text has no version header
	// the frontmatter version is used. Empty when neither is present.
	Version string

	// Body is the Markdown content after the frontmatter.
	Body string

	// FilePath is the path of the SKILL.md file.
	FilePath string

	// Dir is the directory containing FilePath.
	Dir string
}

// SkillConfig represents the YAML frontmatter structure in a SKILL.md file.
// Unknown keys are ignored.
type SkillConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
}
