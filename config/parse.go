package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// FileEnv names the environment variable selecting an explicit config file.
const FileEnv = "SKILLVER_CONFIG"

// candidate config files relative to the project directory, in order.
var candidates = []string{
	filepath.Join(".claude", "skill-versioning.yaml"),
	filepath.Join(".claude", "skill-versioning.yml"),
	filepath.Join(".claude", "skill-versioning.json"),
}

// Load returns the configuration for projectDir. The explicit path, then
// SKILLVER_CONFIG, then the first candidate file that exists is merged over
// the defaults. No file at all is not an error.
func Load(projectDir, path string) (*Config, error) {
	cfg := Default(projectDir)

	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path == "" {
		for _, c := range candidates {
			p := filepath.Join(cfg.ProjectDir, c)
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		return cfg, nil
	}

	file, err := ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg = Merge(cfg, file)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseFile loads a Config from a file. The file extension selects the
// format (JSON or YAML).
func ParseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return ParseJSON(data)
	case ".yml", ".yaml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// ParseYAML loads a Config from YAML. Unknown keys are rejected.
func ParseYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict()); err != nil {
		return nil, err
	}
	return &config, nil
}

// ParseJSON loads a Config from JSON. Unknown keys are rejected.
func ParseJSON(data []byte) (*Config, error) {
	var config Config
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Merge returns base with every non-empty field of override applied.
func Merge(base, override *Config) *Config {
	result := *base
	if len(override.Tools) > 0 {
		result.Tools = override.Tools
	}
	if override.Filename != "" {
		result.Filename = override.Filename
	}
	if len(override.SkillRoots) > 0 {
		result.SkillRoots = override.SkillRoots
	}
	if override.ArchiveDir != "" {
		result.ArchiveDir = override.ArchiveDir
	}
	if override.ChangelogFile != "" {
		result.ChangelogFile = override.ChangelogFile
	}
	if override.LogFile != "" {
		result.LogFile = override.LogFile
	}
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	return &result
}
