package skillver

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deepnoodle-ai/skillver/archive"
	"github.com/deepnoodle-ai/skillver/changelog"
	"github.com/deepnoodle-ai/skillver/config"
	"github.com/deepnoodle-ai/skillver/outcome"
	"github.com/deepnoodle-ai/wonton/assert"
)

const today = "2026-10-14"

func clock() time.Time {
	return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
}

func newTestDispatcher(t *testing.T, project string) *Dispatcher {
	t.Helper()
	cfg := config.Default(project)
	d, err := NewDispatcher(cfg, WithClock(clock))
	assert.NoError(t, err)
	return d
}

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	return string(data)
}

func hookInput(t *testing.T, tool, path string, success bool) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"session_id":  "sess-1",
		"tool_name":   tool,
		"tool_input":  map[string]any{"file_path": path, "content": "ignored"},
		"tool_output": map[string]any{"success": success},
	})
	assert.NoError(t, err)
	return data
}

func runHook(t *testing.T, d *Dispatcher, input []byte) Output {
	t.Helper()
	var out bytes.Buffer
	assert.NoError(t, d.Run(context.Background(), bytes.NewReader(input), &out))
	var reply Output
	assert.NoError(t, json.Unmarshal(out.Bytes(), &reply))
	return reply
}

func TestEndToEnd(t *testing.T) {
	project := t.TempDir()
	skillDir := filepath.Join(project, "skills", "demo")
	docPath := filepath.Join(skillDir, "SKILL.md")
	writeDoc(t, docPath, "**Version**: 1.0.0\n**Last Updated**: 2020-01-01")

	d := newTestDispatcher(t, project)
	archivePath := filepath.Join(skillDir, "releases", "v1.0.0_"+today+"_SKILL.md")
	changelogPath := filepath.Join(skillDir, "CHANGELOG.md")

	reply := runHook(t, d, hookInput(t, "Write", docPath, true))
	assert.True(t, reply.Continue)
	assert.Contains(t, reply.Message, "Backed up demo/SKILL.md")

	patched := "**Version**: 1.0.0\n**Last Updated**: " + today
	assert.Equal(t, patched, readFile(t, docPath))
	assert.Equal(t, patched, readFile(t, archivePath))

	log := readFile(t, changelogPath)
	assert.Contains(t, log, "# Changelog - demo")
	assert.Contains(t, log, "## [1.0.0] - "+today)
	assert.Contains(t, log, "releases/v1.0.0_"+today+"_SKILL.md")

	t.Run("replay is idempotent", func(t *testing.T) {
		before := readFile(t, changelogPath)

		reply := runHook(t, d, hookInput(t, "Edit", docPath, true))
		assert.True(t, reply.Continue)
		assert.Contains(t, reply.Message, "already exists")

		assert.Equal(t, before, readFile(t, changelogPath))
		entries, err := os.ReadDir(filepath.Join(skillDir, "releases"))
		assert.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestFailedEditHasNoSideEffects(t *testing.T) {
	project := t.TempDir()
	skillDir := filepath.Join(project, "skills", "demo")
	docPath := filepath.Join(skillDir, "SKILL.md")
	original := "**Version**: 1.0.0\n**Last Updated**: 2020-01-01"
	writeDoc(t, docPath, original)

	d := newTestDispatcher(t, project)
	reply := runHook(t, d, hookInput(t, "Write", docPath, false))
	assert.Equal(t, Output{Continue: true}, reply)

	assert.Equal(t, original, readFile(t, docPath))
	_, err := os.Stat(filepath.Join(skillDir, "releases"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(skillDir, "CHANGELOG.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestHandleIgnoresEvents(t *testing.T) {
	project := t.TempDir()
	docPath := filepath.Join(project, "skills", "demo", "SKILL.md")
	writeDoc(t, docPath, "Version: 1.0.0")
	d := newTestDispatcher(t, project)
	ctx := context.Background()

	tests := []struct {
		name string
		ev   EditEvent
	}{
		{"unrecognized tool", EditEvent{ToolName: "Read", FilePath: docPath, Succeeded: true}},
		{"empty tool", EditEvent{FilePath: docPath, Succeeded: true}},
		{"failed edit", EditEvent{ToolName: "Edit", FilePath: docPath}},
		{"untracked file", EditEvent{ToolName: "Edit", FilePath: filepath.Join(project, "README.md"), Succeeded: true}},
		{"archived copy", EditEvent{ToolName: "Edit", FilePath: filepath.Join(project, "skills", "demo", "releases", "SKILL.md"), Succeeded: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := d.Handle(ctx, tc.ev)
			assert.Equal(t, Ignored, r.Action)
			assert.Equal(t, "", r.Message)
			assert.Len(t, r.Steps, 0)
		})
	}
	_, err := os.Stat(filepath.Join(project, "skills", "demo", "releases"))
	assert.True(t, os.IsNotExist(err))
}

func TestHandleNoVersion(t *testing.T) {
	project := t.TempDir()
	docPath := filepath.Join(project, ".claude", "skills", "plain", "SKILL.md")
	writeDoc(t, docPath, "# Plain skill\n\n**Last Updated**: 2020-01-01\n")

	d := newTestDispatcher(t, project)
	r := d.Handle(context.Background(), EditEvent{ToolName: "Write", FilePath: docPath, Succeeded: true})
	assert.Equal(t, NoVersion, r.Action)
	assert.Contains(t, r.Message, "No version header found in plain/SKILL.md")

	// Unversioned documents are left alone entirely
	assert.Contains(t, readFile(t, docPath), "2020-01-01")
	_, err := os.Stat(filepath.Join(filepath.Dir(docPath), "releases"))
	assert.True(t, os.IsNotExist(err))
}

func TestHandleReadFailure(t *testing.T) {
	project := t.TempDir()
	docPath := filepath.Join(project, "skills", "gone", "SKILL.md")

	d := newTestDispatcher(t, project)
	r := d.Handle(context.Background(), EditEvent{ToolName: "Edit", FilePath: docPath, Succeeded: true})
	assert.Equal(t, ReadFailed, r.Action)
	assert.Contains(t, r.Message, "Could not read gone/SKILL.md")
	assert.True(t, r.Output().Continue)
}

func TestHandleWithoutLastUpdated(t *testing.T) {
	project := t.TempDir()
	docPath := filepath.Join(project, "skills", "demo", "SKILL.md")
	content := "# Demo\n\nVersion: 2.0.0-beta.1\n"
	writeDoc(t, docPath, content)

	d := newTestDispatcher(t, project)
	r := d.HandleFile(context.Background(), docPath)
	assert.Equal(t, Processed, r.Action)
	assert.Equal(t, "2.0.0-beta.1", r.Version)
	assert.Equal(t, today, r.Date)

	patch, ok := r.Step(StepMetadata)
	assert.True(t, ok)
	assert.Equal(t, outcome.Skipped, patch.Status)
	assert.Equal(t, content, readFile(t, docPath))

	saved, ok := r.Step(archive.StepName)
	assert.True(t, ok)
	assert.True(t, saved.OK())
	assert.Equal(t, content, readFile(t, saved.Path))
}

func TestHandleNewVersionAddsEntryOnTop(t *testing.T) {
	project := t.TempDir()
	docPath := filepath.Join(project, "skills", "demo", "SKILL.md")
	d := newTestDispatcher(t, project)
	ctx := context.Background()

	writeDoc(t, docPath, "**Version**: 1.0.0\n")
	assert.Equal(t, Processed, d.HandleFile(ctx, docPath).Action)

	writeDoc(t, docPath, "**Version**: 1.1.0\n")
	r := d.HandleFile(ctx, docPath)
	cl, ok := r.Step(changelog.StepName)
	assert.True(t, ok)
	assert.Equal(t, "updated", cl.Detail)

	log := readFile(t, filepath.Join(project, "skills", "demo", "CHANGELOG.md"))
	assert.True(t, strings.Index(log, "## [1.1.0]") < strings.Index(log, "## [1.0.0]"))

	entries, err := os.ReadDir(filepath.Join(project, "skills", "demo", "releases"))
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHandleArchiveFailureSkipsChangelog(t *testing.T) {
	project := t.TempDir()
	skillDir := filepath.Join(project, "skills", "demo")
	docPath := filepath.Join(skillDir, "SKILL.md")
	writeDoc(t, docPath, "**Version**: 1.0.0\n")
	// A file where the archive directory should be
	assert.NoError(t, os.WriteFile(filepath.Join(skillDir, "releases"), []byte("x"), 0o644))

	d := newTestDispatcher(t, project)
	r := d.HandleFile(context.Background(), docPath)
	assert.Equal(t, Processed, r.Action)
	assert.Contains(t, r.Message, "Failed to back up demo/SKILL.md")
	assert.True(t, r.Output().Continue)

	_, ok := r.Step(changelog.StepName)
	assert.False(t, ok)
	_, err := os.Stat(filepath.Join(skillDir, "CHANGELOG.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestHandleChangelogFailureIsAdvisory(t *testing.T) {
	project := t.TempDir()
	skillDir := filepath.Join(project, "skills", "demo")
	docPath := filepath.Join(skillDir, "SKILL.md")
	writeDoc(t, docPath, "**Version**: 1.0.0\n")
	assert.NoError(t, os.Mkdir(filepath.Join(skillDir, "CHANGELOG.md"), 0o755))

	d := newTestDispatcher(t, project)
	r := d.HandleFile(context.Background(), docPath)
	saved, _ := r.Step(archive.StepName)
	assert.True(t, saved.OK())
	cl, _ := r.Step(changelog.StepName)
	assert.True(t, cl.Failed())
	assert.Contains(t, r.Message, "Backed up demo/SKILL.md")
	assert.Contains(t, r.Message, "CHANGELOG.md not updated")
}

func TestHandleCanceledContext(t *testing.T) {
	project := t.TempDir()
	docPath := filepath.Join(project, "skills", "demo", "SKILL.md")
	writeDoc(t, docPath, "**Version**: 1.0.0\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newTestDispatcher(t, project).HandleFile(ctx, docPath)
	assert.Equal(t, Ignored, r.Action)
	assert.Equal(t, "demo", r.Location.Name)
}

func TestRunMalformedInput(t *testing.T) {
	d := newTestDispatcher(t, t.TempDir())

	reply := runHook(t, d, []byte("{not json"))
	assert.True(t, reply.Continue)
	assert.Contains(t, reply.Message, "skillver: decoding hook input")

	reply = runHook(t, d, nil)
	assert.True(t, reply.Continue)
	assert.Equal(t, "skillver: empty hook input", reply.Message)
}

func TestRunRecoversPanic(t *testing.T) {
	d := newTestDispatcher(t, t.TempDir())
	d.classifier = nil

	project := t.TempDir()
	docPath := filepath.Join(project, "skills", "demo", "SKILL.md")
	reply := runHook(t, d, hookInput(t, "Write", docPath, true))
	assert.True(t, reply.Continue)
	assert.Contains(t, reply.Message, "skillver: internal error")
}

func TestNewDispatcherRejectsBadConfig(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Tools = []string{"[bad"}
	_, err := NewDispatcher(cfg)
	assert.Error(t, err)
}

func TestCustomToolPatterns(t *testing.T) {
	project := t.TempDir()
	docPath := filepath.Join(project, "skills", "demo", "SKILL.md")
	writeDoc(t, docPath, "Version: 1.0.0\n")

	cfg := config.Default(project)
	cfg.Tools = []string{"*Edit"}
	d, err := NewDispatcher(cfg, WithClock(clock))
	assert.NoError(t, err)

	assert.Equal(t, Ignored, d.Handle(context.Background(), EditEvent{ToolName: "Write", FilePath: docPath, Succeeded: true}).Action)
	assert.Equal(t, Processed, d.Handle(context.Background(), EditEvent{ToolName: "MultiEdit", FilePath: docPath, Succeeded: true}).Action)
}

func TestHandleReadsClockOnce(t *testing.T) {
	project := t.TempDir()
	docPath := filepath.Join(project, "skills", "demo", "SKILL.md")
	writeDoc(t, docPath, "**Version**: 1.0.0\n**Last Updated**: 2020-01-01\n")

	// Each read of the clock moves past midnight UTC.
	next := time.Date(2026, 10, 14, 23, 59, 59, 0, time.UTC)
	tick := func() time.Time {
		now := next
		next = next.Add(24 * time.Hour)
		return now
	}
	d, err := NewDispatcher(config.Default(project), WithClock(tick))
	assert.NoError(t, err)

	r := d.HandleFile(context.Background(), docPath)
	assert.Equal(t, Processed, r.Action)
	assert.Equal(t, today, r.Date)

	saved, ok := r.Step(archive.StepName)
	assert.True(t, ok)
	assert.Equal(t, "v1.0.0_"+today+"_SKILL.md", filepath.Base(saved.Path))
	assert.True(t, strings.Contains(readFile(t, docPath), "**Last Updated**: "+today))
	assert.True(t, strings.Contains(readFile(t, filepath.Join(project, "skills", "demo", "CHANGELOG.md")), "## [1.0.0] - "+today))
}
