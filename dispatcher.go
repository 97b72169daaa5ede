package skillver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepnoodle-ai/skillver/archive"
	"github.com/deepnoodle-ai/skillver/changelog"
	"github.com/deepnoodle-ai/skillver/config"
	"github.com/deepnoodle-ai/skillver/outcome"
	"github.com/deepnoodle-ai/skillver/skill"
	"github.com/deepnoodle-ai/skillver/slogger"
	"github.com/deepnoodle-ai/skillver/version"
	"github.com/gobwas/glob"
)

// StepMetadata identifies the "Last Updated" patch outcome.
const StepMetadata = "metadata"

// Action summarizes what the dispatcher did with an event.
type Action int

const (
	// Ignored means the event did not concern a tracked document.
	Ignored Action = iota
	// ReadFailed means the document could not be read.
	ReadFailed
	// NoVersion means the document has no version header.
	NoVersion
	// Processed means the archive step ran. Check Steps for its outcome.
	Processed
)

func (a Action) String() string {
	switch a {
	case Ignored:
		return "ignored"
	case ReadFailed:
		return "read-failed"
	case NoVersion:
		return "no-version"
	case Processed:
		return "processed"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Result describes how one event was handled.
type Result struct {
	Action   Action
	Location skill.Location
	Version  string
	Date     string
	Steps    []outcome.Outcome
	Message  string
}

// Output converts the result to the hook reply.
func (r Result) Output() Output {
	return Output{Continue: true, Message: r.Message}
}

// Step returns the outcome of the named step, if it ran.
func (r Result) Step(name string) (outcome.Outcome, bool) {
	for _, s := range r.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return outcome.Outcome{}, false
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(logger slogger.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClock sets the clock used for archive and changelog dates.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// Dispatcher runs the versioning pipeline for edit events. It keeps no
// state between events and is meant to be driven by one caller at a time.
type Dispatcher struct {
	cfg        *config.Config
	tools      []glob.Glob
	classifier *skill.Classifier
	archiver   *archive.Writer
	changelog  *changelog.Updater
	logger     slogger.Logger
	now        func() time.Time
}

// NewDispatcher returns a Dispatcher for cfg.
func NewDispatcher(cfg *config.Config, opts ...Option) (*Dispatcher, error) {
	if cfg == nil {
		cfg = config.Default("")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	tools, err := cfg.ToolMatchers()
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		cfg:        cfg,
		tools:      tools,
		classifier: cfg.Classifier(),
		changelog:  changelog.NewUpdater(),
		logger:     slogger.DefaultLogger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.archiver = &archive.Writer{Dir: cfg.ArchiveDir, Now: d.now}
	return d, nil
}

// Classifier returns the path classifier in use.
func (d *Dispatcher) Classifier() *skill.Classifier {
	return d.classifier
}

// Run reads one hook event from r, handles it, and writes the reply to w.
// Malformed input and panics become advisory replies. The only error
// returned is a failure to write the reply.
func (d *Dispatcher) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	return WriteOutput(w, d.serve(ctx, r))
}

func (d *Dispatcher) serve(ctx context.Context, r io.Reader) (out Output) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("panic while handling hook event", "panic", p)
			out = Output{Continue: true, Message: fmt.Sprintf("skillver: internal error: %v", p)}
		}
	}()

	in, err := DecodeInput(r)
	if err != nil {
		d.logger.Error("invalid hook input", "error", err)
		return Output{Continue: true, Message: "skillver: " + err.Error()}
	}
	return d.Handle(ctx, in.Event()).Output()
}

// Handle processes a single edit event. Events from unrecognized tools,
// failed edits and untracked paths are ignored without side effects.
func (d *Dispatcher) Handle(ctx context.Context, ev EditEvent) Result {
	if !d.recognizedTool(ev.ToolName) {
		d.logger.Debug("ignoring unrecognized tool", "tool", ev.ToolName)
		return Result{Action: Ignored}
	}
	if !ev.Succeeded {
		d.logger.Debug("ignoring failed edit", "tool", ev.ToolName, "path", ev.FilePath)
		return Result{Action: Ignored}
	}
	return d.HandleFile(ctx, ev.FilePath)
}

func (d *Dispatcher) recognizedTool(name string) bool {
	for _, g := range d.tools {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// HandleFile runs the pipeline for path as if it had just been edited.
func (d *Dispatcher) HandleFile(ctx context.Context, path string) Result {
	loc, ok := d.classifier.Classify(path)
	if !ok {
		return Result{Action: Ignored}
	}
	label := loc.Name + "/" + loc.Filename
	logger := d.logger.With("skill", loc.Name, "path", loc.Path)

	if err := ctx.Err(); err != nil {
		logger.Warn("skipping document", "error", err)
		return Result{Action: Ignored, Location: loc}
	}

	data, err := os.ReadFile(loc.Path)
	if err != nil {
		logger.Error("failed to read document", "error", err)
		return Result{
			Action:   ReadFailed,
			Location: loc,
			Message:  fmt.Sprintf("Could not read %s: %v", label, err),
		}
	}

	ver, ok := version.Extract(string(data))
	if !ok {
		logger.Info("no version header found")
		return Result{
			Action:   NoVersion,
			Location: loc,
			Message:  fmt.Sprintf("No version header found in %s; no backup created", label),
		}
	}

	result := Result{
		Action:   Processed,
		Location: loc,
		Version:  ver,
		Date:     archive.Date(d.now()),
	}
	logger = logger.With("version", ver)

	content, patch := d.patchMetadata(loc, data, result.Date)
	result.Steps = append(result.Steps, patch)
	if patch.Failed() {
		logger.Error("failed to update Last Updated", "error", patch.Err)
	}

	saved := d.archiver.WriteDated(loc.Dir, loc.Filename, content, ver, result.Date)
	result.Steps = append(result.Steps, saved)
	switch saved.Status {
	case outcome.Succeeded:
		logger.Info("archived document", "archive", saved.Path)
	case outcome.Skipped:
		logger.Info("archive already exists", "archive", saved.Path)
	case outcome.Failed:
		logger.Error("failed to archive document", "error", saved.Err)
	}

	if !saved.Failed() {
		entry := changelog.Entry{
			Name:     loc.Name,
			Version:  ver,
			Date:     result.Date,
			Document: loc.Filename,
			Archive:  relativeTo(loc.Dir, saved.Path),
		}
		logPath := filepath.Join(loc.Dir, d.cfg.ChangelogFile)
		updated := d.changelog.Update(logPath, entry)
		result.Steps = append(result.Steps, updated)
		if updated.Failed() {
			logger.Warn("failed to update changelog", "error", updated.Err)
		} else {
			logger.Debug("changelog", "status", updated.Status, "detail", updated.Detail)
		}
	}

	result.Message = d.message(label, result)
	return result
}

// patchMetadata updates the document's Last Updated field on disk and
// returns the content that should be archived. When the write fails the
// archive gets the unpatched content so it matches the file on disk.
func (d *Dispatcher) patchMetadata(loc skill.Location, data []byte, date string) ([]byte, outcome.Outcome) {
	patched, changed := skill.PatchLastUpdated(string(data), date)
	if !changed {
		return data, outcome.Skip(StepMetadata, loc.Path, "unchanged")
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(loc.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(loc.Path, []byte(patched), mode); err != nil {
		return data, outcome.Fail(StepMetadata, loc.Path, fmt.Errorf("writing document: %w", err))
	}
	return []byte(patched), outcome.Success(StepMetadata, loc.Path, "Last Updated set to "+date)
}

func (d *Dispatcher) message(label string, r Result) string {
	var parts []string
	saved, _ := r.Step(archive.StepName)
	name := filepath.Base(saved.Path)
	switch saved.Status {
	case outcome.Succeeded:
		parts = append(parts, fmt.Sprintf("Backed up %s (v%s) as %s/%s", label, r.Version, d.cfg.ArchiveDir, name))
	case outcome.Skipped:
		parts = append(parts, fmt.Sprintf("Backup %s/%s already exists for %s", d.cfg.ArchiveDir, name, label))
	case outcome.Failed:
		parts = append(parts, fmt.Sprintf("Failed to back up %s: %s", label, saved.Detail))
	}
	if patch, ok := r.Step(StepMetadata); ok {
		switch patch.Status {
		case outcome.Succeeded:
			parts = append(parts, patch.Detail)
		case outcome.Failed:
			parts = append(parts, "could not update Last Updated: "+patch.Detail)
		}
	}
	if cl, ok := r.Step(changelog.StepName); ok {
		switch cl.Status {
		case outcome.Succeeded:
			parts = append(parts, fmt.Sprintf("%s %s", d.cfg.ChangelogFile, cl.Detail))
		case outcome.Skipped:
			parts = append(parts, fmt.Sprintf("%s entry for %s already exists", d.cfg.ChangelogFile, r.Version))
		case outcome.Failed:
			parts = append(parts, fmt.Sprintf("%s not updated: %s", d.cfg.ChangelogFile, cl.Detail))
		}
	}
	return strings.Join(parts, "; ")
}

func relativeTo(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return rel
}
