// Package skillver versions and archives SKILL.md documents as they are
// edited.
//
// skillver runs as a post-tool-use hook. The host writes one JSON event to
// stdin after each edit. skillver replies on stdout with one JSON object
// whose "continue" field is always true, so the host's work is never
// blocked. For an edited skill document the [Dispatcher]:
//
//   - extracts the document version ([github.com/deepnoodle-ai/skillver/version]),
//   - sets the "Last Updated" date to today,
//   - writes a snapshot under releases/ ([github.com/deepnoodle-ai/skillver/archive]),
//   - adds the version to CHANGELOG.md ([github.com/deepnoodle-ai/skillver/changelog]).
//
// # Quick Start
//
//	cfg, _ := config.Load("", "")
//	d, _ := skillver.NewDispatcher(cfg)
//	_ = d.Run(ctx, os.Stdin, os.Stdout)
//
// Each event is processed synchronously from start to finish. Nothing is
// cached between events.
package skillver
