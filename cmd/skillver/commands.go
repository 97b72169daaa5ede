package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deepnoodle-ai/skillver"
	"github.com/deepnoodle-ai/skillver/archive"
	"github.com/deepnoodle-ai/skillver/internal/tablewriter"
	"github.com/deepnoodle-ai/skillver/skill"
	"github.com/deepnoodle-ai/skillver/watch"
	"github.com/deepnoodle-ai/wonton/cli"
)

func registerArchiveCommand(app *cli.App) {
	app.Command("archive").
		Description("Run the versioning pipeline on a skill document").
		Long(`Archive a SKILL.md as if it had just been edited.

The Last Updated field is refreshed, a snapshot is written to the skill's
releases directory and the skill changelog gets an entry for the version.
Running it twice for the same version and day is a no-op.`).
		Args("path").
		Run(func(ctx *cli.Context) error {
			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			path, err := filepath.Abs(ctx.Arg(0))
			if err != nil {
				return err
			}
			result := env.dispatcher.HandleFile(context.Background(), path)
			printResult(path, result)
			if result.Action == skillver.Ignored {
				return cli.Errorf("%s is not a tracked skill document", path)
			}
			return nil
		})
}

func registerWatchCommand(app *cli.App) {
	app.Command("watch").
		Description("Watch skill directories and archive documents as they change").
		Args("dir?").
		Flags(
			cli.Int("debounce", "d").
				Default(int(watch.DefaultDebounce.Milliseconds())).
				Help("Milliseconds to wait for edits to settle"),
		).
		Run(func(ctx *cli.Context) error {
			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			var roots []string
			if ctx.NArg() > 0 {
				roots = []string{ctx.Arg(0)}
			} else {
				roots, err = existingDirs(newLoader(env).SearchPaths())
				if err != nil {
					return err
				}
			}
			if len(roots) == 0 {
				return cli.Errorf("no skills directories found under %s", env.cfg.ProjectDir)
			}

			w, err := watch.New(env.dispatcher, watch.Options{
				Roots:    roots,
				Filename: env.cfg.Filename,
				SkipDirs: []string{env.cfg.ArchiveDir, ".git"},
				Debounce: msDuration(ctx.Int("debounce")),
				Logger:   env.logger,
				OnResult: printResult,
			})
			if err != nil {
				return err
			}
			defer w.Close()

			for _, root := range roots {
				infoStyle.Printf("%s watching %s\n", arrow, root)
			}
			goCtx, stop := signalContext()
			defer stop()
			return w.Run(goCtx)
		})
}

func registerListCommand(app *cli.App) {
	app.Command("list").
		Description("List discovered skills and their latest snapshot").
		NoArgs().
		Run(func(ctx *cli.Context) error {
			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			loader := newLoader(env)
			if err := loader.LoadSkills(); err != nil {
				return err
			}
			skills := loader.ListSkills()
			if len(skills) == 0 {
				mutedStyle.Println("No skills found")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Skill", "Version", "Snapshots", "Latest", "Path"})
			for _, s := range skills {
				snapshots, err := archive.List(filepath.Join(s.Dir, env.cfg.ArchiveDir), env.cfg.Filename)
				if err != nil {
					env.logger.Warn("failed to list snapshots", "skill", s.Name, "error", err)
				}
				table.Append(skillRow(env.cfg.ProjectDir, s, snapshots))
			}
			table.Render()
			return nil
		})
}

func registerDiffCommand(app *cli.App) {
	app.Command("diff").
		Description("Show changes since the latest snapshot of a skill document").
		Args("path").
		Flags(
			cli.Int("context", "C").Default(3).Help("Number of context lines"),
		).
		Run(func(ctx *cli.Context) error {
			env, err := setup(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			path := ctx.Arg(0)
			current, err := os.ReadFile(path)
			if err != nil {
				return cli.Errorf("reading %s: %v", path, err)
			}
			dir := filepath.Join(filepath.Dir(path), env.cfg.ArchiveDir)
			snap, ok, err := archive.Latest(dir, filepath.Base(path))
			if err != nil {
				return err
			}
			if !ok {
				return cli.Errorf("no snapshots of %s in %s", path, dir)
			}
			previous, err := os.ReadFile(snap.Path)
			if err != nil {
				return cli.Errorf("reading %s: %v", snap.Path, err)
			}

			diff, err := unifiedDiff(string(previous), string(current), snap.Path, path, ctx.Int("context"))
			if err != nil {
				return err
			}
			if diff == "" {
				mutedStyle.Printf("No changes since %s\n", filepath.Base(snap.Path))
				return nil
			}
			printDiff(diff)
			return nil
		})
}

// skillRow formats one line of the list table. Latest is the newest
// snapshot's file name.
func skillRow(projectDir string, s *skill.Skill, snapshots []archive.Snapshot) []string {
	latest := "-"
	if n := len(snapshots); n > 0 {
		latest = filepath.Base(snapshots[n-1].Path)
	}
	ver := s.Version
	if ver == "" {
		ver = "-"
	}
	return []string{s.Name, ver, fmt.Sprint(len(snapshots)), latest, relativePath(projectDir, s.FilePath)}
}

func newLoader(env *environment) *skill.Loader {
	return skill.NewLoader(skill.LoaderOptions{
		ProjectDir: env.cfg.ProjectDir,
		Filename:   env.cfg.Filename,
		Logger:     env.logger,
	})
}

// existingDirs keeps the paths that exist and are directories.
func existingDirs(paths []string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	return dirs, nil
}

func relativePath(base, target string) string {
	if rel, err := filepath.Rel(base, target); err == nil {
		return rel
	}
	return target
}
