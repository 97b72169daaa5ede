// Command skillver versions SKILL.md documents.
//
// Run without a subcommand it acts as a post-tool-use hook: it reads one
// JSON event from stdin and always answers {"continue": true, ...} on
// stdout, exiting 0 even when something went wrong.
//
//	skillver < event.json
//	skillver archive .claude/skills/demo/SKILL.md
//	skillver watch
//	skillver list
//	skillver diff .claude/skills/demo/SKILL.md
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/deepnoodle-ai/skillver"
	"github.com/deepnoodle-ai/skillver/config"
	"github.com/deepnoodle-ai/skillver/slogger"
	"github.com/deepnoodle-ai/wonton/cli"
)

var (
	projectDir string
	configPath string
	logLevel   string
)

func main() {
	app := cli.New("skillver").
		Description("Version and archive SKILL.md documents as they are edited").
		Version("0.1.0").
		GlobalFlags(
			cli.String("project-dir", "p").
				Env(config.ProjectDirEnv).
				Help("Project root (defaults to the current directory)"),
			cli.String("config", "c").
				Env(config.FileEnv).
				Help("Path to a skill-versioning config file"),
			cli.String("log-level", "").
				Default("warn").
				Env("SKILLVER_LOG_LEVEL").
				Help("Log level for stderr (debug, info, warn, error)"),
		)

	app.Main().Run(runHook)

	registerArchiveCommand(app)
	registerWatchCommand(app)
	registerListCommand(app)
	registerDiffCommand(app)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// parseGlobalFlags extracts global flag values from context
func parseGlobalFlags(ctx *cli.Context) {
	projectDir = ctx.String("project-dir")
	configPath = ctx.String("config")
	logLevel = ctx.String("log-level")
}

// environment is everything a command needs to run the pipeline.
type environment struct {
	cfg        *config.Config
	logger     slogger.Logger
	dispatcher *skillver.Dispatcher
	closer     io.Closer
}

func (e *environment) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// setup loads the configuration and builds the dispatcher. Logs go to
// stderr and to the side-channel log file.
func setup(ctx *cli.Context) (*environment, error) {
	parseGlobalFlags(ctx)

	cfg, err := config.Load(projectDir, configPath)
	if err != nil {
		return nil, err
	}

	console := slogger.New(slogger.LevelFromString(logLevel))
	file, closer := slogger.OpenFile(cfg.LogPath(), slogger.LevelFromString(cfg.LogLevel))
	logger := slogger.Multi(console, file)

	d, err := skillver.NewDispatcher(cfg, skillver.WithLogger(logger))
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &environment{cfg: cfg, logger: logger, dispatcher: d, closer: closer}, nil
}

// runHook is the hook entry point. It never fails: setup errors are
// reported in the reply message instead.
func runHook(ctx *cli.Context) error {
	env, err := setup(ctx)
	if err != nil {
		reply := skillver.Output{Continue: true, Message: "skillver: " + err.Error()}
		if werr := skillver.WriteOutput(os.Stdout, reply); werr != nil {
			fmt.Fprintf(os.Stderr, "skillver: %v\n", werr)
		}
		return nil
	}
	defer env.Close()

	if err := env.dispatcher.Run(context.Background(), os.Stdin, os.Stdout); err != nil {
		env.logger.Error("failed to write hook reply", "error", err)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
