// Package app wires the command line, configuration, scene providers,
// graph builder, analysis, and exporters into one run.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/storygraph-dev/storygraph/pkg/analysis"
	"github.com/storygraph-dev/storygraph/pkg/cli"
	"github.com/storygraph-dev/storygraph/pkg/config"
	"github.com/storygraph-dev/storygraph/pkg/export"
	"github.com/storygraph-dev/storygraph/pkg/graph"
	"github.com/storygraph-dev/storygraph/pkg/logger"
	"github.com/storygraph-dev/storygraph/pkg/scene"
)

// Application holds the resolved settings for one invocation.
type Application struct {
	opts   *cli.Options
	cfg    config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

// New creates an Application writing to the given streams.
func New(stdout, stderr io.Writer) *Application {
	return &Application{stdout: stdout, stderr: stderr}
}

// Run executes the tool with the given command line arguments.
func (app *Application) Run(args []string) error {
	opts, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.opts = opts

	if opts.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := app.loadConfig(); err != nil {
		return err
	}

	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	location := app.cfg.Story.Path
	if location == "" {
		location = app.cfg.Story.URL
	}
	app.log.Info("storygraph started", "story", location, "start", app.cfg.Story.StartScene)

	provider, err := app.newProvider()
	if err != nil {
		return fmt.Errorf("failed to open story: %w", err)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}

	builder := graph.NewBuilder(provider, app.cfg.Story.Strict)
	g, err := builder.Build(app.cfg.Story.StartScene)

	for _, d := range builder.Diagnostics() {
		fmt.Fprintln(app.stderr, d.String())
	}
	if err != nil {
		return err
	}

	app.log.Info("graph built",
		"scenes", len(g.SceneNames()),
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"warnings", len(builder.Diagnostics()))

	var report *analysis.Report
	if !opts.NoAnalysis {
		report = analysis.Analyze(g)
		app.log.Info("analysis complete",
			"cycles", len(report.Cycles),
			"unreachable", len(report.Unreachable),
			"dead_ends", len(report.DeadEnds),
			"undeclared", len(report.Variables.Undeclared))
	}

	if err := app.writeOutput(g, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	app.log.Info("storygraph finished")
	return nil
}

// loadConfig loads the YAML config and lays the command line on top of it.
func (app *Application) loadConfig() error {
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return err
	}

	if app.opts.StoryPath != "" {
		if isURL(app.opts.StoryPath) {
			cfg.Story.URL = app.opts.StoryPath
			cfg.Story.Path = ""
		} else {
			cfg.Story.Path = app.opts.StoryPath
			cfg.Story.URL = ""
		}
	}
	if app.opts.StartScene != "" {
		cfg.Story.StartScene = app.opts.StartScene
	}
	if app.opts.Strict {
		cfg.Story.Strict = true
	}
	if app.opts.LogLevel != "info" {
		cfg.Logging.Level = app.opts.LogLevel
	}

	// A single scene file means graph its directory, starting there.
	if cfg.Story.Path != "" {
		if info, err := os.Stat(cfg.Story.Path); err == nil && !info.IsDir() {
			cfg.Story.StartScene = scene.Normalize(filepath.Base(cfg.Story.Path))
			cfg.Story.Path = filepath.Dir(cfg.Story.Path)
		}
	}

	if cfg.Story.Path == "" && cfg.Story.URL == "" {
		return fmt.Errorf("no story given: pass a scene directory or URL, or set story.path in the config")
	}

	app.cfg = cfg
	return nil
}

func (app *Application) initLogger() error {
	if err := logger.InitLogger(logger.Options{
		Level:  app.cfg.Logging.Level,
		Format: app.cfg.Logging.Format,
		File:   app.cfg.Logging.File,
	}); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// newProvider picks the scene source for the configured story location.
func (app *Application) newProvider() (scene.Provider, error) {
	if app.cfg.Story.URL != "" {
		timeout := time.Duration(app.cfg.Story.TimeoutMs) * time.Millisecond
		web, err := scene.NewWebProvider(app.cfg.Story.URL, timeout)
		if err != nil {
			return nil, err
		}
		if app.cfg.Story.CachePath != "" {
			return scene.NewCacheProvider(web, app.cfg.Story.CachePath, 24*time.Hour)
		}
		return web, nil
	}
	return scene.NewDirProvider(app.cfg.Story.Path)
}

func (app *Application) writeOutput(g *graph.Graph, report *analysis.Report) error {
	out := app.stdout
	if app.opts.Output != "" && app.opts.Output != "-" {
		f, err := os.Create(app.opts.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch app.opts.Format {
	case "json":
		return export.WriteJSON(out, g)
	case "markdown":
		return export.WriteMarkdown(out, g, report)
	default:
		return export.WriteDOT(out, g)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
