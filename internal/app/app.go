// Package app implements the application layer for bake.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/bake/internal/adapters/detector"
	"go.trai.ch/bake/internal/adapters/linear"
	"go.trai.ch/bake/internal/adapters/telemetry"
	"go.trai.ch/bake/internal/adapters/tui"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/dispatch"
	"go.trai.ch/bake/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// JobsFromBakefile leaves the worker count to the Bakefile.
const JobsFromBakefile = -1

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scheduler    *scheduler.Scheduler
	dispatcher   *dispatch.Dispatcher
	stores       ports.StoreOpener
	tracer       *telemetry.OTelTracer
	watcher      ports.Watcher
	logger       ports.Logger

	stdout io.Writer
	stderr io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	dispatcher *dispatch.Dispatcher,
	stores ports.StoreOpener,
	tracer *telemetry.OTelTracer,
	watcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		scheduler:    sched,
		dispatcher:   dispatcher,
		stores:       stores,
		tracer:       tracer,
		watcher:      watcher,
		logger:       log,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput redirects action output and the report. Used for testing.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// RunOptions configuration for the Build, Plan and Watch methods.
type RunOptions struct {
	// Dir is where the Bakefile search starts. Empty means the working directory.
	Dir string
	// File names the Bakefile explicitly.
	File string
	// Jobs overrides the Bakefile worker count unless it is JobsFromBakefile.
	Jobs       int
	DryRun     bool
	Explain    bool
	OutputMode string
}

// SetLogFormat switches the logger between text and JSON records.
func (a *App) SetLogFormat(format string) error {
	var jsonMode bool
	switch format {
	case "", "text":
	case "json":
		jsonMode = true
	default:
		return errors.Join(domain.ErrInvalidUsage, zerr.With(zerr.New("unknown log format"), "format", format))
	}

	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(jsonMode)
	}
	return nil
}

// Build brings the requested targets, or every target when none are named, up to date.
func (a *App) Build(ctx context.Context, targetNames []string, opts RunOptions) error {
	project, err := a.load(opts)
	if err != nil {
		return err
	}
	_, err = a.build(ctx, project, targetNames, opts)
	return err
}

// Plan reports which targets a build would run and why, without running anything.
func (a *App) Plan(ctx context.Context, targetNames []string, opts RunOptions) error {
	opts.DryRun = true
	opts.Explain = true
	return a.Build(ctx, targetNames, opts)
}

func (a *App) load(opts RunOptions) (*domain.Project, error) {
	cwd := opts.Dir
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		cwd = wd
	}

	project, err := a.configLoader.Load(cwd, opts.File)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidConfig, err)
	}
	return project, nil
}

// build runs the scheduler for one loaded project and prints the report.
func (a *App) build(
	ctx context.Context,
	project *domain.Project,
	targetNames []string,
	opts RunOptions,
) (*domain.RunReport, error) {
	bc := project.Context
	if len(targetNames) > 0 {
		g, err := bc.Graph.Select(targetNames)
		if err != nil {
			return nil, errors.Join(domain.ErrInvalidConfig, err)
		}
		bc = bc.WithGraph(g)
	}

	if err := a.dispatcher.Table().Validate(bc.Graph); err != nil {
		return nil, errors.Join(domain.ErrInvalidConfig, err)
	}

	store, err := a.stores.Open(absPath(project.Root(), project.StorePath))
	if err != nil {
		return nil, err
	}
	if d, ok := store.(interface{ Discarded() error }); ok && d.Discarded() != nil {
		bc.Warn("signature store discarded, every target is stale")
	}

	jobs := project.Jobs
	if opts.Jobs != JobsFromBakefile {
		jobs = opts.Jobs
	}

	// Pressing ctrl+c in the TUI interrupts the run through cancel.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	renderer := a.newRenderer(opts.OutputMode, cancel)
	a.tracer.WithRenderer(renderer)

	if err := renderer.Start(ctx); err != nil {
		return nil, err
	}

	report, runErr := a.scheduler.Run(ctx, bc, scheduler.RunOptions{
		Jobs:       jobs,
		DryRun:     opts.DryRun,
		Explain:    opts.Explain,
		Store:      store,
		Signatures: project.Signatures,
	})

	if err := renderer.Stop(); err != nil {
		a.logger.Warn("renderer: " + err.Error())
	}

	if report != nil {
		linear.PrintReport(a.stderr, report, runErr)
	}
	if runErr != nil {
		return report, errors.Join(domain.ErrBuildFailed, runErr)
	}
	return report, nil
}

func (a *App) newRenderer(outputMode string, interrupt func()) ports.Renderer {
	switch detector.ResolveMode(detector.DetectEnvironment(), outputMode) {
	case detector.ModeTUI:
		return tui.NewRenderer(tui.NewModel(interrupt), tea.WithOutput(a.stderr), tea.WithAltScreen())
	case detector.ModeQuiet:
		return linear.NewRenderer(a.stdout, a.stderr, linear.WithQuiet())
	default:
		return linear.NewRenderer(a.stdout, a.stderr)
	}
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Dir  string
	File string
	// Outputs also removes every declared output and the generated intermediate sources.
	Outputs bool
}

// Clean removes the signature store and, optionally, the build outputs.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	project, err := a.load(RunOptions{Dir: options.Dir, File: options.File})
	if err != nil {
		return err
	}
	root := project.Root()

	var errs error
	remove := func(path, name string) {
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove "+name), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(absPath(root, project.StorePath), "signature store")

	if !options.Outputs {
		return errs
	}

	removed := 0
	for t := range project.Context.Graph.Targets() {
		if t.IsPhony() {
			continue
		}
		path := absPath(root, t.Output())
		if _, err := os.Lstat(path); err != nil {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove output"), "path", path))
			continue
		}
		removed++
	}
	a.logger.Info(fmt.Sprintf("removed %d output(s)", removed))
	remove(filepath.Join(root, domain.DefaultTmpPath()), "generated sources")

	return errs
}

// absPath resolves p against the project root unless it is already absolute.
func absPath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// TargetInfo describes one declared target.
type TargetInfo struct {
	Name string
	Kind string
}

// Targets lists the declared targets in declaration order.
func (a *App) Targets(_ context.Context, opts RunOptions) ([]TargetInfo, error) {
	project, err := a.load(opts)
	if err != nil {
		return nil, err
	}

	g := project.Context.Graph
	infos := make([]TargetInfo, 0, g.Len())
	for t := range g.Targets() {
		infos = append(infos, TargetInfo{Name: t.Output(), Kind: t.Kind.String()})
	}
	return infos, nil
}
