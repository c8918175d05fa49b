package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.trai.ch/bake/internal/adapters/watcher"
	"go.trai.ch/bake/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

// Watch builds once, then rebuilds whenever a project file changes, until ctx ends.
// Build failures are logged and watching continues; configuration errors in the
// first load end the watch.
func (a *App) Watch(ctx context.Context, targetNames []string, opts RunOptions) error {
	project, err := a.load(opts)
	if err != nil {
		return err
	}
	root := project.Root()

	var outputs atomic.Pointer[map[string]bool]
	outputs.Store(outputSet(project))

	a.rebuild(ctx, project, targetNames, opts)

	if err := a.watcher.Start(ctx, root); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()
	a.logger.Info("watching for changes, press Ctrl-C to stop")

	changes := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		// A pending rebuild rechecks everything, so a full channel loses nothing.
		select {
		case changes <- paths:
		default:
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for ev := range a.watcher.Events() {
			rel := relativePath(root, ev.Path)
			if (*outputs.Load())[rel] {
				continue
			}
			debouncer.Add(rel)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case paths := <-changes:
				a.logger.Info(fmt.Sprintf("change detected in %s", describeChanges(paths)))

				next, err := a.load(opts)
				if err != nil {
					a.logger.Error(err)
					continue
				}
				outputs.Store(outputSet(next))
				a.rebuild(gctx, next, targetNames, opts)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(domain.ErrInterrupted, context.Cause(ctx))
}

// rebuild runs one build and logs its error; the report already describes failures.
func (a *App) rebuild(ctx context.Context, project *domain.Project, targetNames []string, opts RunOptions) {
	_, err := a.build(ctx, project, targetNames, opts)
	if err == nil || ctx.Err() != nil {
		return
	}
	if errors.Is(err, domain.ErrBuildFailed) {
		return
	}
	a.logger.Error(err)
}

// outputSet holds the declared outputs, relative to the root. Their changes never trigger a rebuild.
func outputSet(p *domain.Project) *map[string]bool {
	set := make(map[string]bool, p.Context.Graph.Len())
	for t := range p.Context.Graph.Targets() {
		set[filepath.Clean(t.Output())] = true
	}
	return &set
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func describeChanges(paths []string) string {
	const shown = 3
	if len(paths) <= shown {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(paths[:shown], ", "), len(paths)-shown)
}
