// Package watcher reports changes to project files so bake watch can rebuild.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skipDirectories are never watched. .bake holds the store and generated sources.
var skipDirectories = map[string]bool{
	domain.BakeDirName: true,
	".git":             true,
	".jj":              true,
}

const eventChannelBuffer = 100

// Watcher watches a project tree recursively with fsnotify.
type Watcher struct {
	logger    ports.Logger
	fsWatcher *fsnotify.Watcher
	events    chan ports.WatchEvent
	closeOnce sync.Once
}

// NewWatcher creates a Watcher. Errors from the OS are reported to logger.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	return &Watcher{
		logger:    logger,
		fsWatcher: fw,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
	}, nil
}

// Start adds every directory below root and begins forwarding events until ctx ends.
func (w *Watcher) Start(ctx context.Context, root string) error {
	for dir := range watchRecursively(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop releases the OS watches. The event stream ends once processing notices.
func (w *Watcher) Stop() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fsWatcher.Close()
	})
	return err
}

// Events iterates over events until the watcher stops.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

func watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Unreadable directories are not watched.
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ignored reports whether path lies inside a skipped directory.
func ignored(path string) bool {
	for part := range strings.SplitSeq(filepath.ToSlash(path), "/") {
		if skipDirectories[part] {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if ignored(event.Name) {
				continue
			}
			op, ok := convertOp(event.Op)
			if !ok {
				continue
			}

			select {
			case w.events <- ports.WatchEvent{Path: event.Name, Operation: op}:
			case <-ctx.Done():
				return
			}

			if op == ports.OpCreate {
				w.addIfDir(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher: " + err.Error())
		}
	}
}

// addIfDir starts watching a newly created directory and everything below it.
func (w *Watcher) addIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	for dir := range watchRecursively(path) {
		_ = w.fsWatcher.Add(dir)
	}
}

func convertOp(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Remove):
		return ports.OpRemove, true
	case op.Has(fsnotify.Rename):
		return ports.OpRename, true
	default:
		return 0, false
	}
}
