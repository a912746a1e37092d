// Package watcher reports debounced file changes in a set of directories.
// It drives the inbox of the watch command and catalog hot-reload.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Event is a settled change of a single file.
type Event struct {
	Path      string
	Operation Operation
}

// Operation represents the type of file operation.
type Operation int

// File operation types.
const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Handler is called once per settled event. Handlers run one at a time in
// the order their events settled.
type Handler func(ctx context.Context, event Event) error

// Config holds watcher configuration.
type Config struct {
	Paths      []string      // Directories to watch
	Extensions []string      // File extensions to report, e.g. ".geojson"; empty reports all
	Debounce   time.Duration // Quiet period before an event is reported
}

// pendingEvent is a change that has not been quiet for the debounce period.
type pendingEvent struct {
	op    Operation
	timer *time.Timer
}

// Watcher watches directories for changes of files with given extensions.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	handler    Handler
	logger     *slog.Logger
	paths      []string
	extensions []string
	debounce   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	settled chan Event

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher. Nothing is watched before Start.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watcher: nil handler")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	extensions := make([]string, len(cfg.Extensions))
	for i, ext := range cfg.Extensions {
		extensions[i] = strings.ToLower(ext)
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		handler:    handler,
		logger:     logger,
		paths:      cfg.Paths,
		extensions: extensions,
		debounce:   debounce,
		pending:    make(map[string]*pendingEvent),
		settled:    make(chan Event, 64),
		done:       make(chan struct{}),
	}, nil
}

// Start adds the configured directories and begins reporting events until
// ctx is done or Stop is called. A directory that cannot be watched is
// logged and skipped; Start fails only when none can be watched.
func (w *Watcher) Start(ctx context.Context) error {
	watched := 0
	for _, path := range w.paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			w.logger.Warn("invalid watch path", "path", path, "error", err)
			continue
		}
		if err := w.fsWatcher.Add(absPath); err != nil {
			w.logger.Warn("failed to watch path", "path", absPath, "error", err)
			continue
		}
		watched++
		w.logger.Info("watching directory", "path", absPath)
	}
	if watched == 0 && len(w.paths) > 0 {
		return fmt.Errorf("none of %v can be watched", w.paths)
	}

	w.wg.Add(2)
	go w.eventLoop(ctx)
	go w.dispatchLoop(ctx)
	return nil
}

// Stop closes the fsnotify watcher, drops events still being debounced and
// waits for a running handler to return.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()

		w.mu.Lock()
		for path, p := range w.pending {
			p.timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()

		w.wg.Wait()
	})
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// dispatchLoop runs the handler for settled events.
func (w *Watcher) dispatchLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case e := <-w.settled:
			w.logger.Debug("processing file event", "path", e.Path, "operation", e.Operation.String())
			if err := w.handler(ctx, e); err != nil {
				w.logger.Error("handler error",
					"path", e.Path,
					"operation", e.Operation.String(),
					"error", err,
				)
			}
		}
	}
}

// handleFsEvent starts or restarts the debounce timer of the event's file.
func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	if !w.matches(event.Name) {
		return
	}
	op := fsnotifyOpToOperation(event.Op)
	w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[event.Name]; ok {
		p.op = mergeOperations(p.op, op)
		p.timer.Reset(w.debounce)
		return
	}

	path := event.Name
	w.pending[path] = &pendingEvent{
		op:    op,
		timer: time.AfterFunc(w.debounce, func() { w.settle(path) }),
	}
}

// settle hands a quiet file to the dispatcher.
func (w *Watcher) settle(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	select {
	case w.settled <- Event{Path: path, Operation: p.op}:
	case <-w.done:
	}
}

// mergeOperations folds a new change of a file into its pending one. A
// file that was deleted and recreated counts as created; a delete wins
// over everything before it.
func mergeOperations(pending, next Operation) Operation {
	switch {
	case pending == OpDelete && next == OpCreate:
		return OpCreate
	case next == OpDelete:
		return OpDelete
	default:
		return pending
	}
}

// fsnotifyOpToOperation converts fsnotify.Op to our Operation type. A
// rename is reported as a delete of the old name; the new name arrives as
// its own create.
func fsnotifyOpToOperation(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpDelete
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}

// matches reports whether path is a visible file with one of the watched
// extensions. Dot files are skipped so that writers can stage partial
// files next to the final name.
func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	if path == "" || strings.HasPrefix(base, ".") {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range w.extensions {
		if e == ext {
			return true
		}
	}
	return false
}
