// Package watcher observes the filesystem for concurrent external edits
// during a run.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	relinterr "relint/internal/errors"
	"relint/internal/logging"
)

// EventType represents the type of file system event
type EventType int

const (
	// EventModify is an in-place content change.
	EventModify EventType = iota
	// EventDelete covers removal and rename-away.
	EventDelete
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event is one observed change to a watched file.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// Handler is called for each event on the watcher's own goroutine,
// concurrently with whatever the main flow is doing. Handlers must do their
// own synchronization for any state they share with the main flow.
type Handler func(Event)

// Config contains watcher configuration
type Config struct {
	// Root is the directory watched recursively. Empty disables the watcher.
	Root string
	// Extension filters events to files with this extension (default ".cpp").
	Extension string
	// BufferSize is the event channel capacity.
	BufferSize int
}

// Watcher watches a directory tree and reports modify/delete events for
// matching files. It only reports — deciding whether to abort or merge is the
// caller's business.
type Watcher struct {
	config  Config
	logger  *logging.Logger
	handler Handler

	fw     *fsnotify.Watcher
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a watcher. handler may be nil; events are then only available
// through Events().
func New(config Config, logger *logging.Logger, handler Handler) *Watcher {
	if config.Extension == "" {
		config.Extension = ".cpp"
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 64
	}
	return &Watcher{
		config:  config,
		logger:  logger.WithComponent("watcher"),
		handler: handler,
		events:  make(chan Event, config.BufferSize),
		done:    make(chan struct{}),
	}
}

// Events returns the channel the main flow can consume instead of (or in
// addition to) a handler. The channel closes when the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching. Starting with no root directory is a no-op.
func (w *Watcher) Start() error {
	if w.config.Root == "" {
		w.logger.Debug("No watch root configured, watcher disabled", nil)
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return relinterr.Wrap(relinterr.WatcherFailed, "create watcher", err)
	}
	w.fw = fw

	if err := w.addRecursive(w.config.Root); err != nil {
		_ = fw.Close()
		w.fw = nil
		return err
	}

	w.wg.Add(1)
	go w.loop()

	if w.handler != nil {
		w.wg.Add(1)
		go w.deliver()
	}

	w.logger.Info("Watching for external edits", map[string]interface{}{
		"root":      w.config.Root,
		"extension": w.config.Extension,
	})
	return nil
}

// Stop stops watching and closes the event channel. Safe to call after a
// no-op Start.
func (w *Watcher) Stop() {
	if w.fw == nil {
		return
	}
	close(w.done)
	_ = w.fw.Close()
	w.wg.Wait()
	w.fw = nil
}

// addRecursive registers the root and every subdirectory with fsnotify.
func (w *Watcher) addRecursive(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return relinterr.Wrap(relinterr.WatcherFailed, "watch "+root, err)
	}
	return nil
}

// loop translates raw fsnotify events into filtered engine events.
func (w *Watcher) loop() {
	defer w.wg.Done()
	defer close(w.events)

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleRaw(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", map[string]interface{}{
				"error": err.Error(),
			})
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleRaw(ev fsnotify.Event) {
	// New directories must be added so the watch stays recursive.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.fw.Add(ev.Name)
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(ev.Name), w.config.Extension) {
		return
	}

	var typ EventType
	switch {
	case ev.Op.Has(fsnotify.Write):
		typ = EventModify
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		typ = EventDelete
	default:
		// Chmod and bare creates carry no content change.
		return
	}

	event := Event{Type: typ, Path: ev.Name, Timestamp: time.Now()}
	select {
	case w.events <- event:
	default:
		w.logger.Warn("Event buffer full, dropping event", map[string]interface{}{
			"path": event.Path,
		})
	}
}

// deliver feeds the registered handler from the event channel.
func (w *Watcher) deliver() {
	defer w.wg.Done()
	for ev := range w.events {
		w.handler(ev)
	}
}
