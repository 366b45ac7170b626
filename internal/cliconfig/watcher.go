package cliconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/fleetspeak/pkg/log"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads the config file when it changes and hands the result to
// a callback. Values from explicitly set flags are kept; environment
// variables still override the file.
type Watcher struct {
	path    string
	base    Config
	changed map[string]bool
	apply   func(Config)
	logger  log.Logger

	delay time.Duration
	ready chan struct{}

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher creates a watcher for path. base is the configuration the
// reloaded file is layered on.
func NewWatcher(path string, base Config, changed map[string]bool, apply func(Config), logger log.Logger) *Watcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		path:    path,
		base:    base,
		changed: changed,
		apply:   apply,
		logger:  logger,
		delay:   defaultDebounce,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the watch is registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches the directory of the config file until ctx is done.
// Editors often replace files instead of writing them, so the directory is
// watched rather than the file.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	close(w.ready)
	defer w.stopDebounce()

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.delay, w.reload)
}

func (w *Watcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

func (w *Watcher) reload() {
	cfg, err := w.load()
	if err != nil {
		w.logger.Warn("config reload failed, keeping current settings",
			log.String("path", w.path),
			log.Err(err),
		)
		return
	}
	w.logger.Info("config reloaded", log.String("path", w.path))
	w.apply(cfg)
}

func (w *Watcher) load() (Config, error) {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		return Config{}, err
	}
	cfg := w.base
	if err := ApplyFileConfig(&cfg, fc, w.changed); err != nil {
		return Config{}, err
	}
	if err := ApplyEnvConfig(&cfg, w.changed); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
