package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor produces on save
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called once per settled burst of changes
type ChangeFunc func(ctx context.Context) error

// FileWatcher reloads the catalog when the local catalog file changes.
// It watches the parent directory so atomic rename-on-save is picked up.
type FileWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange ChangeFunc
	logger   *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New creates a watcher for path. It does not start watching.
func New(path string, debounce time.Duration, onChange ChangeFunc, logger *zap.Logger) (*FileWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if onChange == nil {
		return nil, fmt.Errorf("change func is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logger.Named("watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return nil
	}

	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	fw.running = true

	go fw.run(ctx)

	fw.logger.Info("watching catalog file", zap.String("path", fw.path))
	return nil
}

// Stop ends the event loop and releases the underlying watcher
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	wasRunning := fw.running
	fw.running = false
	fw.mu.Unlock()

	if wasRunning {
		close(fw.stopCh)
		<-fw.doneCh
	}
	return fw.watcher.Close()
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	timer := time.NewTimer(fw.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("catalog file event", zap.String("op", event.Op.String()))
			timer.Reset(fw.debounce)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			if err := fw.onChange(ctx); err != nil {
				fw.logger.Warn("reload after file change failed", zap.Error(err))
				continue
			}
			fw.logger.Info("catalog reloaded after file change")
		}
	}
}

// relevant keeps content changes to the watched file; chmod and removals are ignored
func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fw.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
