// Package watch recompiles when the model or configuration files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelschema/internal/compiler/cache"
)

// DefaultDelay is the quiet period before a change is reported
const DefaultDelay = 100 * time.Millisecond

// FileWatcher reports content changes of a fixed set of files. Parent directories are
// watched so that editors replacing a file by rename are noticed.
type FileWatcher struct {
	watcher      *fsnotify.Watcher
	debouncer    *Debouncer
	files        map[string]bool
	fingerprints *cache.Fingerprints
	onChange     func([]string) error
	logger       *zap.Logger
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewFileWatcher creates a watcher for files. onChange receives the files whose content
// differs from the last report; touching a file without changing it is not reported.
func NewFileWatcher(files []string, delay time.Duration, logger *zap.Logger, onChange func([]string) error) (*FileWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:      watcher,
		debouncer:    NewDebouncer(delay),
		files:        make(map[string]bool, len(files)),
		fingerprints: cache.NewFingerprints(),
		onChange:     onChange,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		fw.files[abs] = true
	}
	fw.debouncer.SetCallback(fw.flush)
	return fw, nil
}

// Files returns the watched files, sorted
func (fw *FileWatcher) Files() []string {
	out := make([]string, 0, len(fw.files))
	for f := range fw.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Start records the current content of the files and begins watching
func (fw *FileWatcher) Start() error {
	files := fw.Files()
	fw.fingerprints.Changed(files...)

	dirs := make(map[string]bool)
	for _, f := range files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.logger.Debug("watching directory", zap.String("dir", dir))
	}

	fw.wg.Add(1)
	go fw.watch()
	return nil
}

// Run starts the watcher and blocks until ctx is done
func (fw *FileWatcher) Run(ctx context.Context) error {
	if err := fw.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return fw.Stop()
}

// Stop stops the file watcher; further calls do nothing
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.stopChan)
		fw.wg.Wait()
		fw.debouncer.Stop()
		err = fw.watcher.Close()
	})
	return err
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				fw.logger.Debug("file event", zap.String("file", event.Name), zap.String("op", event.Op.String()))
				fw.debouncer.Add(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// flush reports the files whose content changed
func (fw *FileWatcher) flush(candidates []string) {
	changed := fw.fingerprints.Changed(candidates...)
	if len(changed) == 0 {
		fw.logger.Debug("content unchanged", zap.Strings("files", candidates))
		return
	}
	fw.logger.Info("files changed", zap.Strings("files", changed))
	if err := fw.onChange(changed); err != nil {
		fw.logger.Error("handling file changes failed", zap.Error(err))
	}
}

// Debouncer collects file changes and triggers the callback after a quiet period
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add records a file and restarts the quiet period
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped {
		return
	}

	d.files[file] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with the accumulated files, sorted. The callback runs
// outside the lock so that it may take long without blocking Add.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 || d.stopped {
		d.mutex.Unlock()
		return
	}
	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	sort.Strings(files)
	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels a pending flush; later Adds are ignored
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
