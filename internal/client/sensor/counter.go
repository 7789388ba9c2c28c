// Package sensor provides the local hardware step counter.
//
// The counter is exposed by the platform as a file holding the cumulative
// step count since boot, as a decimal number. The file is watched with
// fsnotify and every change produces a RawSensorReading.
package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iudanet/healthsync/internal/models"
)

// ErrSensorUnavailable indicates that the device has no step counter
var ErrSensorUnavailable = errors.New("step counter sensor unavailable")

// Handler receives sensor readings. It is called from the watcher goroutine
// and must not block for long.
type Handler func(reading models.RawSensorReading)

// FileCounter is a step counter backed by a counter file
type FileCounter struct {
	handler Handler
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
	now     func() time.Time
	path    string
	mu      sync.Mutex
}

// NewFileCounter creates a counter for path. Readings go to handler.
func NewFileCounter(path string, handler Handler, logger *slog.Logger) *FileCounter {
	return &FileCounter{
		path:    path,
		handler: handler,
		logger:  logger,
		now:     time.Now,
	}
}

// Available reports whether the counter file exists
func (c *FileCounter) Available() bool {
	if c.path == "" {
		return false
	}
	info, err := os.Stat(c.path)
	return err == nil && !info.IsDir()
}

// Start registers with the counter. The current value is emitted
// asynchronously right after registration.
// Calling Start on a running counter is a no-op.
func (c *FileCounter) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		return nil
	}
	if !c.Available() {
		return fmt.Errorf("%w: %s", ErrSensorUnavailable, c.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Следим за каталогом: платформа может пересоздавать файл счётчика
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	c.watcher = watcher
	c.done = make(chan struct{})
	go c.watchLoop(watcher, c.done)

	c.logger.Debug("Step counter registered", "path", c.path)

	return nil
}

// Stop unregisters from the counter. Safe to call when not running.
func (c *FileCounter) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil {
		return nil
	}

	close(c.done)
	err := c.watcher.Close()
	c.watcher = nil
	c.done = nil

	c.logger.Debug("Step counter stopped", "path", c.path)

	return err
}

// Running reports whether the counter is registered
func (c *FileCounter) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watcher != nil
}

func (c *FileCounter) watchLoop(watcher *fsnotify.Watcher, done <-chan struct{}) {
	// Первое показание сразу после регистрации
	c.emit()

	for {
		select {
		case <-done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(c.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c.emit()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("Step counter watcher error", "error", err)
		}
	}
}

func (c *FileCounter) emit() {
	count, err := ReadCount(c.path)
	if err != nil {
		// Файл может быть пуст в момент перезаписи - просто пропускаем событие
		c.logger.Debug("Skipping unreadable counter value", "error", err)
		return
	}

	c.handler(models.RawSensorReading{
		CumulativeCount: count,
		Timestamp:       c.now(),
	})
}

// ReadCount reads a cumulative counter value from path
func ReadCount(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}

	value := strings.TrimSpace(string(data))
	// Некоторые сенсоры отдают float ("1234.0")
	if i := strings.IndexByte(value, '.'); i >= 0 {
		value = value[:i]
	}

	count, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse counter %q: %w", value, err)
	}

	return count, nil
}
