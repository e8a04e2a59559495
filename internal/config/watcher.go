package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Extra-Chill/astra-web/internal/page"
)

// LayoutSource hands out the current page layout.
// Readers take one snapshot per request; reloads swap it atomically.
type LayoutSource struct {
	current atomic.Pointer[page.Layout]
}

// NewLayoutSource creates a source serving l.
func NewLayoutSource(l *page.Layout) *LayoutSource {
	s := &LayoutSource{}
	s.Store(l)
	return s
}

// Layout returns the current layout.
func (s *LayoutSource) Layout() *page.Layout {
	return s.current.Load()
}

// Store replaces the current layout.
func (s *LayoutSource) Store(l *page.Layout) {
	if l == nil {
		l = page.Default()
	}
	s.current.Store(l)
}

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the page layout when the config file changes.
type Watcher struct {
	path     string
	source   *LayoutSource
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reloads  atomic.Int64
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, source *LayoutSource, debounce time.Duration) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		path:     absPath,
		source:   source,
		watcher:  fw,
		debounce: debounce,
	}, nil
}

// Start watches the config file's directory until ctx is done or Close is called.
// Editors often replace files rather than write them in place, so the
// directory is watched instead of the file.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}

	log.Printf("Watching %s for layout changes", w.path)
	go w.run(ctx)
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Reload reads the config file and swaps in its layout.
// On error the previous layout stays in place.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		return err
	}
	w.source.Store(cfg.Layout())
	w.reloads.Add(1)
	log.Printf("Reloaded page layout from %s", w.path)
	return nil
}

// Reloads returns the number of successful reloads.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

func (w *Watcher) run(ctx context.Context) {
	name := filepath.Base(w.path)
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config watcher error: %v", err)

		case <-fire:
			fire = nil
			if err := w.Reload(); err != nil {
				log.Printf("Warning: keeping previous layout: %v", err)
			}
		}
	}
}
