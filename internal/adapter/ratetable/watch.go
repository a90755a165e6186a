package ratetable

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Table whenever its rate file changes.
// An invalid file is logged and the previous entries stay in effect.
type Watcher struct {
	logger  *slog.Logger
	table   *Table
	path    string
	watcher *fsnotify.Watcher

	onReload func(int)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// OnReload calls fn with the entry count after each successful reload.
func OnReload(fn func(entries int)) WatchOption {
	return func(w *Watcher) { w.onReload = fn }
}

// Watch loads path into table and starts watching it.
// The parent directory is watched so editors that replace the file are handled.
func Watch(ctx context.Context, logger *slog.Logger, table *Table, path string, opts ...WatchOption) (*Watcher, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	table.Replace(entries)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create rate file watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		logger:  logger.With(slog.String("adapter", "ratetable"), slog.String("path", abs)),
		table:   table,
		path:    abs,
		watcher: fw,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.wg.Add(1)
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rate file watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) reload() {
	entries, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("rate file reload rejected", slog.Any("error", err))
		return
	}
	w.table.Replace(entries)
	w.logger.Info("rate table reloaded", slog.Int("entries", len(entries)))
	if w.onReload != nil {
		w.onReload(len(entries))
	}
}

// Close stops watching and waits for the watcher goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
