package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"odootest/pkg/logging"
)

// DefaultWatchDebounce is how long Watch waits for further writes before reloading.
const DefaultWatchDebounce = 300 * time.Millisecond

// ChangeFunc receives the reloaded configuration and its validation result.
type ChangeFunc func(Config, ValidationErrors)

// Watch reloads the store whenever one of its settings files (or the
// workspace .env) is written, then calls onChange. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, onChange ChangeFunc) error {
	if debounce == 0 {
		debounce = DefaultWatchDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	files := map[string]bool{
		s.paths.UserFile():                               true,
		s.paths.ProjectFile():                            true,
		filepath.Join(s.paths.Workspace, dotEnvFileName): true,
	}
	dirs := map[string]bool{}
	for f := range files {
		dir := filepath.Dir(f)
		for !isDir(dir) && filepath.Dir(dir) != dir {
			dir = filepath.Dir(dir)
		}
		dirs[dir] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logging.Warn("ConfigWatcher", "Failed to watch %s: %v", dir, err)
			continue
		}
		logging.Debug("ConfigWatcher", "Watching directory: %s", dir)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		if err := s.Reload(); err != nil {
			logging.Error("ConfigWatcher", err, "Failed to reload configuration")
			return
		}
		if onChange != nil {
			onChange(s.Config(), s.Check())
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create && isDir(event.Name) && dirs[filepath.Dir(event.Name)] {
				_ = watcher.Add(event.Name)
				continue
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("ConfigWatcher", err, "Filesystem watcher error")
		}
	}
}
