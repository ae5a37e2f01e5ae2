package devreload

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"time"
)

// DefaultIgnore lists glob patterns the watcher skips, matched against base names.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	"*.tmp",
	"*.swp",
	"*~",
}

// maxHeldPolls bounds how long a stream of writes can hold back a batch.
const maxHeldPolls = 8

type WatcherConfig struct {
	Paths    []string
	Ignore   []string
	Interval time.Duration
}

// Watcher polls file modification times and reports changed paths in batches.
type Watcher struct {
	config     WatcherConfig
	timestamps map[string]time.Time
}

func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval <= 0 {
		config.Interval = 250 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}

	watcher := &Watcher{config: config}
	watcher.timestamps = watcher.scan()
	return watcher
}

// Run calls onChange with batches of changed files until ctx is done. A batch
// is reported once a poll finds nothing new, so the writes of one editor save
// arrive together.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	var pending batch
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if changed := pending.next(w.Poll()); len(changed) > 0 {
				onChange(changed)
			}
		}
	}
}

// batch collects changed paths across polls.
type batch struct {
	paths map[string]struct{}
	held  int
}

// next adds one poll's changes and returns the sorted batch when it is due:
// after a quiet poll, or after maxHeldPolls polls of continuous changes.
func (b *batch) next(changed []string) []string {
	for _, path := range changed {
		if b.paths == nil {
			b.paths = make(map[string]struct{})
		}
		b.paths[path] = struct{}{}
	}
	if len(b.paths) == 0 {
		return nil
	}

	b.held++
	if len(changed) > 0 && b.held < maxHeldPolls {
		return nil
	}

	out := make([]string, 0, len(b.paths))
	for path := range b.paths {
		out = append(out, path)
	}
	sort.Strings(out)

	b.paths = nil
	b.held = 0
	return out
}

// Poll rescans the watched paths and returns files created, modified or removed since the last scan.
func (w *Watcher) Poll() []string {
	current := w.scan()

	var changed []string
	for path, modTime := range current {
		previous, ok := w.timestamps[path]
		if !ok || !modTime.Equal(previous) {
			changed = append(changed, path)
		}
	}
	for path := range w.timestamps {
		if _, ok := current[path]; !ok {
			changed = append(changed, path)
		}
	}

	w.timestamps = current
	return changed
}

func (w *Watcher) scan() map[string]time.Time {
	timestamps := make(map[string]time.Time)
	for _, root := range w.config.Paths {
		_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if w.shouldIgnore(path) {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				return nil
			}

			info, err := entry.Info()
			if err != nil {
				return nil
			}
			timestamps[path] = info.ModTime()
			return nil
		})
	}
	return timestamps
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.config.Ignore {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

