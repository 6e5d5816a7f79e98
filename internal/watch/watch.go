// Package watch reruns a build when declaration files change.
package watch

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"bridgegen/internal/errors"
	"bridgegen/internal/logger"
)

const defaultDebounce = 200 * time.Millisecond

// Func handles one batch of changed files. The paths are absolute and
// sorted.
type Func func(ctx context.Context, changed []string)

// Watcher observes a fixed set of files. It watches their directories so
// editors that save through a rename are still seen.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	log      *zap.SugaredLogger
}

// New watches files. A zero debounce selects a default.
func New(files []string, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to watch")
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	if log == nil {
		log = logger.Named("watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating file watcher")
	}

	w := &Watcher{fsw: fsw, files: make(map[string]struct{}, len(files)), debounce: debounce, log: log}
	dirs := make(map[string]struct{})

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "resolving %s", f)
		}

		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}

		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "watching %s", dir)
		}

		dirs[dir] = struct{}{}
	}

	return w, nil
}

// Run calls fn after every quiet period following a change, until ctx is
// done. The watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, fn Func) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	defer timer.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if !w.relevant(ev) {
				continue
			}

			w.log.Debugw("declaration file changed", "file", ev.Name, "op", ev.Op.String())
			pending[filepath.Clean(ev.Name)] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			w.log.Warnw("file watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}

			slices.Sort(changed)
			clear(pending)

			w.log.Infow("rebuilding", "files", changed)
			fn(ctx, changed)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}

	_, ok := w.files[filepath.Clean(ev.Name)]

	return ok
}
