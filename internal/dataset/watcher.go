package dataset

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the holder when a local input file changes.
type Watcher struct {
	loader   SnapshotLoader
	holder   *Holder
	files    map[string]struct{}
	debounce time.Duration
}

// NewWatcher watches files (local paths) and reloads through loader.
func NewWatcher(loader SnapshotLoader, holder *Holder, files []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			set[abs] = struct{}{}
		}
	}
	return &Watcher{loader: loader, holder: holder, files: set, debounce: debounce}
}

// Run blocks until ctx is done. Directories are watched rather than files so
// that editors replacing a file atomically still trigger a reload.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.files) == 0 {
		<-ctx.Done()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "dataset: create watcher")
	}
	defer fw.Close() //nolint:errcheck

	dirs := map[string]struct{}{}
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return eris.Wrapf(err, "dataset: watch %s", d)
		}
	}

	log := zap.L().With(zap.String("component", "dataset.watcher"))
	log.Info("watching input files", zap.Int("files", len(w.files)))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			log.Debug("input changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if s, err := w.holder.Reload(ctx, w.loader); err == nil {
				log.Info("reloaded after file change", zap.String("version", s.Version.String()))
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
