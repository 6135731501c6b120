// Package watch turns file-system change notifications into sync triggers.
package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/okian/aimsync/internal/adapters/mq/trigger"
	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/pkg/logger"
)

// Enqueuer accepts sync triggers.
type Enqueuer interface {
	Enqueue(ctx context.Context, t trigger.Trigger) bool
}

// Filter reports whether a changed path should trigger a sync.
type Filter func(path string) bool

// BaseName matches files with the given base name only.
func BaseName(name string) Filter {
	return func(path string) bool {
		return filepath.Base(path) == name
	}
}

// Watcher watches a single directory, non-recursively.
type Watcher struct {
	dir    string
	queue  Enqueuer
	filter Filter
	logger logger.Logger
}

// New creates a watcher for dir. Without a filter every regular file counts.
func New(dir string, queue Enqueuer, opts ...Option) *Watcher {
	w := &Watcher{
		dir:    dir,
		queue:  queue,
		filter: func(string) bool { return true },
		logger: logger.Get().Named("watch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. It fails with ErrSourceUnavailable when the
// directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	const op = "watch.run"
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return model.WrapKind(op, model.ErrSourceUnavailable, err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return model.WrapKind(op, model.ErrSourceUnavailable, err)
	}
	w.logger.Info(ctx, "watching directory", logger.String("dir", w.dir))

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
			w.logger.Debug(ctx, "change detected", logger.String("path", ev.Name), logger.String("op", ev.Op.String()))
			if !w.queue.Enqueue(ctx, trigger.Trigger{Reason: "watch"}) {
				return nil
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "watcher error", logger.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
		return false
	}
	return w.filter(ev.Name)
}
