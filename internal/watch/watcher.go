package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long a batch stays open after the last change.
const DefaultDelay = 100 * time.Millisecond

// Options configures a FileWatcher.
type Options struct {
	Dirs []string
	// Match selects the paths worth reporting. Nil accepts every path.
	Match func(path string) bool
	// Delay defaults to DefaultDelay.
	Delay  time.Duration
	Logger *zap.Logger
}

// FileWatcher reports batches of changed files under a set of directories.
type FileWatcher struct {
	opts     Options
	onChange func([]string) error
}

// NewFileWatcher creates a watcher that passes every batch to onChange.
func NewFileWatcher(opts Options, onChange func([]string) error) *FileWatcher {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Match == nil {
		opts.Match = func(string) bool { return true }
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	return &FileWatcher{opts: opts, onChange: onChange}
}

// Run watches until ctx is done. Failing to watch any directory is returned
// before anything is reported.
func (fw *FileWatcher) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	for _, dir := range fw.opts.Dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.opts.Logger.Info("watching directory", zap.String("dir", dir))
	}

	batches := NewBatcher(fw.opts.Delay, func(files []string) {
		if err := fw.onChange(files); err != nil {
			fw.opts.Logger.Error("handling file changes", zap.Strings("files", files), zap.Error(err))
		}
	})
	defer batches.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if fw.relevant(event) {
				fw.opts.Logger.Debug("file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
				batches.Add(event.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fw.opts.Logger.Warn("watch error", zap.Error(err))
		}
	}
}

// relevant drops chmod-only events, hidden files, editor backups and paths
// rejected by Match. A rename shows up as Create on the new name.
func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return !isScratchFile(event.Name) && fw.opts.Match(event.Name)
}

func isScratchFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
