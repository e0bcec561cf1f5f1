package retrieval

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/ragchat/pkg/vector"
)

// Watch reloads the index whenever the snapshot at path is written or
// replaced, until ctx is done. The parent directory is watched because Save
// replaces the file by rename. A snapshot that fails to load is logged and
// the previous index stays in service.
func (r *Retriever) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating index watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching index dir: %w", err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			r.reload(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("index watcher error", "error", err)
		}
	}
}

func (r *Retriever) reload(path string) {
	ix, err := vector.Load(path)
	if err != nil {
		if !vector.IsNotExist(err) {
			r.logger.Warn("keeping previous index, snapshot failed to load", "path", path, "error", err)
		}
		return
	}

	r.SetIndex(ix)
	r.logger.Info("reloaded index", "path", path, "chunks", ix.Len(), "dimensions", ix.Dimensions())
}
