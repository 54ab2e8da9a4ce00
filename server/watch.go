package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/graphql-go/graphql"
)

// BuildFunc builds a schema from the current catalog.
type BuildFunc func() (graphql.Schema, error)

// Watch rebuilds the schema of h whenever the file at path is written or
// replaced, until ctx is done. A failed build keeps the served schema.
func Watch(ctx context.Context, path string, h *Handler, build BuildFunc, logger *slog.Logger) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// Editors save atomically by renaming over the file; watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	logger.Info("watching catalog", "path", path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s, err := build()
			if err != nil {
				logger.Error("catalog reload failed, keeping the current schema", "path", path, "error", err)
				continue
			}
			h.SetSchema(s)
			logger.Info("catalog reloaded", "path", path, "types", len(s.TypeMap()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher", "error", err)
		}
	}
}
