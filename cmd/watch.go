package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/logging"
	"github.com/conneroisu/stitch/internal/scheduler"
	"github.com/conneroisu/stitch/internal/watcher"
)

// runWatch builds once, then rebuilds on every settled burst of changes
// under the parts directory until SIGINT or SIGTERM. Build failures are
// logged and do not end the session.
func runWatch(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := newPipeline(cfg, logger)
	sched := scheduler.New(func(ctx context.Context) error {
		_, err := pipeline.Run(ctx)
		return err
	}, cfg.Debounce, logger)

	fileWatcher, err := newFragmentWatcher(cfg, logger, sched.Notify)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Watching for changes... (Press Ctrl+C to stop)",
		"parts_dir", cfg.PartsDir,
		"debounce", cfg.Debounce.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		return fileWatcher.Run(gctx)
	})

	err = g.Wait()

	metrics := pipeline.Metrics().GetSnapshot()
	logger.Info(context.Background(), "Stopped watching",
		"builds", metrics.TotalBuilds,
		"failed", metrics.FailedBuilds,
	)

	return err
}

// newFragmentWatcher watches the parts directory, plus the manifest's
// directory when it lives elsewhere, and calls notify for every relevant
// change. The build output is never a trigger.
func newFragmentWatcher(cfg *config.Config, logger logging.Logger, notify func()) (*watcher.FileWatcher, error) {
	fileWatcher, err := watcher.NewFileWatcher(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fileWatcher.AddFilter(watcher.FragmentFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoEditorTempFilter)
	fileWatcher.AddFilter(watcher.ExcludeFilter(cfg.Output))

	fileWatcher.AddHandler(func(event watcher.ChangeEvent) error {
		logger.Info(context.Background(), "File changed",
			"type", event.Type.String(),
			"path", event.Path,
		)
		notify()
		return nil
	})

	if err := fileWatcher.AddRecursive(cfg.PartsDir); err != nil {
		_ = fileWatcher.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.PartsDir, err)
	}

	manifestDir := filepath.Dir(cfg.ManifestPath())
	if !within(cfg.PartsDir, manifestDir) {
		if err := fileWatcher.AddPath(manifestDir); err != nil {
			_ = fileWatcher.Stop()
			return nil, fmt.Errorf("failed to watch %s: %w", manifestDir, err)
		}
	}

	return fileWatcher, nil
}

// within reports whether path is root or below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
