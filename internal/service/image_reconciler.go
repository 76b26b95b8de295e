package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/repository"
)

// ImageReconciler deletes files under the upload directory that no game row
// references and that are older than the grace period. Failures on single
// files are logged and skipped.
type ImageReconciler struct {
	games  repository.GameRepository
	dir    string
	grace  time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewImageReconciler(games repository.GameRepository, dir string, grace time.Duration, logger *slog.Logger) *ImageReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageReconciler{games: games, dir: dir, grace: grace, logger: logger, now: time.Now}
}

// Reconcile returns the paths it removed, relative to the upload directory.
func (r *ImageReconciler) Reconcile(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(r.dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	refs, err := r.games.ReferencedImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load referenced images: %w", err)
	}
	cutoff := r.now().Add(-r.grace)
	var removed []string
	err = filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			r.logger.WarnContext(ctx, "image reconcile walk", "path", path, "error", walkErr)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(r.dir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if r.referenced(refs, rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			r.logger.WarnContext(ctx, "image reconcile stat", "path", rel, "error", err)
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			r.logger.WarnContext(ctx, "image reconcile remove", "path", rel, "error", err)
			return nil
		}
		removed = append(removed, rel)
		return nil
	})
	observability.RecordImagesRemoved(ctx, len(removed))
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		r.logger.InfoContext(ctx, "orphaned images removed", "count", len(removed))
	}
	return removed, nil
}

// referenced accepts rows storing the path either relative to the upload
// directory or prefixed with it.
func (r *ImageReconciler) referenced(refs map[string]struct{}, rel string) bool {
	if _, ok := refs[rel]; ok {
		return true
	}
	_, ok := refs[filepath.ToSlash(filepath.Join(r.dir, rel))]
	return ok
}
