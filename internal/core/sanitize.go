package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fedragon/go-vscrub/internal/fs"
	"github.com/fedragon/go-vscrub/internal/models"
	"github.com/fedragon/go-vscrub/internal/store"

	"go.uber.org/zap"
)

// KeyPattern selects the rows to delete: every key containing it, matched
// case-sensitively.
const KeyPattern = "augment"

const DefaultLockTimeout = 2 * time.Second

// ErrPendingWAL means committed rows may still live in the store's write-ahead
// log, so a copy of the store file alone would miss them.
var ErrPendingWAL = errors.New("store has a pending write-ahead log, close the editor first")

func checkWAL(path string) error {
	info, err := os.Stat(path + "-wal")
	if err == nil && info.Size() > 0 {
		return fmt.Errorf("%w: %v", ErrPendingWAL, path)
	}
	return nil
}

type Sanitizer interface {
	Sanitize(ctx context.Context, location models.StoreLocation) models.SanitizeResult
}

// StoreSanitizer backs up a store and then removes the rows matching
// KeyPattern from it. Every failure ends up in the returned result.
type StoreSanitizer struct {
	Logger      *zap.Logger
	DryRun      bool
	LockTimeout time.Duration
}

func (ss *StoreSanitizer) Sanitize(ctx context.Context, location models.StoreLocation) models.SanitizeResult {
	log := ss.Logger.With(zap.String("app", location.App), zap.String("path", location.Path))
	result := models.SanitizeResult{Location: location, DryRun: ss.DryRun}

	if _, err := os.Stat(location.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("Store not found")
			result.Outcome = models.NotFound
			return result
		}
		return ss.fail(log, result, models.BackupFailed, err)
	}

	if ss.DryRun {
		return ss.preview(ctx, log, result)
	}

	if err := checkWAL(location.Path); err != nil {
		return ss.fail(log, result, models.BackupFailed, err)
	}

	backup := location.BackupPath()
	log.Info("Backing up store", zap.String("backup", backup))
	if err := fs.Copy(location.Path, backup); err != nil {
		return ss.fail(log, result, models.BackupFailed, err)
	}
	result.BackupPath = backup

	if err := fs.CheckSQLite(location.Path); err != nil {
		return ss.fail(log, result, models.DeleteFailed, err)
	}

	s, err := store.Open(ctx, location.Path, ss.lockTimeout())
	if err != nil {
		return ss.fail(log, result, models.DeleteFailed, err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("Cannot close store", zap.Error(err))
		}
	}()

	log.Info("Deleting matching rows", zap.String("pattern", KeyPattern))
	matched, deleted, err := s.DeleteMatching(ctx, KeyPattern)
	if err != nil {
		return ss.fail(log, result, models.DeleteFailed, err)
	}

	result.Outcome = models.Succeeded
	result.Matched = matched
	result.Deleted = deleted
	log.Info("Store sanitized", zap.Int64("deleted", deleted))

	return result
}

func (ss *StoreSanitizer) preview(ctx context.Context, log *zap.Logger, result models.SanitizeResult) models.SanitizeResult {
	if err := fs.CheckSQLite(result.Location.Path); err != nil {
		return ss.fail(log, result, models.DeleteFailed, err)
	}

	s, err := store.Open(ctx, result.Location.Path, ss.lockTimeout())
	if err != nil {
		return ss.fail(log, result, models.DeleteFailed, err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("Cannot close store", zap.Error(err))
		}
	}()

	_, matching, err := s.Stats(ctx, KeyPattern)
	if err != nil {
		return ss.fail(log, result, models.DeleteFailed, err)
	}

	result.Outcome = models.Succeeded
	result.Matched = matching
	log.Info("Would have deleted matching rows", zap.Int64("matching", matching))

	return result
}

func (ss *StoreSanitizer) fail(log *zap.Logger, result models.SanitizeResult, outcome models.Outcome, err error) models.SanitizeResult {
	log.Error("Cannot sanitize store", zap.String("outcome", string(outcome)), zap.Error(err))
	result.Outcome = outcome
	result.Err = err
	return result
}

func (ss *StoreSanitizer) lockTimeout() time.Duration {
	if ss.LockTimeout <= 0 {
		return DefaultLockTimeout
	}
	return ss.LockTimeout
}
