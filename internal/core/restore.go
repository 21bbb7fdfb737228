package core

import (
	"context"
	"errors"
	"os"

	"github.com/fedragon/go-vscrub/internal/fs"
	"github.com/fedragon/go-vscrub/internal/models"

	"go.uber.org/zap"
)

// Restorer puts the backup of a store back in place of the store itself.
type Restorer struct {
	Logger *zap.Logger
}

func (r *Restorer) Restore(_ context.Context, location models.StoreLocation) models.SanitizeResult {
	log := r.Logger.With(zap.String("app", location.App), zap.String("path", location.Path))
	backup := location.BackupPath()
	result := models.SanitizeResult{Location: location, BackupPath: backup}

	if _, err := os.Stat(backup); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("No backup to restore", zap.String("backup", backup))
			result.Outcome = models.NotFound
			return result
		}
		return r.fail(log, result, err)
	}

	if err := fs.CheckSQLite(backup); err != nil {
		return r.fail(log, result, err)
	}

	if err := checkWAL(location.Path); err != nil {
		return r.fail(log, result, err)
	}

	log.Info("Restoring store", zap.String("backup", backup))
	if err := fs.Copy(backup, location.Path); err != nil {
		return r.fail(log, result, err)
	}

	result.Outcome = models.Restored
	return result
}

func (r *Restorer) fail(log *zap.Logger, result models.SanitizeResult, err error) models.SanitizeResult {
	log.Error("Cannot restore store", zap.Error(err))
	result.Outcome = models.RestoreFailed
	result.Err = err
	return result
}
