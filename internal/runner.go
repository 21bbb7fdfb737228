package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fedragon/go-vscrub/internal/core"
	dedb "github.com/fedragon/go-vscrub/internal/db"
	"github.com/fedragon/go-vscrub/internal/fs"
	"github.com/fedragon/go-vscrub/internal/models"
	"github.com/fedragon/go-vscrub/internal/store"

	"go.uber.org/zap"
)

var ErrJournalDisabled = errors.New("journal is disabled")

type Options struct {
	// Apps restricts processing to the named editors; empty means all.
	Apps []string
	// JournalPath is where outcomes are recorded; empty disables the journal.
	JournalPath string
	DryRun      bool
	LockTimeout time.Duration
}

type Runner struct {
	logger    *zap.Logger
	platform  fs.Platform
	opts      Options
	sanitizer core.Sanitizer
	restorer  *core.Restorer
}

func NewRunner(logger *zap.Logger, platform fs.Platform, opts Options) *Runner {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = core.DefaultLockTimeout
	}

	return &Runner{
		logger:   logger,
		platform: platform,
		opts:     opts,
		sanitizer: &core.StoreSanitizer{
			Logger:      logger,
			DryRun:      opts.DryRun,
			LockTimeout: opts.LockTimeout,
		},
		restorer: &core.Restorer{Logger: logger},
	}
}

// Clean sanitizes every store found on the platform, one at a time and in
// resolution order. Only a platform without a known layout fails the whole
// run; every other problem is reported in the store's result.
func (r *Runner) Clean(ctx context.Context) ([]models.SanitizeResult, error) {
	start := time.Now()
	defer func() {
		r.logger.Info("Elapsed time", zap.Duration("elapsed", time.Since(start)))
	}()

	if r.opts.DryRun {
		r.logger.Info("Running in DRY-RUN mode: stores will not be backed up nor modified")
	}

	locations, err := fs.Resolve(r.platform, r.opts.Apps...)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Resolved stores", zap.Int("count", len(locations)))

	return r.each(locations, func(l models.StoreLocation) models.SanitizeResult {
		return r.sanitizer.Sanitize(ctx, l)
	}), nil
}

// Restore puts back the latest backup of every store that has one.
func (r *Runner) Restore(ctx context.Context) ([]models.SanitizeResult, error) {
	candidates, err := fs.Candidates(r.platform, r.opts.Apps...)
	if err != nil {
		return nil, err
	}

	var locations []models.StoreLocation
	for _, c := range candidates {
		if _, err := os.Stat(c.BackupPath()); err == nil {
			locations = append(locations, c)
		}
	}
	r.logger.Info("Resolved backups", zap.Int("count", len(locations)))

	return r.each(locations, func(l models.StoreLocation) models.SanitizeResult {
		return r.restorer.Restore(ctx, l)
	}), nil
}

// List inspects every store found on the platform without modifying it.
func (r *Runner) List(ctx context.Context) ([]models.StoreStats, error) {
	locations, err := fs.Resolve(r.platform, r.opts.Apps...)
	if err != nil {
		return nil, err
	}

	stats := make([]models.StoreStats, 0, len(locations))
	for _, l := range locations {
		stats = append(stats, r.inspect(ctx, l))
	}

	return stats, nil
}

func (r *Runner) History(limit int) ([]models.JournalEntry, error) {
	if r.opts.JournalPath == "" {
		return nil, ErrJournalDisabled
	}

	journal, closer, err := r.openJournal()
	if err != nil {
		return nil, err
	}
	defer closer()

	return journal.List(limit)
}

func (r *Runner) each(locations []models.StoreLocation, process func(models.StoreLocation) models.SanitizeResult) []models.SanitizeResult {
	journal, closer := r.journal()
	defer closer()

	results := make([]models.SanitizeResult, 0, len(locations))
	for i, l := range locations {
		r.logger.Info("Processing store", zap.Int("position", i+1), zap.Int("total", len(locations)), zap.String("path", l.Path))

		result := process(l)
		if journal != nil {
			if err := journal.Record(result); err != nil {
				r.logger.Warn("Cannot record outcome in journal", zap.String("path", l.Path), zap.Error(err))
			}
		}

		results = append(results, result)
	}

	return results
}

func (r *Runner) inspect(ctx context.Context, l models.StoreLocation) models.StoreStats {
	stats := models.StoreStats{Location: l}

	info, err := os.Stat(l.Path)
	if err != nil {
		stats.Err = err
		return stats
	}
	stats.Size = info.Size()

	if err := fs.CheckSQLite(l.Path); err != nil {
		stats.Err = err
		return stats
	}

	s, err := store.Open(ctx, l.Path, r.opts.LockTimeout)
	if err != nil {
		stats.Err = err
		return stats
	}
	defer func() {
		if err := s.Close(); err != nil {
			r.logger.Info(err.Error())
		}
	}()

	stats.Rows, stats.Matching, stats.Err = s.Stats(ctx, core.KeyPattern)
	return stats
}

// journal opens the journal for recording. A journal that cannot be opened is
// logged and skipped, as it must never stop stores from being processed.
func (r *Runner) journal() (dedb.Repository, func()) {
	if r.opts.JournalPath == "" {
		return nil, func() {}
	}

	journal, closer, err := r.openJournal()
	if err != nil {
		r.logger.Warn("Journal unavailable, outcomes will not be recorded", zap.String("journal", r.opts.JournalPath), zap.Error(err))
		return nil, func() {}
	}

	return journal, closer
}

func (r *Runner) openJournal() (dedb.Repository, func(), error) {
	db, err := dedb.Connect(r.opts.JournalPath)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open journal %v: %w", r.opts.JournalPath, err)
	}

	repo, err := dedb.NewRepository(db, r.logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return repo, func() {
		if err := db.Close(); err != nil {
			r.logger.Info(err.Error())
		}
	}, nil
}
