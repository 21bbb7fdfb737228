package db

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	"github.com/fedragon/go-vscrub/internal/models"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// Repository is the journal of every outcome produced against a store.
type Repository interface {
	Record(result models.SanitizeResult) error
	List(limit int) ([]models.JournalEntry, error)
}

type BoltRepository struct {
	db     *bolt.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewRepository(db *bolt.DB, logger *zap.Logger) (Repository, error) {
	if err := Init(db); err != nil {
		return nil, err
	}

	return &BoltRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (r *BoltRepository) Record(result models.SanitizeResult) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return errors.New("bucket doesn't exist")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		entry := models.JournalEntry{
			Seq:        seq,
			Time:       r.now().UTC(),
			Path:       result.Location.Path,
			App:        result.Location.App,
			Outcome:    result.Outcome,
			BackupPath: result.BackupPath,
			Deleted:    result.Deleted,
			DryRun:     result.DryRun,
		}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}

		marshalled, err := json.Marshal(&entry)
		if err != nil {
			return err
		}

		r.logger.Debug("Recording outcome", zap.Uint64("seq", seq), zap.String("path", entry.Path))

		return bucket.Put(key(seq), marshalled)
	})
}

// List returns up to limit entries, newest first. A non-positive limit
// returns all of them.
func (r *BoltRepository) List(limit int) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry

	err := r.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return errors.New("bucket doesn't exist")
		}

		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) == limit {
				break
			}

			var entry models.JournalEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
		}

		return nil
	})

	return entries, err
}

func key(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
