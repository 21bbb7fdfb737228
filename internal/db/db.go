package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
)

var bucketName = []byte("Runs")

// Connect opens the journal at path, creating it and its parent directory if
// needed. Opening fails after a second if another process holds the journal.
func Connect(path string) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("unable to create journal directory: %w", err)
	}

	return bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
}

func Init(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
}
