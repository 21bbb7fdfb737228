package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"lukechampine.com/blake3"
)

var ErrNotSQLite = errors.New("not an SQLite database")

var sqliteHeader = []byte("SQLite format 3\x00")

func hash(r io.Reader) ([]byte, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// HashFile returns the blake3 digest of the file content.
func HashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return hash(f)
}

// CheckSQLite fails with ErrNotSQLite unless the file starts with the SQLite
// magic header.
func CheckSQLite(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %v", ErrNotSQLite, path)
		}
		return err
	}

	if !bytes.Equal(header, sqliteHeader) {
		return fmt.Errorf("%w: %v", ErrNotSQLite, path)
	}

	return nil
}
