package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

var ErrBackupMismatch = errors.New("backup content does not match source")

// Copy reads src entirely and atomically replaces dst with its content, then
// checks that dst hashes to the same digest as the bytes read. dst is either
// left untouched or fully written, never truncated.
func Copy(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read %v: %w", src, err)
	}

	expected, err := hash(bytes.NewReader(data))
	if err != nil {
		return err
	}

	if err := atomic.WriteFile(dst, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("unable to write %v: %w", dst, err)
	}

	actual, err := HashFile(dst)
	if err != nil {
		return fmt.Errorf("unable to verify %v: %w", dst, err)
	}

	if !bytes.Equal(expected, actual) {
		return fmt.Errorf("%w: %v", ErrBackupMismatch, dst)
	}

	return nil
}
