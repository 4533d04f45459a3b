// Package scratch manages temporary upload files.
//
// A scratch file must never outlive the request that created it: leaked
// files risk disk exhaustion. Release is idempotent so handlers can defer it
// on every exit path.
package scratch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrTooLarge is returned when the uploaded data exceeds the configured limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Save writes r to a new temp file in dir (the OS default when dir is empty),
// enforcing the byte limit, and returns the file path and size.
// On any error no file is left behind.
func Save(dir string, r io.Reader, limit int64) (string, int64, error) {
	f, err := os.CreateTemp(dir, "torrent-upload-*.torrent")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create scratch file: %w", err)
	}

	// Read one byte past the limit to detect oversized input.
	size, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()

	switch {
	case err != nil:
		Release(f.Name())
		return "", 0, fmt.Errorf("failed to write scratch file: %w", err)
	case closeErr != nil:
		Release(f.Name())
		return "", 0, fmt.Errorf("failed to close scratch file: %w", closeErr)
	case size > limit:
		Release(f.Name())
		return "", 0, ErrTooLarge
	}

	return f.Name(), size, nil
}

// Release removes the scratch file at path. Safe to call when the file is
// already gone; failures other than absence are logged, not returned, since
// callers run this on every exit path and cannot act on the error.
func Release(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("Failed to remove scratch file", "path", path, "error", err)
	}
}
