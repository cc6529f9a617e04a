// Package fileutil writes tool output files.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// OwnerReadWrite is the file permission mode for output files, which may carry
// credentials from the override properties (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// RejectSymlink returns an error if path exists on fsys and is a symlink.
// Filesystems that cannot report links are trusted.
func RejectSymlink(fsys afero.Fs, path string) error {
	lst, ok := fsys.(afero.Lstater)
	if !ok {
		return nil
	}
	info, _, err := lst.LstatIfPossible(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fileutil: checking output path: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("fileutil: refusing to write to symlink: %s", path)
	}
	return nil
}

// WriteOutput writes data to the cleaned, absolute form of path with
// OwnerReadWrite permissions and returns that path. Symlinks are refused.
func WriteOutput(fsys afero.Fs, path string, data []byte) (string, error) {
	if path == "" {
		return "", fmt.Errorf("fileutil: output path is empty")
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("fileutil: invalid output path: %w", err)
	}
	if err := RejectSymlink(fsys, abs); err != nil {
		return "", err
	}
	if err := afero.WriteFile(fsys, abs, data, OwnerReadWrite); err != nil {
		return "", fmt.Errorf("fileutil: failed to write output file: %w", err)
	}
	return abs, nil
}
