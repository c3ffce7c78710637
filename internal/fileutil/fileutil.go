package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// maxNameAttempts bounds the counter appended by findUniqueName
const maxNameAttempts = 10000

// MoveFile moves src into destDir and returns the destination path.
// If a file with the same name exists, it appends a counter (e.g., file_1.jpg).
// destDir must already exist.
func MoveFile(fs afero.Fs, src, destDir string) (string, error) {
	filename := filepath.Base(src)
	destName, err := findUniqueName(filename, func(name string) (bool, error) {
		_, err := fs.Stat(filepath.Join(destDir, name))
		if err == nil {
			return false, nil
		}
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to pick a name in %s: %w", destDir, err)
	}

	dest := filepath.Join(destDir, destName)
	if err := moveFileAcrossFS(fs, src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// EnsureDir creates dir if it does not exist and reports whether it did
func EnsureDir(fs afero.Fs, dir string) (bool, error) {
	info, err := fs.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return true, nil
}

// findUniqueName finds a unique filename by appending a counter if needed.
// isAvailable reports whether a name is free; any error it returns stops
// the search.
func findUniqueName(filename string, isAvailable func(string) (bool, error)) (string, error) {
	ok, err := isAvailable(filename)
	if err != nil {
		return "", err
	}
	if ok {
		return filename, nil
	}

	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	for counter := 1; counter <= maxNameAttempts; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", name, counter, ext)
		ok, err := isAvailable(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", filename, maxNameAttempts)
}

// moveFileAcrossFS moves a file, falling back to copy+delete for cross-filesystem moves.
func moveFileAcrossFS(fs afero.Fs, src, dest string) error {
	err := fs.Rename(src, dest)
	if err == nil {
		return nil
	}

	// Check if it's a cross-device link error
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		if errors.Is(linkErr.Err, syscall.EXDEV) {
			// Cross-filesystem: copy then delete
			if err := copyFile(fs, src, dest); err != nil {
				return err
			}
			return fs.Remove(src)
		}
	}

	return err
}

// copyFile copies a file from src to dest.
func copyFile(fs afero.Fs, src, dest string) error {
	srcFile, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, srcInfo.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, srcFile); err != nil {
		destFile.Close()
		fs.Remove(dest) // Clean up on failure
		return err
	}

	return destFile.Close()
}
