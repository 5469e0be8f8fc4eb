// Package safe wraps file operations with size limits, symlink checks and
// atomic replacement.
package safe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// DefaultMaxFileSize is the default read limit for capture files (256MB).
const DefaultMaxFileSize = 256 << 20

// Options configures reads, copies and moves.
type Options struct {
	// MaxSize is the maximum allowed file size in bytes. Zero means DefaultMaxFileSize.
	MaxSize int64
	// DestPerm is the permission mode for written files. Zero means 0600.
	DestPerm os.FileMode
	// AllowSymlinks allows reading through symlinks. Default is false.
	AllowSymlinks bool
}

func (o *Options) maxSize() int64 {
	if o == nil || o.MaxSize <= 0 {
		return DefaultMaxFileSize
	}
	return o.MaxSize
}

func (o *Options) destPerm() os.FileMode {
	if o == nil || o.DestPerm == 0 {
		return 0o600
	}
	return o.DestPerm
}

// regularFile validates that path names a regular file within the size limit
// and returns its cleaned form.
func regularFile(path string, opts *Options) (string, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Lstat(cleanPath)
	if err != nil {
		return "", err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if opts == nil || !opts.AllowSymlinks {
			return "", fmt.Errorf("file %q is a symlink, which is not allowed", path)
		}
		info, err = os.Stat(cleanPath)
		if err != nil {
			return "", err
		}
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path %q is not a regular file", path)
	}

	if limit := opts.maxSize(); info.Size() > limit {
		return "", fmt.Errorf("file %q exceeds maximum allowed size of %d bytes", path, limit)
	}

	return cleanPath, nil
}

// ReadFile reads a regular file, rejecting symlinks (unless allowed) and
// files larger than the configured limit.
func ReadFile(path string, opts *Options) ([]byte, error) {
	cleanPath, err := regularFile(path, opts)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(cleanPath)
}

// CopyFile copies the regular file src to dst with the same validations as
// ReadFile.
func CopyFile(src, dst string, opts *Options) error {
	cleanSrc, err := regularFile(src, opts)
	if err != nil {
		return err
	}

	srcFile, err := os.Open(cleanSrc)
	if err != nil {
		return err
	}
	defer func(srcFile *os.File) {
		_ = srcFile.Close()
	}(srcFile)

	// #nosec G304 - the destination is chosen by the user.
	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, opts.destPerm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

// WriteFileAtomic replaces path with data. The data is staged in a temporary
// file next to path and renamed into place, so readers never observe a
// partial file.
func WriteFileAtomic(path string, data []byte, opts *Options) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, opts.destPerm()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// MoveFile renames src to dst. When both live on different filesystems it
// falls back to copying src and removing it.
func MoveFile(src, dst string, opts *Options) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := CopyFile(src, dst, opts); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return os.Remove(src)
}
