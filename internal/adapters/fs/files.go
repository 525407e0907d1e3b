package fs

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/zerr"
)

// IsStale reports whether src must be reprocessed into dst: dst is missing or
// src was modified after it. An output that is newer or equal is up to date.
func IsStale(src, dst string) (bool, error) {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", dst)
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", src)
	}
	return srcInfo.ModTime().After(dstInfo.ModTime()), nil
}

// WriteFileIfChanged writes data to path unless the file already holds the
// same bytes, in which case the file and its mtime are left alone. It reports
// whether the file was written.
func WriteFileIfChanged(path string, data []byte) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil { //nolint:gosec // Path is controlled by caller
		if len(existing) == len(data) && xxhash.Sum64(existing) == xxhash.Sum64(data) && bytes.Equal(existing, data) {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	return true, nil
}

// CopyFileIfChanged copies src to dst with WriteFileIfChanged and then gives
// dst the modification time of src, so IsStale reports it up to date.
func CopyFileIfChanged(src, dst string) (bool, error) {
	data, err := os.ReadFile(src) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", src)
	}
	written, err := WriteFileIfChanged(dst, data)
	if err != nil {
		return false, err
	}
	return written, MatchModTime(dst, src)
}

// MatchModTime sets the modification time of dst to that of src.
func MatchModTime(dst, src string) error {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", src)
	}
	if err := os.Chtimes(dst, time.Now(), info.ModTime()); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", dst)
	}
	return nil
}
