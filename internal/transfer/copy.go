package transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// copyFile copies src to dst, returning the hex SHA256 of the bytes
// written. Permissions and modification time are carried over from the
// source so restored files keep their session recency.
func copyFile(src, dst string) (string, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", errors.Wrap(err, "opening source file")
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", errors.Wrap(err, "stat source file")
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating destination file")
	}

	// Compute the hash while copying
	h := sha256.New()
	w := io.MultiWriter(dstFile, h)

	if _, err := io.Copy(w, srcFile); err != nil {
		dstFile.Close()
		return "", errors.Wrap(err, "copying file")
	}

	if err := dstFile.Close(); err != nil {
		return "", errors.Wrap(err, "closing destination file")
	}

	if err := os.Chmod(dst, srcInfo.Mode()); err != nil {
		return "", errors.Wrap(err, "setting permissions")
	}
	if err := os.Chtimes(dst, time.Now(), srcInfo.ModTime()); err != nil {
		return "", errors.Wrap(err, "setting modification time")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyAndRemove completes a move: re-read the copied file, compare its
// content hash with the one streamed during the copy, and only then delete
// the source. A mismatch leaves the source untouched.
func verifyAndRemove(src, dst, wantHash string) error {
	gotHash, err := hashFile(dst)
	if err != nil {
		return errors.Wrapf(err, "verifying copy %s", dst)
	}
	if gotHash != wantHash {
		return errors.Newf("copy of %s failed verification: hash mismatch", src)
	}
	if err := os.Remove(src); err != nil {
		return errors.Wrapf(err, "removing moved source %s", src)
	}
	return nil
}

// hashFile computes the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
