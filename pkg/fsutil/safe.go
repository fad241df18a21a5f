package fsutil

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
)

// SafeJoin joins a slash-separated relative name onto root and rejects
// names that would resolve outside of root.
func SafeJoin(root, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", pkgerrors.ErrInvalidPath, name)
	}
	joined := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes %s", pkgerrors.ErrInvalidPath, name, root)
	}
	return joined, nil
}

// FileMD5 returns the hex md5 digest of the file at path.
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MatchesFile reports whether path exists with the given size and, when
// digest is non-empty, the given md5.
func MatchesFile(path string, size uint64, digest string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || uint64(info.Size()) != size {
		return false
	}
	if digest == "" {
		return true
	}
	got, err := FileMD5(path)
	return err == nil && strings.EqualFold(got, digest)
}
