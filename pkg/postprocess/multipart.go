// Package postprocess turns transferred bytes into an installed game:
// multipart assembly, archive extraction, binary patching, fixup scripts
// and the preload staging marker.
package postprocess

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/glorpus-work/gamekeep/pkg/fsutil"
)

const firstPartSuffix = ".001"

// IsMultipart reports whether name is the first part of a split archive.
func IsMultipart(name string) bool {
	return strings.HasSuffix(name, firstPartSuffix)
}

// IsPart reports whether name is any part (.001, .002, ...) of a split archive.
func IsPart(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || len(name)-i != 4 {
		return false
	}
	for _, r := range name[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return name[i+1:] != "000"
}

// BaseName strips the part suffix from the first part's name.
func BaseName(first string) string {
	return strings.TrimSuffix(first, firstPartSuffix)
}

// PartBase strips the numeric part suffix from any part's name.
func PartBase(part string) string {
	if !IsPart(part) {
		return part
	}
	return part[:len(part)-len(firstPartSuffix)]
}

// Parts lists first and every consecutive part following it on disk.
func Parts(first string) ([]string, error) {
	if !IsMultipart(first) {
		return nil, fmt.Errorf("%s is not the first part of a split archive", first)
	}
	base := BaseName(first)

	var parts []string
	for i := 1; i < 1000; i++ {
		part := fmt.Sprintf("%s.%03d", base, i)
		if !fsutil.FileExists(part) {
			break
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("first part %s not found", first)
	}
	return parts, nil
}

// Assemble concatenates parts, in order, into out. The result is written to
// a temporary file and renamed into place so a partial archive never appears
// under out.
func Assemble(parts []string, out string) error {
	if len(parts) == 0 {
		return fmt.Errorf("no parts to assemble into %s", out)
	}
	if err := fsutil.EnsureFileDir(out); err != nil {
		return err
	}

	tmp := out + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	for _, part := range parts {
		if err := appendFile(dst, part); err != nil {
			_ = dst.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

func appendFile(dst io.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open part %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to append part %s: %w", path, err)
	}
	return nil
}
