package postprocess

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/gamekeep/pkg/fsutil"
)

const (
	// PatchingDirName is the staging directory inside an install.
	PatchingDirName = "patching"
	// MarkerName marks a staging directory filled by a preload.
	MarkerName = ".preload"
)

// PatchingDir returns the staging directory of an install.
func PatchingDir(installDir string) string {
	return filepath.Join(installDir, PatchingDirName)
}

// WritePreloadMarker records that the staging directory holds a preload.
func WritePreloadMarker(installDir string) error {
	return fsutil.WriteFileAtomic(filepath.Join(PatchingDir(installDir), MarkerName), nil, fsutil.FileModeDefault)
}

// HasPreloadMarker reports whether a preload is staged.
func HasPreloadMarker(installDir string) bool {
	return fsutil.FileExists(filepath.Join(PatchingDir(installDir), MarkerName))
}

// RemovePatchingDir deletes the staging directory and everything in it.
func RemovePatchingDir(installDir string) error {
	return os.RemoveAll(PatchingDir(installDir))
}
