// Package manifest loads game manifest documents and resolves an operation
// request to the version entry and file lists it acts on.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	"github.com/glorpus-work/gamekeep/pkg/model"
)

// Loader reads game manifests from a directory.
type Loader struct {
	dir string
}

// NewLoader creates a Loader for the manifests in dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the manifests directory.
func (l *Loader) Dir() string {
	return l.dir
}

// LoadGameManifest reads and parses <dir>/<filename>.
func (l *Loader) LoadGameManifest(filename string) (*model.GameManifest, error) {
	path, err := fsutil.SafeJoin(l.dir, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrManifestUnavailable, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", pkgerrors.ErrManifestUnavailable, filename, err)
	}

	var m model.GameManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", pkgerrors.ErrManifestUnavailable, filename, err)
	}
	return &m, nil
}
