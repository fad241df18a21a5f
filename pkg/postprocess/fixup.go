package postprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/glorpus-work/gamekeep/internal/logger"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	"github.com/glorpus-work/gamekeep/pkg/platform"
)

// FixupContext is exposed to fixup scripts as variables.
type FixupContext struct {
	ManifestID string
	InstallDir string
	TargetFile string
	Version    string
	Vars       map[string]interface{}
}

// Fixups runs per-game tengo scripts after a successful RAW install or
// update. Scripts live in dir as <manifest_id>.tengo, optionally inside a
// dir/<os>-<arch> or dir/<os> subdirectory for host specific variants.
type Fixups struct {
	dir      string
	platform platform.Platform
}

// NewFixups creates a runner for the scripts in dir.
func NewFixups(dir string) *Fixups {
	return &Fixups{dir: dir, platform: platform.CurrentPlatform()}
}

// ScriptPath returns the script used for manifestID: the most specific
// existing variant, or the generic path when none exists.
func (f *Fixups) ScriptPath(manifestID string) string {
	candidates := f.platform.Candidates(f.dir, manifestID+".tengo")
	for _, c := range candidates {
		if fsutil.FileExists(c) {
			return c
		}
	}
	return filepath.Join(f.dir, manifestID+".tengo")
}

// Run executes the fixup for fc.ManifestID. A missing script is not an error.
// Scripts report failure by assigning a non-empty string or an error to err.
func (f *Fixups) Run(ctx context.Context, fc FixupContext) error {
	path := f.ScriptPath(fc.ManifestID)
	src, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Debug("No fixup script", logger.Fields{"manifest": fc.ManifestID})
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to read %s: %w", pkgerrors.ErrFixupFailed, path, err)
	}

	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times", "hex"))

	vars := map[string]interface{}{
		"manifestID": fc.ManifestID,
		"installDir": fc.InstallDir,
		"targetFile": fc.TargetFile,
		"version":    fc.Version,
		"platform":   f.platform.String(),
		"hostOS":     f.platform.OS,
	}
	for k, v := range fc.Vars {
		vars[k] = v
	}
	for k, v := range vars {
		if err := script.Add(k, v); err != nil {
			return fmt.Errorf("%w: failed to add variable '%s' to script: %w", pkgerrors.ErrFixupFailed, k, err)
		}
	}
	// Declared so scripts may assign it without defining it.
	if err := script.Add("err", ""); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrFixupFailed, err)
	}

	compiled, err := script.RunContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", pkgerrors.ErrFixupFailed, fc.ManifestID, err)
	}

	errVar := compiled.Get("err")
	if errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return fmt.Errorf("%w: %w", pkgerrors.ErrFixupFailed, v)
		case string:
			if v != "" {
				return fmt.Errorf("%w: %s", pkgerrors.ErrFixupFailed, v)
			}
		}
	}
	return nil
}
