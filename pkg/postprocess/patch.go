package postprocess

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glorpus-work/gamekeep/internal/logger"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	"github.com/glorpus-work/gamekeep/pkg/platform"
)

// DeleteListName is the staged file listing paths removed by an update.
const DeleteListName = "deletefiles.txt"

var patchExtensions = []string{".hdiff", ".krdiff"}

// Runner executes the patch tool. It returns the tool's combined output.
type Runner func(ctx context.Context, tool string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, tool string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, tool, args...).CombinedOutput()
}

// PatchRequest describes one staged update to apply.
type PatchRequest struct {
	StagingDir string // where the diff files were downloaded
	TargetDir  string // the install directory
	Preload    bool   // staged by an earlier preload; patch into staging then commit
}

// Patcher applies staged binary diffs with an hpatchz compatible tool.
type Patcher struct {
	tool string
	run  Runner
}

// NewPatcher creates a Patcher using the tool found in dir. A build for
// the current platform in dir/<os>-<arch> or dir/<os> is preferred.
func NewPatcher(dir string) *Patcher {
	candidates := platform.CurrentPlatform().Candidates(dir, ToolName())
	tool := candidates[len(candidates)-1]
	for _, c := range candidates {
		if fsutil.FileExists(c) {
			tool = c
			break
		}
	}
	return &Patcher{tool: tool, run: execRunner}
}

// WithRunner replaces how the tool is executed.
func (p *Patcher) WithRunner(run Runner) *Patcher {
	p.run = run
	return p
}

// Tool returns the path of the patch tool.
func (p *Patcher) Tool() string {
	return p.tool
}

// ToolName is the platform file name of the patch tool.
func ToolName() string {
	return platform.CurrentPlatform().Executable("hpatchz")
}

// IsPatch reports whether name is a binary diff.
func IsPatch(name string) bool {
	for _, ext := range patchExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

type stagedPatch struct {
	rel  string // relative path of the diff inside staging
	dest string // relative path of the file it produces
}

// Apply applies every staged diff to the target directory, moves the other
// staged files into place and removes the files listed in deletefiles.txt.
func (p *Patcher) Apply(ctx context.Context, req PatchRequest) error {
	patches, plain, err := scanStaging(req.StagingDir)
	if err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrPatchFailed, err)
	}
	if len(patches) > 0 && !fsutil.FileExists(p.tool) {
		return fmt.Errorf("%w: patch tool not found at %s", pkgerrors.ErrPatchFailed, p.tool)
	}

	logger.Debug("Applying staged update", logger.Fields{
		"staging": req.StagingDir,
		"patches": len(patches),
		"files":   len(plain),
		"preload": req.Preload,
	})

	var outputs []string
	for _, patch := range patches {
		out, err := p.applyOne(ctx, req, patch)
		if err != nil {
			return err
		}
		outputs = append(outputs, out)
	}

	// A preload continuation patches into staging first so a failed patch
	// leaves the install untouched; commit once every patch succeeded.
	if req.Preload {
		for i, patch := range patches {
			if err := commit(outputs[i], req.TargetDir, patch.dest); err != nil {
				return err
			}
		}
	}

	for _, rel := range plain {
		if err := commit(filepath.Join(req.StagingDir, rel), req.TargetDir, rel); err != nil {
			return err
		}
	}

	return applyDeleteList(req.StagingDir, req.TargetDir)
}

func (p *Patcher) applyOne(ctx context.Context, req PatchRequest, patch stagedPatch) (string, error) {
	diff := filepath.Join(req.StagingDir, patch.rel)
	old, err := fsutil.SafeJoin(req.TargetDir, patch.dest)
	if err != nil {
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrPatchFailed, err)
	}
	if !fsutil.FileExists(old) {
		// hpatchz treats an empty old path as an empty source file.
		old = ""
	}

	var out string
	if req.Preload {
		out = filepath.Join(req.StagingDir, filepath.FromSlash(patch.dest))
	} else {
		out = filepath.Join(req.TargetDir, filepath.FromSlash(patch.dest)) + ".patched"
	}
	if err := fsutil.EnsureFileDir(out); err != nil {
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrPatchFailed, err)
	}

	output, err := p.run(ctx, p.tool, "-f", old, diff, out)
	if err != nil {
		_ = os.Remove(out)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s: %w: %s", pkgerrors.ErrPatchFailed, patch.rel, err, strings.TrimSpace(string(output)))
	}

	if !req.Preload {
		if err := commit(out, req.TargetDir, patch.dest); err != nil {
			return "", err
		}
	}
	return out, nil
}

func commit(src, targetDir, rel string) error {
	dest, err := fsutil.SafeJoin(targetDir, rel)
	if err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrPatchFailed, err)
	}
	if err := fsutil.Move(src, dest); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrPatchFailed, err)
	}
	return nil
}

// scanStaging splits the staged files into diffs and plain files, both
// sorted, skipping bookkeeping files.
func scanStaging(dir string) ([]stagedPatch, []string, error) {
	var patches []stagedPatch
	var plain []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case rel == DeleteListName || rel == MarkerName:
		case strings.HasSuffix(rel, ".tmp") || strings.HasSuffix(rel, ".patched"):
		case IsPatch(rel):
			patches = append(patches, stagedPatch{rel: rel, dest: strings.TrimSuffix(rel, filepath.Ext(rel))})
		default:
			plain = append(plain, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(patches, func(i, j int) bool { return patches[i].rel < patches[j].rel })
	sort.Strings(plain)

	// Patch outputs written into staging by an earlier preload continuation
	// must not be committed twice.
	produced := make(map[string]bool, len(patches))
	for _, p := range patches {
		produced[p.dest] = true
	}
	filtered := plain[:0]
	for _, rel := range plain {
		if !produced[rel] {
			filtered = append(filtered, rel)
		}
	}
	return patches, filtered, nil
}

func applyDeleteList(stagingDir, targetDir string) error {
	data, err := os.ReadFile(filepath.Join(stagingDir, DeleteListName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to read delete list: %w", pkgerrors.ErrPatchFailed, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		rel := strings.TrimSpace(line)
		if rel == "" {
			continue
		}
		path, err := fsutil.SafeJoin(targetDir, strings.TrimLeft(rel, "/"))
		if err != nil {
			return fmt.Errorf("%w: %w", pkgerrors.ErrPatchFailed, err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: failed to delete %s: %w", pkgerrors.ErrPatchFailed, rel, err)
		}
	}
	return nil
}
