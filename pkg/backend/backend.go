// Package backend adapts the three transfer protocols to one lifecycle:
// Plan selects what to fetch, Transfer moves the bytes and Finalize turns
// them into an installed game.
package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/manifest"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/glorpus-work/gamekeep/pkg/postprocess"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
)

// Extractor unpacks an archive into a directory.
type Extractor interface {
	ExtractAll(ctx context.Context, archivePath, destDir string) error
}

// Patcher applies a staged update.
type Patcher interface {
	Apply(ctx context.Context, req postprocess.PatchRequest) error
}

// Fixups runs the per-game fixup script.
type Fixups interface {
	Run(ctx context.Context, fc postprocess.FixupContext) error
}

// Job is one resolved operation handed to a backend.
type Job struct {
	Resolution *manifest.Resolution
	Biz        string
	Region     string
}

// Plan is what a backend decided to do for a job.
type Plan struct {
	Kind       model.OperationKind
	Mode       model.DownloadMode
	InstallDir string
	// TargetDir receives the transferred bytes: the install directory, or
	// its patching directory for updates and preloads.
	TargetDir string
	SkipHash  bool

	Files []model.FullGameFile
	// Total is the byte total known before the transfer starts, 0 if unknown.
	Total uint64
	// FromStaging finalizes content staged by an earlier preload without
	// transferring anything.
	FromStaging bool

	ResListURL  string
	ManifestID  string
	Version     string
	FixupTarget string
}

// Backend is one transfer protocol.
type Backend interface {
	Mode() model.DownloadMode
	// Plan returns pkgerrors.ErrNoApplicableFile when there is nothing to do.
	Plan(job Job) (*Plan, error)
	Transfer(ctx context.Context, plan *Plan, progress transfer.ProgressFunc) error
	Finalize(ctx context.Context, plan *Plan) error
}

// Dispatcher selects the backend for a download mode.
type Dispatcher struct {
	backends map[model.DownloadMode]Backend
}

// NewDispatcher creates a dispatcher over backends.
func NewDispatcher(backends ...Backend) *Dispatcher {
	d := &Dispatcher{backends: make(map[model.DownloadMode]Backend, len(backends))}
	for _, b := range backends {
		d.backends[b.Mode()] = b
	}
	return d
}

// Select returns the backend for mode, or ErrUnsupportedMode.
func (d *Dispatcher) Select(mode model.DownloadMode) (Backend, error) {
	key := model.DownloadMode(strings.ToUpper(strings.TrimSpace(string(mode))))
	if b, ok := d.backends[key]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", pkgerrors.ErrUnsupportedMode, mode)
}

// newPlan fills the fields every backend shares.
func newPlan(mode model.DownloadMode, job Job) (*Plan, error) {
	res := job.Resolution
	if res == nil || res.Install == nil {
		return nil, fmt.Errorf("%w: job without install", pkgerrors.ErrInstallNotFound)
	}
	dir := res.Install.Directory
	if dir == "" || !filepath.IsAbs(dir) {
		return nil, fmt.Errorf("install %s directory must be absolute: %w: %q", res.Install.ID, pkgerrors.ErrInvalidPath, dir)
	}

	p := &Plan{
		Kind:       res.Kind,
		Mode:       mode,
		InstallDir: dir,
		TargetDir:  dir,
		SkipHash:   res.Install.SkipHashValidation,
		ResListURL: res.Metadata.ResListURL,
		ManifestID: res.Install.ManifestID,
		Version:    res.Metadata.Version,
	}
	if res.Manifest != nil {
		p.FixupTarget = res.Manifest.Extra.FixupTarget
	}
	return p, nil
}

// usesDiffs reports whether kind transfers deltas into the patching directory.
func usesDiffs(kind model.OperationKind) bool {
	return kind == model.OpUpdate || kind == model.OpPreload
}

func diffFiles(diffs []model.DiffGameFile) []model.FullGameFile {
	out := make([]model.FullGameFile, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, d.FullGameFile)
	}
	return out
}

func noApplicable(res *manifest.Resolution) error {
	return fmt.Errorf("%w: %s %s from %s", pkgerrors.ErrNoApplicableFile, res.Kind, res.Metadata.Version, res.Install.Version)
}

// finishStaged applies or records content staged in the patching directory.
func finishStaged(ctx context.Context, patcher Patcher, plan *Plan) error {
	switch plan.Kind {
	case model.OpPreload:
		return postprocess.WritePreloadMarker(plan.InstallDir)
	case model.OpUpdate:
		err := patcher.Apply(ctx, postprocess.PatchRequest{
			StagingDir: postprocess.PatchingDir(plan.InstallDir),
			TargetDir:  plan.InstallDir,
			Preload:    postprocess.HasPreloadMarker(plan.InstallDir),
		})
		if err != nil {
			return err
		}
		return postprocess.RemovePatchingDir(plan.InstallDir)
	}
	return nil
}
