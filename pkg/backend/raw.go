package backend

import (
	"context"
	"fmt"

	"github.com/glorpus-work/gamekeep/internal/logger"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/glorpus-work/gamekeep/pkg/postprocess"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
)

// RawBackend downloads the loose files named by a resource list.
type RawBackend struct {
	downloader transfer.RawDownloader
	patcher    Patcher
	fixups     Fixups
}

// NewRawBackend creates the RAW backend. fixups may be nil.
func NewRawBackend(dl transfer.RawDownloader, p Patcher, fixups Fixups) *RawBackend {
	return &RawBackend{downloader: dl, patcher: p, fixups: fixups}
}

// Mode implements Backend.
func (b *RawBackend) Mode() model.DownloadMode { return model.ModeRaw }

// Plan implements Backend. Only the first applicable entry is used: it
// carries the base URL the resource list is resolved against.
func (b *RawBackend) Plan(job Job) (*Plan, error) {
	plan, err := newPlan(model.ModeRaw, job)
	if err != nil {
		return nil, err
	}
	res := job.Resolution

	if usesDiffs(res.Kind) {
		if diffs := res.ApplicableDiffs(); len(diffs) > 0 {
			plan.Files = []model.FullGameFile{diffs[0].FullGameFile}
		}
		plan.TargetDir = postprocess.PatchingDir(plan.InstallDir)
	} else if len(res.Full) > 0 {
		plan.Files = res.Full[:1]
	}
	if len(plan.Files) == 0 {
		return nil, noApplicable(res)
	}
	if plan.ResListURL == "" {
		return nil, fmt.Errorf("%w: version %s has no resource list", pkgerrors.ErrManifestUnavailable, plan.Version)
	}
	return plan, nil
}

// Transfer implements Backend.
func (b *RawBackend) Transfer(ctx context.Context, plan *Plan, progress transfer.ProgressFunc) error {
	f := plan.Files[0]
	err := b.downloader.DownloadRaw(ctx, transfer.RawRequest{
		BaseURL:    f.FileURL,
		ResListURL: plan.ResListURL,
		TargetDir:  plan.TargetDir,
		SkipHash:   plan.SkipHash,
	}, progress)
	if err != nil {
		if _, ok := transfer.FailedItem(err); ok {
			return err
		}
		return &transfer.ItemError{Item: f.FileName(), Err: err}
	}
	return nil
}

// Finalize implements Backend. The fixup script runs after every completed
// install, repair or update; its failure is logged and does not fail the
// operation.
func (b *RawBackend) Finalize(ctx context.Context, plan *Plan) error {
	if err := finishStaged(ctx, b.patcher, plan); err != nil {
		return err
	}
	if plan.Kind == model.OpPreload || b.fixups == nil || plan.FixupTarget == "" {
		return nil
	}

	err := b.fixups.Run(ctx, postprocess.FixupContext{
		ManifestID: plan.ManifestID,
		InstallDir: plan.InstallDir,
		TargetFile: plan.FixupTarget,
		Version:    plan.Version,
	})
	if err != nil {
		logger.Warn("Fixup script failed", logger.Fields{
			"manifest": plan.ManifestID,
			"target":   plan.FixupTarget,
			"error":    err,
		})
	}
	return nil
}
