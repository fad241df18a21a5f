package backend

import (
	"context"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/glorpus-work/gamekeep/pkg/postprocess"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
)

// ChunkBackend materialises chunk manifests. Full entries are written
// straight into the install; diffs are staged and patched in Finalize.
type ChunkBackend struct {
	downloader transfer.ChunkDownloader
	patcher    Patcher
}

// NewChunkBackend creates the CHUNK backend.
func NewChunkBackend(dl transfer.ChunkDownloader, p Patcher) *ChunkBackend {
	return &ChunkBackend{downloader: dl, patcher: p}
}

// Mode implements Backend.
func (b *ChunkBackend) Mode() model.DownloadMode { return model.ModeChunk }

// Plan implements Backend.
func (b *ChunkBackend) Plan(job Job) (*Plan, error) {
	plan, err := newPlan(model.ModeChunk, job)
	if err != nil {
		return nil, err
	}
	res := job.Resolution

	if usesDiffs(res.Kind) {
		plan.Files = diffFiles(res.ApplicableDiffs())
		plan.TargetDir = postprocess.PatchingDir(plan.InstallDir)
	} else {
		plan.Files = res.Full
	}
	if len(plan.Files) == 0 {
		return nil, noApplicable(res)
	}
	return plan, nil
}

// Transfer implements Backend. Manifests are processed in order and the
// first failure stops the rest; progress restarts for every manifest.
func (b *ChunkBackend) Transfer(ctx context.Context, plan *Plan, progress transfer.ProgressFunc) error {
	for i, f := range plan.Files {
		logger.Debug("Materialising chunk manifest", logger.Fields{
			"manifest": f.FileName(),
			"index":    i + 1,
			"of":       len(plan.Files),
		})
		err := b.downloader.DownloadChunks(ctx, transfer.ChunkRequest{
			ManifestURL:  f.FileURL,
			ChunkBaseURL: f.FilePath,
			TargetDir:    plan.TargetDir,
			SkipHash:     plan.SkipHash,
		}, progress)
		if err != nil {
			return &transfer.ItemError{Item: f.FileName(), Err: err}
		}
	}
	return nil
}

// Finalize implements Backend.
func (b *ChunkBackend) Finalize(ctx context.Context, plan *Plan) error {
	return finishStaged(ctx, b.patcher, plan)
}
