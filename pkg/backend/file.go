package backend

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glorpus-work/gamekeep/internal/logger"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/glorpus-work/gamekeep/pkg/postprocess"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
)

// FileBackend downloads whole archives and extracts them.
type FileBackend struct {
	downloader     transfer.FileDownloader
	extractor      Extractor
	regionFiltered func(biz string) bool
}

// NewFileBackend creates the FILE backend. Full files of the biz ids for
// which regionFiltered reports true are filtered by the requested region.
// A nil regionFiltered disables filtering.
func NewFileBackend(dl transfer.FileDownloader, ex Extractor, regionFiltered func(biz string) bool) *FileBackend {
	return &FileBackend{downloader: dl, extractor: ex, regionFiltered: regionFiltered}
}

// Mode implements Backend.
func (b *FileBackend) Mode() model.DownloadMode { return model.ModeFile }

// Plan implements Backend. Updates are staged in the patching directory and
// extracted over the install only once every archive arrived; an install
// already at latest_version has nothing to update.
func (b *FileBackend) Plan(job Job) (*Plan, error) {
	plan, err := newPlan(model.ModeFile, job)
	if err != nil {
		return nil, err
	}
	res := job.Resolution

	if res.Kind == model.OpUpdate && res.Manifest != nil && !res.Manifest.UpdateAvailable(res.Install.Version) {
		return nil, noApplicable(res)
	}

	switch {
	case res.Kind == model.OpPreload:
		plan.Files = diffFiles(res.ApplicableDiffs())
		plan.TargetDir = postprocess.PatchingDir(plan.InstallDir)
	case res.Kind == model.OpUpdate && postprocess.HasPreloadMarker(plan.InstallDir):
		plan.FromStaging = true
		plan.TargetDir = postprocess.PatchingDir(plan.InstallDir)
		return plan, nil
	default:
		plan.Files = b.filterRegion(job, res.Full)
		if res.Kind == model.OpUpdate {
			plan.TargetDir = postprocess.PatchingDir(plan.InstallDir)
		}
	}

	if len(plan.Files) == 0 {
		return nil, noApplicable(res)
	}
	for _, f := range plan.Files {
		plan.Total += f.CompressedSize
	}
	return plan, nil
}

func (b *FileBackend) filterRegion(job Job, files []model.FullGameFile) []model.FullGameFile {
	biz := job.Biz
	if biz == "" && job.Resolution.Manifest != nil {
		biz = job.Resolution.Manifest.Biz
	}
	if b.regionFiltered == nil || !b.regionFiltered(biz) || job.Region == "" {
		return files
	}

	var out []model.FullGameFile
	for _, f := range files {
		if f.RegionCode == "" || strings.EqualFold(f.RegionCode, job.Region) {
			out = append(out, f)
		}
	}
	return out
}

// Transfer implements Backend. The known total is reported before the first byte.
func (b *FileBackend) Transfer(ctx context.Context, plan *Plan, progress transfer.ProgressFunc) error {
	if plan.FromStaging {
		return nil
	}
	progress(0, plan.Total)

	reqs := make([]transfer.FileRequest, 0, len(plan.Files))
	for _, f := range plan.Files {
		req := transfer.FileRequest{
			URL:  f.FileURL,
			Dest: filepath.Join(plan.TargetDir, f.FileName()),
			Size: f.CompressedSize,
		}
		if isMD5(f.FileHash) {
			req.MD5 = f.FileHash
		}
		reqs = append(reqs, req)
	}
	return b.downloader.DownloadFiles(ctx, reqs, progress)
}

// Finalize implements Backend.
func (b *FileBackend) Finalize(ctx context.Context, plan *Plan) error {
	if plan.Kind == model.OpPreload {
		return postprocess.WritePreloadMarker(plan.InstallDir)
	}

	names := make([]string, 0, len(plan.Files))
	for _, f := range plan.Files {
		names = append(names, f.FileName())
	}
	if plan.FromStaging {
		staged, err := stagedArchives(plan.TargetDir)
		if err != nil {
			return fmt.Errorf("%w: %w", pkgerrors.ErrExtractionFailed, err)
		}
		names = staged
	}

	if err := b.extractAll(ctx, plan.TargetDir, plan.InstallDir, names); err != nil {
		return err
	}
	if plan.TargetDir != plan.InstallDir {
		return postprocess.RemovePatchingDir(plan.InstallDir)
	}
	return nil
}

// extractAll assembles split archives, extracts every archive in srcDir
// named by names into destDir and deletes the archives afterwards.
func (b *FileBackend) extractAll(ctx context.Context, srcDir, destDir string, names []string) error {
	split := make(map[string]bool)
	for _, name := range names {
		if postprocess.IsMultipart(name) {
			split[postprocess.BaseName(name)] = true
		}
	}

	var archives, consumed []string
	for _, name := range names {
		path := filepath.Join(srcDir, name)
		switch {
		case postprocess.IsMultipart(name):
			parts, err := postprocess.Parts(path)
			if err != nil {
				return fmt.Errorf("%w: %w", pkgerrors.ErrExtractionFailed, err)
			}
			out := postprocess.BaseName(path)
			logger.Debug("Assembling split archive", logger.Fields{"archive": out, "parts": len(parts)})
			if err := postprocess.Assemble(parts, out); err != nil {
				return fmt.Errorf("%w: %w", pkgerrors.ErrExtractionFailed, err)
			}
			archives = append(archives, out)
			consumed = append(consumed, parts...)
		case postprocess.IsPart(name) && split[postprocess.PartBase(name)]:
			// assembled with its first part
		default:
			archives = append(archives, path)
		}
	}

	for _, archive := range archives {
		if err := b.extractor.ExtractAll(ctx, archive, destDir); err != nil {
			return err
		}
	}

	for _, path := range append(consumed, archives...) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove archive", logger.Fields{"path": path, "error": err})
		}
	}
	return nil
}

func stagedArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isMD5(s string) bool {
	if len(s) != 32 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
