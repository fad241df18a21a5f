package manifest

import (
	"context"
	"fmt"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/model"
)

// Records is the read side of the install store.
type Records interface {
	GetInstallByID(id string) (*model.Install, error)
	GetManifestByID(id string) (*model.ManifestRecord, error)
}

// GameManifestLoader loads a parsed manifest by file name.
type GameManifestLoader interface {
	LoadGameManifest(filename string) (*model.GameManifest, error)
}

// Resolution is everything an operation needs to know about its target.
type Resolution struct {
	Kind     model.OperationKind
	Install  *model.Install
	Record   *model.ManifestRecord
	Manifest *model.GameManifest

	// Metadata, Full and Diff describe the selected version entry
	// (the preload entry for preloads, which carries no full files).
	Metadata model.VersionMetadata
	Full     []model.FullGameFile
	Diff     []model.DiffGameFile

	// NoPreload is set when a preload was requested but the manifest
	// advertises none. The operation completes without doing anything.
	NoPreload bool
}

// DisplayName is the label carried by progress events.
func (r *Resolution) DisplayName() string {
	switch {
	case r.Metadata.VersionedName != "":
		return r.Metadata.VersionedName
	case r.Manifest != nil && r.Manifest.DisplayName != "":
		return r.Manifest.DisplayName
	case r.Install != nil:
		return r.Install.Name
	}
	return ""
}

// ApplicableDiffs returns the diff entries matching the installed version.
func (r *Resolution) ApplicableDiffs() []model.DiffGameFile {
	return model.DiffsFrom(r.Diff, r.Install.Version)
}

// Resolver turns an operation request into a Resolution.
type Resolver struct {
	records Records
	loader  GameManifestLoader
}

// NewResolver creates a Resolver.
func NewResolver(records Records, loader GameManifestLoader) *Resolver {
	return &Resolver{records: records, loader: loader}
}

// Resolve looks up the install, its manifest record and game manifest, and
// selects the version entry for kind. It performs no writes.
func (r *Resolver) Resolve(ctx context.Context, kind model.OperationKind, payload model.DownloadPayload) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown operation %q", kind)
	}

	install, err := r.records.GetInstallByID(payload.Install)
	if err != nil {
		return nil, err
	}
	if install == nil {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrInstallNotFound, payload.Install)
	}

	record, err := r.records.GetManifestByID(install.ManifestID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrManifestNotFound, install.ManifestID)
	}

	gm, err := r.loader.LoadGameManifest(record.Filename)
	if err != nil {
		return nil, err
	}
	if gm == nil {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrManifestUnavailable, record.Filename)
	}

	res := &Resolution{Kind: kind, Install: install, Record: record, Manifest: gm}

	if kind == model.OpPreload {
		if gm.Preload == nil {
			res.NoPreload = true
			return res, nil
		}
		res.Metadata = gm.Preload.Metadata
		res.Diff = gm.Preload.Diff
		return res, nil
	}

	entry, err := gm.VersionEntry(selectVersion(kind, install, gm, payload))
	if err != nil {
		return nil, err
	}
	res.Metadata = entry.Metadata
	res.Full = entry.Full
	res.Diff = entry.Diff
	return res, nil
}

func selectVersion(kind model.OperationKind, install *model.Install, gm *model.GameManifest, payload model.DownloadPayload) string {
	if kind == model.OpUpdate {
		return gm.LatestVersion
	}
	if payload.UseLatest() || install.Version == "" {
		return gm.LatestVersion
	}
	return install.Version
}
