package model

import (
	"fmt"
	"net/url"
	"path"
	"sort"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/hashicorp/go-version"
)

// DownloadMode is the wire protocol declared by a manifest version entry.
type DownloadMode string

// Supported download modes.
const (
	ModeFile  DownloadMode = "FILE"
	ModeChunk DownloadMode = "CHUNK"
	ModeRaw   DownloadMode = "RAW"
)

// GameManifest is the parsed, read-only description of every published
// version of one game.
type GameManifest struct {
	Biz           string        `json:"biz"`
	DisplayName   string        `json:"display_name"`
	LatestVersion string        `json:"latest_version"`
	GameVersions  []GameVersion `json:"game_versions"`
	Preload       *PreloadEntry `json:"preload,omitempty"`
	Extra         ManifestExtra `json:"extra"`
}

// ManifestExtra holds per-game settings used by post-processing.
type ManifestExtra struct {
	// FixupTarget is the game resource file patched after a RAW transfer,
	// relative to the install directory.
	FixupTarget string `json:"fixup_target,omitempty"`
}

// VersionMetadata describes one published version.
type VersionMetadata struct {
	Version        string       `json:"version"`
	VersionedName  string       `json:"versioned_name"`
	DownloadMode   DownloadMode `json:"download_mode"`
	ResListURL     string       `json:"res_list_url,omitempty"`
	GameIcon       string       `json:"game_icon,omitempty"`
	GameBackground string       `json:"game_background,omitempty"`
}

// GameVersion is one entry of game_versions.
type GameVersion struct {
	Metadata VersionMetadata `json:"metadata"`
	Full     []FullGameFile  `json:"full"`
	Diff     []DiffGameFile  `json:"diff"`
}

// PreloadEntry is the next version staged ahead of its release.
type PreloadEntry struct {
	Metadata VersionMetadata `json:"metadata"`
	Diff     []DiffGameFile  `json:"diff"`
}

// FullGameFile is a complete, independently downloadable file.
// For CHUNK mode FileURL is the protocol manifest and FilePath the chunk base URL.
type FullGameFile struct {
	FileURL          string `json:"file_url"`
	FilePath         string `json:"file_path,omitempty"`
	RegionCode       string `json:"region_code,omitempty"`
	CompressedSize   uint64 `json:"compressed_size,string"`
	DecompressedSize uint64 `json:"decompressed_size,string"`
	FileHash         string `json:"file_hash,omitempty"`
}

// DiffGameFile is a delta applicable only against OriginalVersion.
type DiffGameFile struct {
	FullGameFile
	OriginalVersion string `json:"original_version"`
	DiffType        string `json:"diff_type,omitempty"`
}

// FileName returns the last path segment of the file URL.
func (f FullGameFile) FileName() string {
	if u, err := url.Parse(f.FileURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(f.FileURL)
}

// AppliesTo reports whether the diff can be applied to an install at v.
func (d DiffGameFile) AppliesTo(v string) bool {
	return d.OriginalVersion == v
}

// VersionEntry returns the single game_versions entry matching v.
func (m *GameManifest) VersionEntry(v string) (*GameVersion, error) {
	var found *GameVersion
	for i := range m.GameVersions {
		if m.GameVersions[i].Metadata.Version != v {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%s: %w", v, pkgerrors.ErrAmbiguousVersion)
		}
		found = &m.GameVersions[i]
	}
	if found == nil {
		return nil, fmt.Errorf("%s: %w", v, pkgerrors.ErrVersionNotFound)
	}
	return found, nil
}

// Latest returns the entry for latest_version.
func (m *GameManifest) Latest() (*GameVersion, error) {
	return m.VersionEntry(m.LatestVersion)
}

// UpdateAvailable reports whether latest_version is newer than installed.
// Unparsable versions compare by string inequality.
func (m *GameManifest) UpdateAvailable(installed string) bool {
	latest, err1 := version.NewVersion(m.LatestVersion)
	current, err2 := version.NewVersion(installed)
	if err1 != nil || err2 != nil {
		return m.LatestVersion != installed
	}
	return latest.GreaterThan(current)
}

// VersionsDescending returns the published version strings, newest first.
func (m *GameManifest) VersionsDescending() []string {
	out := make([]string, 0, len(m.GameVersions))
	for _, gv := range m.GameVersions {
		out = append(out, gv.Metadata.Version)
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, erri := version.NewVersion(out[i])
		vj, errj := version.NewVersion(out[j])
		if erri != nil || errj != nil {
			return out[i] > out[j]
		}
		return vi.GreaterThan(vj)
	})
	return out
}

// DiffsFrom returns the diff entries applicable to an install at v, in manifest order.
func DiffsFrom(diffs []DiffGameFile, v string) []DiffGameFile {
	var out []DiffGameFile
	for _, d := range diffs {
		if d.AppliesTo(v) {
			out = append(out, d)
		}
	}
	return out
}
