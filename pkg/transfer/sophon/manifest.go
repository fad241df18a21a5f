// Package sophon implements the chunk protocol: a zstd-compressed protobuf
// manifest lists every asset of a build and the zstd chunks it is stitched
// together from.
package sophon

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

// AssetTypeDirectory marks assets that only create a directory.
const AssetTypeDirectory = 64

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Manifest field numbers.
const (
	fieldManifestAssets protowire.Number = 1

	fieldAssetName  protowire.Number = 1
	fieldAssetChunk protowire.Number = 2
	fieldAssetType  protowire.Number = 3
	fieldAssetSize  protowire.Number = 4
	fieldAssetMD5   protowire.Number = 5

	fieldChunkName             protowire.Number = 1
	fieldChunkDecompressedMD5  protowire.Number = 2
	fieldChunkOffset           protowire.Number = 3
	fieldChunkSize             protowire.Number = 4
	fieldChunkDecompressedSize protowire.Number = 5
	fieldChunkCompressedMD5    protowire.Number = 7
)

// Manifest is a decoded chunk manifest.
type Manifest struct {
	Assets []Asset
}

// Asset is one file (or directory) of the build.
type Asset struct {
	Name   string
	Chunks []Chunk
	Type   uint64
	Size   uint64
	MD5    string
}

// IsDir reports whether the asset only creates a directory.
func (a Asset) IsDir() bool {
	return a.Type == AssetTypeDirectory
}

// Chunk is one zstd frame of an asset, written at Offset once decompressed.
type Chunk struct {
	Name             string
	DecompressedMD5  string
	Offset           uint64
	Size             uint64
	DecompressedSize uint64
	CompressedMD5    string
}

// TotalSize returns the decompressed size of every file asset.
func (m *Manifest) TotalSize() uint64 {
	var total uint64
	for _, a := range m.Assets {
		if !a.IsDir() {
			total += a.Size
		}
	}
	return total
}

// ReadManifest reads a manifest that may or may not be zstd-compressed.
func ReadManifest(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer dec.Close()
		if data, err = io.ReadAll(dec); err != nil {
			return nil, fmt.Errorf("failed to decompress manifest: %w", err)
		}
	}
	return ParseManifest(data)
}

// ParseManifest decodes an uncompressed manifest.
func ParseManifest(b []byte) (*Manifest, error) {
	m := &Manifest{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldManifestAssets || typ != protowire.BytesType {
			return -1, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		asset, err := parseAsset(v)
		if err != nil {
			return 0, err
		}
		m.Assets = append(m.Assets, asset)
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return m, nil
}

func parseAsset(b []byte) (Asset, error) {
	var a Asset
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldAssetName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			a.Name = v
			return n, nil
		case num == fieldAssetChunk && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			c, err := parseChunk(v)
			if err != nil {
				return 0, err
			}
			a.Chunks = append(a.Chunks, c)
			return n, nil
		case num == fieldAssetType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			a.Type = v
			return n, nil
		case num == fieldAssetSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			a.Size = v
			return n, nil
		case num == fieldAssetMD5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			a.MD5 = v
			return n, nil
		}
		return -1, nil
	})
	return a, err
}

func parseChunk(b []byte) (Chunk, error) {
	var c Chunk
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldChunkName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			c.Name = v
			return n, nil
		case num == fieldChunkDecompressedMD5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			c.DecompressedMD5 = v
			return n, nil
		case num == fieldChunkOffset && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			c.Offset = v
			return n, nil
		case num == fieldChunkSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			c.Size = v
			return n, nil
		case num == fieldChunkDecompressedSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			c.DecompressedSize = v
			return n, nil
		case num == fieldChunkCompressedMD5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			c.CompressedMD5 = v
			return n, nil
		}
		return -1, nil
	})
	return c, err
}

// walkFields calls fn for each field of a message. fn returns the number of
// value bytes it consumed, a negative protowire error code, or -1 to skip.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m == -1 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

// Marshal encodes the manifest in its uncompressed wire form.
func (m *Manifest) Marshal() []byte {
	var b []byte
	for _, a := range m.Assets {
		b = protowire.AppendTag(b, fieldManifestAssets, protowire.BytesType)
		b = protowire.AppendBytes(b, a.marshal())
	}
	return b
}

func (a Asset) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldAssetName, protowire.BytesType)
	b = protowire.AppendString(b, a.Name)
	for _, c := range a.Chunks {
		b = protowire.AppendTag(b, fieldAssetChunk, protowire.BytesType)
		b = protowire.AppendBytes(b, c.marshal())
	}
	if a.Type != 0 {
		b = protowire.AppendTag(b, fieldAssetType, protowire.VarintType)
		b = protowire.AppendVarint(b, a.Type)
	}
	b = protowire.AppendTag(b, fieldAssetSize, protowire.VarintType)
	b = protowire.AppendVarint(b, a.Size)
	if a.MD5 != "" {
		b = protowire.AppendTag(b, fieldAssetMD5, protowire.BytesType)
		b = protowire.AppendString(b, a.MD5)
	}
	return b
}

func (c Chunk) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldChunkName, protowire.BytesType)
	b = protowire.AppendString(b, c.Name)
	if c.DecompressedMD5 != "" {
		b = protowire.AppendTag(b, fieldChunkDecompressedMD5, protowire.BytesType)
		b = protowire.AppendString(b, c.DecompressedMD5)
	}
	b = protowire.AppendTag(b, fieldChunkOffset, protowire.VarintType)
	b = protowire.AppendVarint(b, c.Offset)
	b = protowire.AppendTag(b, fieldChunkSize, protowire.VarintType)
	b = protowire.AppendVarint(b, c.Size)
	b = protowire.AppendTag(b, fieldChunkDecompressedSize, protowire.VarintType)
	b = protowire.AppendVarint(b, c.DecompressedSize)
	if c.CompressedMD5 != "" {
		b = protowire.AppendTag(b, fieldChunkCompressedMD5, protowire.BytesType)
		b = protowire.AppendString(b, c.CompressedMD5)
	}
	return b
}
