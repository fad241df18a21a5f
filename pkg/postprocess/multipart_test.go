package postprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glorpus-work/gamekeep/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMultipart(t *testing.T) {
	assert.True(t, IsMultipart("GenshinImpact_4.3.0.zip.001"))
	assert.False(t, IsMultipart("GenshinImpact_4.3.0.zip.002"))
	assert.False(t, IsMultipart("GenshinImpact_4.3.0.zip"))

	assert.True(t, IsPart("a.zip.002"))
	assert.True(t, IsPart("a.zip.001"))
	assert.False(t, IsPart("a.zip.000"))
	assert.False(t, IsPart("a.zip"))
	assert.False(t, IsPart("a.7z"))

	assert.Equal(t, "a.zip", PartBase("a.zip.002"))
	assert.Equal(t, "data", PartBase("data.100"))
	assert.Equal(t, "a.7z", PartBase("a.7z"))
}

func TestPartsAndAssemble(t *testing.T) {
	dir := t.TempDir()
	p1 := testutil.WriteFile(t, dir, "game.zip.001", []byte("hello "))
	testutil.WriteFile(t, dir, "game.zip.002", []byte("split "))
	testutil.WriteFile(t, dir, "game.zip.003", []byte("world"))
	testutil.WriteFile(t, dir, "game.zip.005", []byte("orphan"))

	parts, err := Parts(p1)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, filepath.Join(dir, "game.zip.003"), parts[2])

	out := BaseName(p1)
	require.NoError(t, Assemble(parts, out))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello split world", string(got))

	// Assembling again yields the same archive.
	require.NoError(t, Assemble(parts, out))
	got, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello split world", string(got))
	assert.NoFileExists(t, out+".tmp")
}

func TestParts_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Parts(filepath.Join(dir, "game.zip"))
	assert.Error(t, err)

	_, err = Parts(filepath.Join(dir, "missing.zip.001"))
	assert.Error(t, err)
}

func TestAssemble_MissingPart(t *testing.T) {
	dir := t.TempDir()
	p1 := testutil.WriteFile(t, dir, "game.zip.001", []byte("a"))
	out := filepath.Join(dir, "game.zip")

	err := Assemble([]string{p1, filepath.Join(dir, "game.zip.002")}, out)
	require.Error(t, err)
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, out+".tmp")

	assert.Error(t, Assemble(nil, out))
}
