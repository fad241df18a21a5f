package postprocess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	old, diff, out string
}

// fakeRunner writes "<old content>+<diff content>" to the output path.
func fakeRunner(calls *[]call) Runner {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		if len(args) != 4 || args[0] != "-f" {
			return nil, errors.New("bad args")
		}
		c := call{old: args[1], diff: args[2], out: args[3]}
		*calls = append(*calls, c)

		diff, err := os.ReadFile(c.diff)
		if err != nil {
			return nil, err
		}
		if string(diff) == "FAIL" {
			return []byte("patch error: checksum"), errors.New("exit status 1")
		}
		var old []byte
		if c.old != "" {
			if old, err = os.ReadFile(c.old); err != nil {
				return nil, err
			}
		}
		return nil, os.WriteFile(c.out, append(append(old, '+'), diff...), 0o644)
	}
}

func newTestPatcher(t *testing.T, calls *[]call) *Patcher {
	t.Helper()
	toolDir := t.TempDir()
	testutil.WriteFile(t, toolDir, ToolName(), []byte("#!/bin/sh\n"))
	return NewPatcher(toolDir).WithRunner(fakeRunner(calls))
}

func readString(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestPatcher_ApplyInPlace(t *testing.T) {
	target := t.TempDir()
	staging := PatchingDir(target)
	testutil.WriteFile(t, target, "Client/Binaries/game.exe", []byte("v1"))
	testutil.WriteFile(t, target, "Client/obsolete.pak", []byte("x"))
	testutil.WriteFile(t, staging, "Client/Binaries/game.exe.krdiff", []byte("d1"))
	testutil.WriteFile(t, staging, "Client/new.pak", []byte("fresh"))
	testutil.WriteFile(t, staging, DeleteListName, []byte("Client/obsolete.pak\n\n/Client/already-gone.pak\n"))

	var calls []call
	err := newTestPatcher(t, &calls).Apply(context.Background(), PatchRequest{StagingDir: staging, TargetDir: target})
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, filepath.Join(target, "Client", "Binaries", "game.exe"), calls[0].old)
	assert.Equal(t, "v1+d1", readString(t, filepath.Join(target, "Client", "Binaries", "game.exe")))
	assert.Equal(t, "fresh", readString(t, filepath.Join(target, "Client", "new.pak")))
	assert.NoFileExists(t, filepath.Join(target, "Client", "obsolete.pak"))
	assert.NoFileExists(t, filepath.Join(target, "Client", "Binaries", "game.exe.patched"))
}

func TestPatcher_ApplyNewFileFromDiff(t *testing.T) {
	target := t.TempDir()
	staging := PatchingDir(target)
	testutil.WriteFile(t, staging, "added.bin.hdiff", []byte("d"))

	var calls []call
	require.NoError(t, newTestPatcher(t, &calls).Apply(context.Background(), PatchRequest{StagingDir: staging, TargetDir: target}))
	require.Len(t, calls, 1)
	assert.Equal(t, "", calls[0].old)
	assert.Equal(t, "+d", readString(t, filepath.Join(target, "added.bin")))
}

func TestPatcher_PreloadLeavesTargetUntouchedOnFailure(t *testing.T) {
	target := t.TempDir()
	staging := PatchingDir(target)
	testutil.WriteFile(t, target, "a.bin", []byte("a1"))
	testutil.WriteFile(t, target, "b.bin", []byte("b1"))
	testutil.WriteFile(t, staging, "a.bin.hdiff", []byte("da"))
	testutil.WriteFile(t, staging, "b.bin.hdiff", []byte("FAIL"))
	require.NoError(t, WritePreloadMarker(target))

	var calls []call
	err := newTestPatcher(t, &calls).Apply(context.Background(), PatchRequest{StagingDir: staging, TargetDir: target, Preload: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrPatchFailed)
	assert.True(t, strings.Contains(err.Error(), "checksum"))

	assert.Equal(t, "a1", readString(t, filepath.Join(target, "a.bin")))
	assert.Equal(t, "b1", readString(t, filepath.Join(target, "b.bin")))
}

func TestPatcher_PreloadCommitsAfterAllPatches(t *testing.T) {
	target := t.TempDir()
	staging := PatchingDir(target)
	testutil.WriteFile(t, target, "a.bin", []byte("a1"))
	testutil.WriteFile(t, staging, "a.bin.hdiff", []byte("da"))
	require.NoError(t, WritePreloadMarker(target))

	var calls []call
	err := newTestPatcher(t, &calls).Apply(context.Background(), PatchRequest{StagingDir: staging, TargetDir: target, Preload: true})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, filepath.Join(staging, "a.bin"), calls[0].out)
	assert.Equal(t, "a1+da", readString(t, filepath.Join(target, "a.bin")))
	assert.NoFileExists(t, filepath.Join(target, MarkerName))
}

func TestPatcher_MissingTool(t *testing.T) {
	target := t.TempDir()
	staging := PatchingDir(target)
	testutil.WriteFile(t, staging, "a.bin.hdiff", []byte("d"))

	err := NewPatcher(t.TempDir()).Apply(context.Background(), PatchRequest{StagingDir: staging, TargetDir: target})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrPatchFailed)
}

func TestPatcher_NoPatchesNeedsNoTool(t *testing.T) {
	target := t.TempDir()
	staging := PatchingDir(target)
	testutil.WriteFile(t, staging, "plain.txt", []byte("p"))

	err := NewPatcher(t.TempDir()).Apply(context.Background(), PatchRequest{StagingDir: staging, TargetDir: target})
	require.NoError(t, err)
	assert.Equal(t, "p", readString(t, filepath.Join(target, "plain.txt")))
}

func TestPatcher_DeleteListEscape(t *testing.T) {
	target := t.TempDir()
	staging := PatchingDir(target)
	testutil.WriteFile(t, staging, DeleteListName, []byte("../../etc/passwd\n"))

	err := NewPatcher(t.TempDir()).Apply(context.Background(), PatchRequest{StagingDir: staging, TargetDir: target})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidPath)
}

func TestIsPatch(t *testing.T) {
	assert.True(t, IsPatch("a.exe.hdiff"))
	assert.True(t, IsPatch("Client/x.pak.krdiff"))
	assert.False(t, IsPatch("a.exe"))
}

func TestPreloadMarker(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, HasPreloadMarker(dir))
	require.NoError(t, WritePreloadMarker(dir))
	assert.True(t, HasPreloadMarker(dir))
	require.NoError(t, RemovePatchingDir(dir))
	assert.False(t, HasPreloadMarker(dir))
	assert.NoDirExists(t, PatchingDir(dir))
}
