package raw

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
	"github.com/glorpus-work/gamekeep/pkg/transfer/archive"
	"github.com/glorpus-work/gamekeep/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resList(t *testing.T, files map[string][]byte, order ...string) []byte {
	t.Helper()
	var list ResourceList
	for _, name := range order {
		list.Resources = append(list.Resources, Resource{
			Dest: "/" + name,
			MD5:  testutil.MD5(files[name]),
			Size: uint64(len(files[name])),
		})
	}
	data, err := json.Marshal(list)
	require.NoError(t, err)
	return data
}

func newDownloader() *Downloader {
	fetcher := archive.NewDownloader(archive.Options{TickInterval: 10 * time.Millisecond})
	return NewDownloader(fetcher, 5*time.Second, "gamekeep-test")
}

func TestDownloadRaw(t *testing.T) {
	files := map[string][]byte{
		"Client/Binaries/Win64/Client-Win64-Shipping.exe": testutil.Bytes(700, 1),
		"Client/Content/Paks/pakchunk0.pak":               testutil.Bytes(300, 2),
	}
	order := []string{"Client/Binaries/Win64/Client-Win64-Shipping.exe", "Client/Content/Paks/pakchunk0.pak"}

	served := map[string][]byte{"resources.json": resList(t, files, order...)}
	for name, data := range files {
		served["zip/"+name] = data
	}
	srv := testutil.NewContentServer(t, served)
	dir := t.TempDir()

	var totals []uint64
	err := newDownloader().DownloadRaw(context.Background(), transfer.RawRequest{
		BaseURL:    srv.FileURL("zip"),
		ResListURL: srv.FileURL("resources.json"),
		TargetDir:  dir,
	}, func(_, total uint64) {
		if len(totals) == 0 || totals[len(totals)-1] != total {
			totals = append(totals, total)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{700, 300}, totals)

	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDownloadRaw_SkipsMatchingFiles(t *testing.T) {
	data := testutil.Bytes(128, 3)
	files := map[string][]byte{"a.pak": data}
	srv := testutil.NewContentServer(t, map[string][]byte{
		"resources.json": resList(t, files, "a.pak"),
		"zip/a.pak":      data,
	})
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.pak", data)

	req := transfer.RawRequest{BaseURL: srv.FileURL("zip"), ResListURL: srv.FileURL("resources.json"), TargetDir: dir}
	require.NoError(t, newDownloader().DownloadRaw(context.Background(), req, nil))
	assert.Equal(t, int64(1), srv.Hits())
}

func TestDownloadRaw_Failures(t *testing.T) {
	data := testutil.Bytes(64, 4)
	files := map[string][]byte{"a.pak": data, "b.pak": data}

	tests := []struct {
		name     string
		served   map[string][]byte
		wantItem string
	}{
		{
			name:     "missing list",
			served:   map[string][]byte{},
			wantItem: "resource list",
		},
		{
			name: "missing resource",
			served: map[string][]byte{
				"resources.json": resList(t, files, "a.pak", "b.pak"),
				"zip/a.pak":      data,
			},
			wantItem: "b.pak",
		},
		{
			name: "corrupt list",
			served: map[string][]byte{
				"resources.json": []byte("{not json"),
			},
			wantItem: "resource list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewContentServer(t, tt.served)
			err := newDownloader().DownloadRaw(context.Background(), transfer.RawRequest{
				BaseURL:    srv.FileURL("zip"),
				ResListURL: srv.FileURL("resources.json"),
				TargetDir:  t.TempDir(),
			}, nil)
			require.Error(t, err)
			item, ok := transfer.FailedItem(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantItem, item)
		})
	}
}

type failingFetcher struct{}

func (failingFetcher) Fetch(context.Context, transfer.FileRequest, transfer.ProgressFunc) error {
	return errors.New("boom")
}

func TestDownloadRaw_WrapsBareFetcherErrors(t *testing.T) {
	files := map[string][]byte{"a.pak": {1}}
	srv := testutil.NewContentServer(t, map[string][]byte{"resources.json": resList(t, files, "a.pak")})

	d := NewDownloader(failingFetcher{}, time.Second, "")
	err := d.DownloadRaw(context.Background(), transfer.RawRequest{
		BaseURL:    srv.URL,
		ResListURL: srv.FileURL("resources.json"),
		TargetDir:  t.TempDir(),
	}, nil)
	require.Error(t, err)
	item, _ := transfer.FailedItem(err)
	assert.Equal(t, "a.pak", item)
	assert.NotErrorIs(t, err, pkgerrors.ErrInvalidPath)
}

func TestDownloadRaw_RejectsEscapingDest(t *testing.T) {
	list, err := json.Marshal(ResourceList{Resources: []Resource{{Dest: "../../etc/passwd", Size: 1}}})
	require.NoError(t, err)
	srv := testutil.NewContentServer(t, map[string][]byte{"resources.json": list})

	err = newDownloader().DownloadRaw(context.Background(), transfer.RawRequest{
		BaseURL:    srv.URL,
		ResListURL: srv.FileURL("resources.json"),
		TargetDir:  t.TempDir(),
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidPath)
}
