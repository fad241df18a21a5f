package sophon

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/glorpus-work/gamekeep/internal/logger"
	pkgerrors "github.com/glorpus-work/gamekeep/pkg/errors"
	"github.com/glorpus-work/gamekeep/pkg/fsutil"
	httpclient "github.com/glorpus-work/gamekeep/pkg/http"
	"github.com/glorpus-work/gamekeep/pkg/transfer"
	"github.com/klauspost/compress/zstd"
)

// Options configure a Downloader.
type Options struct {
	Concurrency int
	Retries     int
	Timeout     time.Duration
	UserAgent   string
}

// Downloader materialises chunk manifests.
type Downloader struct {
	client      httpclient.Client
	concurrency int
	retries     int
}

// NewDownloader creates a Downloader.
func NewDownloader(opts Options) *Downloader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   opts.Concurrency * 2,
		MaxConnsPerHost:       opts.Concurrency * 2,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}

	return &Downloader{
		client:      httpclient.NewHTTPClient(httpclient.Options{UserAgent: opts.UserAgent, Transport: transport}),
		concurrency: opts.Concurrency,
		retries:     opts.Retries,
	}
}

var _ transfer.ChunkDownloader = (*Downloader)(nil)

type fileState struct {
	asset     Asset
	path      string
	tmp       string
	remaining int
}

type chunkJob struct {
	file  *fileState
	chunk Chunk
}

type chunkResult struct {
	job chunkJob
	err error
}

// DownloadChunks fetches the manifest at req.ManifestURL and writes every
// asset it lists under req.TargetDir. Files already matching their size and
// md5 are skipped unless req.SkipHash is set. Progress counts decompressed
// bytes against the manifest's total size.
func (d *Downloader) DownloadChunks(ctx context.Context, req transfer.ChunkRequest, progress transfer.ProgressFunc) error {
	if progress == nil {
		progress = transfer.Nop
	}

	manifest, err := d.FetchManifest(ctx, req.ManifestURL)
	if err != nil {
		return err
	}

	total := manifest.TotalSize()
	var done uint64
	progress(done, total)

	pending, err := d.prepare(req, manifest, &done)
	if err != nil {
		return err
	}
	progress(done, total)

	if len(pending) == 0 {
		return nil
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan chunkJob)
	results := make(chan chunkResult)

	var wg sync.WaitGroup
	for i := 0; i < d.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				results <- chunkResult{job: job, err: d.fetchChunk(ctx, dec, req.ChunkBaseURL, job, id)}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, f := range pending {
			for _, c := range f.asset.Chunks {
				select {
				case jobs <- chunkJob{file: f, chunk: c}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for r := range results {
		if firstErr != nil {
			continue
		}
		if r.err != nil {
			firstErr = &transfer.ItemError{Item: r.job.file.asset.Name, Err: fmt.Errorf("%w: %w", pkgerrors.ErrTransferFailed, r.err)}
			cancel()
			continue
		}

		done += r.job.chunk.DecompressedSize
		progress(done, total)

		r.job.file.remaining--
		if r.job.file.remaining == 0 {
			if err := finishFile(r.job.file); err != nil {
				firstErr = &transfer.ItemError{Item: r.job.file.asset.Name, Err: fmt.Errorf("%w: %w", pkgerrors.ErrTransferFailed, err)}
				cancel()
			}
		}
	}

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// FetchManifest downloads and decodes a chunk manifest.
func (d *Downloader) FetchManifest(ctx context.Context, url string) (*Manifest, error) {
	body, err := d.client.Get(ctx, url)
	if err != nil {
		return nil, &transfer.ItemError{Item: "manifest", Err: fmt.Errorf("%w: %w", pkgerrors.ErrTransferFailed, err)}
	}
	m, err := ReadManifest(bytes.NewReader(body))
	if err != nil {
		return nil, &transfer.ItemError{Item: "manifest", Err: err}
	}
	logger.Debug("Chunk manifest decoded", logger.Fields{"url": url, "assets": len(m.Assets)})
	return m, nil
}

// prepare creates directories and temp files, and returns the assets that
// still need their chunks. Bytes of skipped assets are added to done.
func (d *Downloader) prepare(req transfer.ChunkRequest, m *Manifest, done *uint64) ([]*fileState, error) {
	var pending []*fileState
	for _, a := range m.Assets {
		path, err := fsutil.SafeJoin(req.TargetDir, a.Name)
		if err != nil {
			return nil, &transfer.ItemError{Item: a.Name, Err: err}
		}

		if a.IsDir() {
			if err := fsutil.EnsureDir(path); err != nil {
				return nil, &transfer.ItemError{Item: a.Name, Err: err}
			}
			continue
		}

		if !req.SkipHash && fsutil.MatchesFile(path, a.Size, a.MD5) {
			logger.Debug("Asset already up to date", logger.Fields{"asset": a.Name})
			*done += a.Size
			continue
		}

		f := &fileState{asset: a, path: path, tmp: path + ".tmp", remaining: len(a.Chunks)}
		if err := createSparse(f.tmp, a.Size); err != nil {
			return nil, &transfer.ItemError{Item: a.Name, Err: err}
		}
		if f.remaining == 0 {
			if err := finishFile(f); err != nil {
				return nil, &transfer.ItemError{Item: a.Name, Err: err}
			}
			continue
		}
		pending = append(pending, f)
	}
	return pending, nil
}

func (d *Downloader) fetchChunk(ctx context.Context, dec *zstd.Decoder, base string, job chunkJob, worker int) error {
	url := httpclient.JoinURL(base, job.chunk.Name)

	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		data, err := d.getChunk(ctx, dec, url, job.chunk)
		if err == nil {
			return writeAt(job.file.tmp, data, job.chunk.Offset)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
		if attempt < d.retries {
			logger.Warn("Chunk download failed, retrying", logger.Fields{
				"worker":  worker,
				"chunk":   job.chunk.Name,
				"attempt": attempt,
				"error":   err,
			})
		}
	}
	return fmt.Errorf("chunk %s: %w", job.chunk.Name, lastErr)
}

func (d *Downloader) getChunk(ctx context.Context, dec *zstd.Decoder, url string, c Chunk) ([]byte, error) {
	compressed, err := d.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if c.CompressedMD5 != "" && !md5Equal(compressed, c.CompressedMD5) {
		return nil, fmt.Errorf("%w: compressed chunk %s", pkgerrors.ErrHashMismatch, c.Name)
	}

	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress chunk %s: %w", c.Name, err)
	}
	if c.DecompressedSize != 0 && uint64(len(data)) != c.DecompressedSize {
		return nil, fmt.Errorf("%w: chunk %s is %d bytes, want %d", pkgerrors.ErrHashMismatch, c.Name, len(data), c.DecompressedSize)
	}
	if c.DecompressedMD5 != "" && !md5Equal(data, c.DecompressedMD5) {
		return nil, fmt.Errorf("%w: chunk %s", pkgerrors.ErrHashMismatch, c.Name)
	}
	return data, nil
}

func createSparse(path string, size uint64) error {
	if err := fsutil.EnsureFileDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return err
	}
	if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeAt(path string, data []byte, offset uint64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, fsutil.FileModeDefault)
	if err != nil {
		return err
	}
	if _, err := f.WriteAt(data, int64(offset)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write at offset %d: %w", offset, err)
	}
	return f.Close()
}

func finishFile(f *fileState) error {
	if f.asset.MD5 != "" {
		sum, err := fsutil.FileMD5(f.tmp)
		if err != nil {
			return err
		}
		if !strings.EqualFold(sum, f.asset.MD5) {
			_ = os.Remove(f.tmp)
			return fmt.Errorf("%w: %s", pkgerrors.ErrHashMismatch, f.asset.Name)
		}
	}
	if err := os.Rename(f.tmp, f.path); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", f.asset.Name, err)
	}
	return nil
}

func md5Equal(data []byte, want string) bool {
	sum := md5.Sum(data)
	return strings.EqualFold(hex.EncodeToString(sum[:]), want)
}
