package testutil

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ContentServer serves in-memory files for transfer tests.
type ContentServer struct {
	*httptest.Server

	mu       sync.RWMutex
	files    map[string][]byte
	failures map[string]int
	hits     atomic.Int64
}

// NewContentServer starts a server serving files keyed by URL path
// (without the leading slash). It is closed when the test ends.
func NewContentServer(t *testing.T, files map[string][]byte) *ContentServer {
	t.Helper()

	cs := &ContentServer{
		files:    make(map[string][]byte, len(files)),
		failures: make(map[string]int),
	}
	for k, v := range files {
		cs.files[k] = v
	}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.serve))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *ContentServer) serve(w http.ResponseWriter, r *http.Request) {
	cs.hits.Add(1)
	name := strings.TrimPrefix(r.URL.Path, "/")

	cs.mu.Lock()
	if n := cs.failures[name]; n > 0 {
		cs.failures[name] = n - 1
		cs.mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	data, ok := cs.files[name]
	cs.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}

// Put adds or replaces a file.
func (cs *ContentServer) Put(name string, data []byte) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.files[name] = data
}

// FailNext makes the next n requests for name answer 503.
func (cs *ContentServer) FailNext(name string, n int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.failures[name] = n
}

// Hits returns the number of requests served.
func (cs *ContentServer) Hits() int64 {
	return cs.hits.Load()
}

// FileURL returns the absolute URL of name.
func (cs *ContentServer) FileURL(name string) string {
	return cs.URL + "/" + name
}

// MD5 returns the hex md5 digest of data.
func MD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Bytes returns n bytes of deterministic, non-repeating-looking content.
func Bytes(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31) ^ seed
	}
	return b
}

// WriteFile writes data to dir/name creating parents, failing the test on error.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
