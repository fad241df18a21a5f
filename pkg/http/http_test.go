package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Get(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		if r.URL.Path != "/list.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"resource":[]}`))
	}))
	defer srv.Close()

	hc := NewHTTPClient(Options{Timeout: time.Second, UserAgent: "gamekeep-test"})

	body, err := hc.Get(context.Background(), srv.URL+"/list.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"resource":[]}`, string(body))
	assert.Equal(t, "gamekeep-test", agent)

	_, err = hc.Get(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestHTTPClient_GetCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPClient(Options{}).Get(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, name, want string
	}{
		{"https://cdn.example.com/chunks", "abc_def", "https://cdn.example.com/chunks/abc_def"},
		{"https://cdn.example.com/chunks/", "abc_def", "https://cdn.example.com/chunks/abc_def"},
		{"https://cdn.example.com/res", "Data/a.blk", "https://cdn.example.com/res/Data/a.blk"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinURL(tt.base, tt.name))
	}
}
