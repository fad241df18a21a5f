package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glorpus-work/gamekeep/pkg/events"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	running map[string]bool
}

func (f *fakeEngine) Cancel(id string) bool {
	ok := f.running[id]
	delete(f.running, id)
	return ok
}

func (f *fakeEngine) Busy(id string) bool { return f.running[id] }

type fakeInstalls []model.Install

func (f fakeInstalls) ListInstalls() []model.Install { return f }

func newTestServer(t *testing.T, installs fakeInstalls) (*httptest.Server, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	s := New(bus, &fakeEngine{running: map[string]bool{"I1": true}}, installs)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, bus
}

func TestListInstalls(t *testing.T) {
	tests := []struct {
		name     string
		installs fakeInstalls
		want     string
	}{
		{"empty", nil, `[]`},
		{"one", fakeInstalls{{ID: "I1", ManifestID: "hk4e_global", Version: "4.2.0"}}, `[{"id":"I1","manifest_id":"hk4e_global","version":"4.2.0","name":"","directory":"","skip_hash_validation":false,"skip_version_update":false,"use_fps_unlock":false,"use_xxmi":false,"use_jadeite":false}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.installs)
			resp, err := http.Get(srv.URL + "/api/installs")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var got json.RawMessage
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestStartOperation(t *testing.T) {
	srv, bus := newTestServer(t, nil)

	got := make(chan events.Event, 1)
	bus.Subscribe(func(e events.Event) { got <- e }, "start_game_download")

	body := strings.NewReader(`{"biz":"hk4e_global","region":"glb_official","is_latest":"true"}`)
	resp, err := http.Post(srv.URL+"/api/installs/I2/download", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	ev := <-got
	var p model.DownloadPayload
	require.NoError(t, ev.Decode(&p))
	assert.Equal(t, "I2", p.Install)
	assert.Equal(t, "glb_official", p.Region)
	assert.True(t, p.UseLatest())
}

func TestStartOperation_Errors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/installs/I2/uninstall", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/installs/I2/update", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/installs/I1/update", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/installs/I1/update")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/installs/I1/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/installs/I1/cancel", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebsocket(t *testing.T) {
	srv, bus := newTestServer(t, nil)

	dismissed := make(chan events.Event, 4)
	bus.Subscribe(func(e events.Event) { dismissed <- e }, model.TopicDialogDismiss, "update_complete")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// Client frames with a server-side topic are dropped.
	require.NoError(t, conn.WriteJSON(map[string]any{"topic": "update_complete", "payload": map[string]string{}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"topic": model.TopicDialogDismiss, "payload": map[string]string{"id": "dialog-1"}}))

	select {
	case ev := <-dismissed:
		assert.Equal(t, model.TopicDialogDismiss, ev.Topic)
		var p model.DialogDismissPayload
		require.NoError(t, ev.Decode(&p))
		assert.Equal(t, "dialog-1", p.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("dismissal was not republished")
	}

	require.NoError(t, bus.Publish("update_progress", model.NewProgressPayload("Genshin Impact 4.3.0", 5, 10)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var ev events.Event
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Topic != "update_progress" {
			continue
		}
		assert.JSONEq(t, `{"name":"Genshin Impact 4.3.0","progress":"5","total":"10"}`, string(ev.Payload))
		break
	}
}
