package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationKind_Topics(t *testing.T) {
	tests := []struct {
		kind     OperationKind
		start    string
		progress string
		complete string
	}{
		{OpInstall, "start_game_download", "download_progress", "download_complete"},
		{OpUpdate, "start_game_update", "update_progress", "update_complete"},
		{OpRepair, "start_game_repair", "repair_progress", "repair_complete"},
		{OpPreload, "start_game_preload", "preload_progress", "preload_complete"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.start, tt.kind.StartTopic())
			assert.Equal(t, tt.progress, tt.kind.ProgressTopic())
			assert.Equal(t, tt.complete, tt.kind.CompleteTopic())

			kind, ok := KindFromTopic(tt.start)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}

	_, ok := KindFromTopic("start_game_uninstall")
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("download")
	assert.True(t, ok)
	assert.Equal(t, OpInstall, k)

	k, ok = ParseKind(" Repair ")
	assert.True(t, ok)
	assert.Equal(t, OpRepair, k)

	_, ok = ParseKind("verify")
	assert.False(t, ok)
	assert.False(t, OperationKind("verify").Valid())
}

func TestDownloadPayload_UseLatest(t *testing.T) {
	var p DownloadPayload
	require.NoError(t, json.Unmarshal([]byte(`{"install":"I1","biz":"hk4e_global","lang":"en-us","region":"glb_official","is_latest":null}`), &p))
	assert.Equal(t, "I1", p.Install)
	assert.False(t, p.UseLatest())

	for _, v := range []string{"true", "1", "yes"} {
		v := v
		assert.True(t, DownloadPayload{IsLatest: &v}.UseLatest(), v)
	}
	for _, v := range []string{"false", "0", ""} {
		v := v
		assert.False(t, DownloadPayload{IsLatest: &v}.UseLatest(), v)
	}
}

func TestNewProgressPayload(t *testing.T) {
	p := NewProgressPayload("Genshin Impact 4.3.0", 0, 800)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Genshin Impact 4.3.0","progress":"0","total":"800"}`, string(data))

	big := NewProgressPayload("x", 1<<40, 1<<41)
	assert.Equal(t, "1099511627776", big.Progress)
}
