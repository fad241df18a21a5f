package cli

import (
	"bytes"
	"testing"

	"github.com/glorpus-work/gamekeep/pkg/events"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_ProgressAndCompletion(t *testing.T) {
	bus := events.NewBus()
	var out bytes.Buffer
	r := newRenderer(&out, model.OpUpdate)
	detach := r.attach(bus)
	defer detach()

	require.NoError(t, bus.Publish(model.OpUpdate.ProgressTopic(), model.NewProgressPayload("Genshin Impact 4.3.0", 0, 1000)))
	require.NoError(t, bus.Publish(model.OpUpdate.ProgressTopic(), model.NewProgressPayload("Genshin Impact 4.3.0", 400, 800)))
	r.mu.Lock()
	require.NotNil(t, r.bar)
	assert.Equal(t, int64(800), r.total)
	r.mu.Unlock()

	// Other kinds are not rendered.
	require.NoError(t, bus.Publish(model.OpInstall.CompleteTopic(), model.CompletePayload{}))
	assert.Equal(t, 0, r.completions())

	require.NoError(t, bus.Publish(model.OpUpdate.CompleteTopic(), model.CompletePayload{Name: "Genshin Impact 4.3.0"}))
	require.NoError(t, bus.Publish(model.TopicNotification, model.NotificationPayload{Body: "Genshin Impact 4.3.0 updated successfully."}))

	assert.Equal(t, 1, r.completions())
	assert.Contains(t, out.String(), "Genshin Impact 4.3.0 updated successfully.")
	r.mu.Lock()
	assert.Nil(t, r.bar)
	r.mu.Unlock()
}

func TestRenderer_IgnoresMalformedProgress(t *testing.T) {
	bus := events.NewBus()
	var out bytes.Buffer
	r := newRenderer(&out, model.OpRepair)
	defer r.attach(bus)()

	require.NoError(t, bus.Publish(model.OpRepair.ProgressTopic(), model.ProgressPayload{Name: "x", Progress: "a", Total: "b"}))
	r.mu.Lock()
	assert.Nil(t, r.bar)
	r.mu.Unlock()
}

func TestRenderer_DismissesErrorDialogs(t *testing.T) {
	bus := events.NewBus()
	var out bytes.Buffer
	r := newRenderer(&out, model.OpInstall)
	defer r.attach(bus)()

	var dismissed []string
	stop := bus.Subscribe(func(e events.Event) {
		var p model.DialogDismissPayload
		require.NoError(t, e.Decode(&p))
		dismissed = append(dismissed, p.ID)
	}, model.TopicDialogDismiss)
	defer stop()

	require.NoError(t, bus.Publish(model.TopicErrorDialog, model.ErrorDialogPayload{ID: "d1", Message: "Failed to install Genshin Impact: boom."}))

	assert.Equal(t, []string{"d1"}, dismissed)
	assert.Contains(t, out.String(), "Error: Failed to install Genshin Impact: boom.")
}

func TestOperationFlags_Payload(t *testing.T) {
	p := operationFlags{biz: "hk4e_global", region: "os_usa", latest: true}.payload("gi")
	assert.Equal(t, "gi", p.Install)
	assert.Equal(t, "os_usa", p.Region)
	assert.True(t, p.UseLatest())

	assert.False(t, operationFlags{}.payload("gi").UseLatest())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
