package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishFiltersTopics(t *testing.T) {
	bus := NewBus()

	var got []string
	unsubscribe := bus.Subscribe(func(e Event) { got = append(got, e.Topic) }, "download_progress", "download_complete")

	require.NoError(t, bus.Publish("download_progress", model.NewProgressPayload("GI", 0, 10)))
	require.NoError(t, bus.Publish("update_progress", nil))
	require.NoError(t, bus.Publish("download_complete", model.CompletePayload{Name: "GI"}))

	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.Publish("download_complete", nil))

	assert.Equal(t, []string{"download_progress", "download_complete"}, got)
}

func TestBus_WildcardAndOrder(t *testing.T) {
	bus := NewBus()

	var got []int
	bus.Subscribe(func(e Event) { got = append(got, 1) })
	bus.Subscribe(func(e Event) { got = append(got, 2) })

	require.NoError(t, bus.Publish("anything", nil))
	assert.Equal(t, []int{1, 2}, got)
}

func TestBus_Decode(t *testing.T) {
	bus := NewBus()

	var payload model.ProgressPayload
	bus.Subscribe(func(e Event) { require.NoError(t, e.Decode(&payload)) }, "repair_progress")

	require.NoError(t, bus.Publish("repair_progress", model.NewProgressPayload("HSR", 5, 9)))
	assert.Equal(t, model.ProgressPayload{Name: "HSR", Progress: "5", Total: "9"}, payload)

	bad := Event{Topic: "x", Payload: json.RawMessage("{")}
	assert.Error(t, bad.Decode(&payload))
}

func TestBus_Channel(t *testing.T) {
	bus := NewBus()
	ch, stop := bus.Channel(4, "preload_complete")

	require.NoError(t, bus.Publish("preload_complete", model.CompletePayload{Name: "ZZZ"}))

	select {
	case e := <-ch:
		assert.Equal(t, "preload_complete", e.Topic)
		assert.JSONEq(t, `{"name":"ZZZ"}`, string(e.Payload))
	case <-time.After(time.Second):
		t.Fatal("expected event on channel")
	}

	stop()
	require.NoError(t, bus.Publish("preload_complete", nil))
	assert.Len(t, ch, 0)
}

func TestBus_ChannelStopUnblocksPublisher(t *testing.T) {
	bus := NewBus()
	_, stop := bus.Channel(0, "t")

	published := make(chan struct{})
	go func() {
		_ = bus.Publish("t", nil)
		close(published)
	}()

	time.Sleep(20 * time.Millisecond)
	stop()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after stop")
	}
}

func TestDialog_ConfirmErrorWaitsForDismiss(t *testing.T) {
	bus := NewBus()
	dialog := NewDialog(bus)

	var shown model.ErrorDialogPayload
	var mu sync.Mutex
	bus.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, e.Decode(&shown))
		go func(id string) {
			time.Sleep(10 * time.Millisecond)
			_ = bus.Publish(model.TopicDialogDismiss, model.DialogDismissPayload{ID: "other"})
			_ = bus.Publish(model.TopicDialogDismiss, model.DialogDismissPayload{ID: id})
		}(shown.ID)
	}, model.TopicErrorDialog)

	err := dialog.ConfirmError(context.Background(), "Error occurred while downloading data_3.pck")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Error occurred while downloading data_3.pck", shown.Message)
}

func TestDialog_ConfirmErrorContextCancel(t *testing.T) {
	bus := NewBus()
	dialog := NewDialog(bus)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := dialog.ConfirmError(ctx, "never dismissed")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAutoDismissAndNotifier(t *testing.T) {
	bus := NewBus()

	var messages []string
	stop := AutoDismiss(bus, func(m string) { messages = append(messages, m) })
	defer stop()

	require.NoError(t, NewDialog(bus).ConfirmError(context.Background(), "boom"))
	assert.Equal(t, []string{"boom"}, messages)

	ch, stopCh := bus.Channel(1, model.TopicNotification)
	defer stopCh()
	NewNotifier(bus).Notify("Update complete")

	e := <-ch
	var n model.NotificationPayload
	require.NoError(t, e.Decode(&n))
	assert.Equal(t, "Update complete", n.Body)
}
