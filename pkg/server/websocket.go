package server

import (
	"net/http"
	"time"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/events"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	eventBuffer = 256
)

// inbound lists the topics a client may publish.
func inbound(topic string) bool {
	if topic == model.TopicDialogDismiss {
		return true
	}
	_, ok := model.KindFromTopic(topic)
	return ok
}

// websocket streams every bus event to the client as a JSON frame and
// republishes the start and dialog_dismiss frames it receives.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", logger.Fields{"error": err})
		return
	}
	defer func() { _ = conn.Close() }()

	ch, stop := s.bus.Channel(eventBuffer)
	defer stop()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var ev events.Event
			if err := conn.ReadJSON(&ev); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn("Websocket read failed", logger.Fields{"error": err})
				}
				return
			}
			if !inbound(ev.Topic) {
				logger.Warn("Ignoring client event", logger.Fields{"topic": ev.Topic})
				continue
			}
			s.bus.Dispatch(ev)
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Warn("Websocket write failed", logger.Fields{"error": err})
				return
			}
		}
	}
}
