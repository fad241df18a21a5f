// Package server is the UI bridge: a small REST API over the install store
// and a websocket carrying every bus event in both directions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/glorpus-work/gamekeep/internal/logger"
	"github.com/glorpus-work/gamekeep/pkg/events"
	"github.com/glorpus-work/gamekeep/pkg/model"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Engine is the part of the orchestrator the bridge controls.
type Engine interface {
	Cancel(installID string) bool
	Busy(installID string) bool
}

// InstallLister lists install records.
type InstallLister interface {
	ListInstalls() []model.Install
}

// Server serves the REST API and the event websocket.
type Server struct {
	bus      *events.Bus
	engine   Engine
	installs InstallLister
	router   *mux.Router
	upgrader websocket.Upgrader
}

// New creates a Server. Operations are triggered by publishing their start
// topic on bus, so the engine must be registered on the same bus.
func New(bus *events.Bus, engine Engine, installs InstallLister) *Server {
	s := &Server{
		bus:      bus,
		engine:   engine,
		installs: installs,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/installs", s.listInstalls).Methods(http.MethodGet)
	api.HandleFunc("/installs/{id}/cancel", s.cancel).Methods(http.MethodPost)
	api.HandleFunc("/installs/{id}/{kind}", s.start).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.websocket)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("UI bridge listening", logger.Fields{"address": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", logger.Fields{"error": err})
	}
}

func (s *Server) listInstalls(w http.ResponseWriter, _ *http.Request) {
	installs := s.installs.ListInstalls()
	if installs == nil {
		installs = []model.Install{}
	}
	writeJSON(w, http.StatusOK, installs)
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, ok := model.ParseKind(vars["kind"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown operation " + vars["kind"]})
		return
	}

	var payload model.DownloadPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}
	payload.Install = vars["id"]

	if s.engine.Busy(payload.Install) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "an operation is already running for " + payload.Install})
		return
	}
	if err := s.bus.Publish(kind.StartTopic(), payload); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"install": payload.Install, "operation": string(kind)})
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.engine.Cancel(id) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no running operation for " + id})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"install": id})
}
