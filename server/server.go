// Package server exposes the mixer over HTTP and streams its events over a
// websocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"whisperli/app"
	"whisperli/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server routes API requests to one App.
type Server struct {
	app      *app.App
	hub      *Hub
	router   *mux.Router
	upgrader websocket.Upgrader
}

// New builds the router. The hub does not deliver events until Run starts.
func New(a *app.App) *Server {
	s := &Server{
		app:    a,
		hub:    NewHub(a.Bus),
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(corsMiddleware, requestIDMiddleware)
	// preflight requests never reach the authenticated subrouters
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	api := r.PathPrefix("/api").Subrouter()
	ws := r.PathPrefix("/ws").Subrouter()
	if secret := s.app.Config.JWTSecret; secret != "" {
		api.Use(authMiddleware(secret))
		ws.Use(authMiddleware(secret))
	}

	api.HandleFunc("/tracks", s.ListTracksHandler).Methods(http.MethodGet)
	api.HandleFunc("/tracks", s.AddTrackHandler).Methods(http.MethodPost)
	api.HandleFunc("/tracks", s.RemoveTrackHandler).Methods(http.MethodDelete)
	api.HandleFunc("/tracks/state", s.UpdateTrackHandler).Methods(http.MethodPatch)
	api.HandleFunc("/tracks/toggle", s.ToggleTrackHandler).Methods(http.MethodPost)
	api.HandleFunc("/mixer/play-all", s.PlayAllHandler).Methods(http.MethodPost)
	api.HandleFunc("/mixer/clear", s.ClearHandler).Methods(http.MethodPost)

	api.HandleFunc("/sessions", s.ListSessionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{name}", s.GetSessionHandler).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{name}", s.SaveSessionHandler).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{name}", s.DeleteSessionHandler).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{name}/load", s.LoadSessionHandler).Methods(http.MethodPost)

	api.HandleFunc("/sounds", s.ListSoundsHandler).Methods(http.MethodGet)
	api.HandleFunc("/sounds/refresh", s.RefreshSoundsHandler).Methods(http.MethodPost)

	ws.HandleFunc("/events", s.EventsHandler).Methods(http.MethodGet)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves addr until ctx is cancelled, then shuts down
// gracefully within five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
