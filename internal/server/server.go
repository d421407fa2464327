// Package server exposes the matchmaking queue, match lifecycle and
// realtime event stream over HTTP and websockets.
package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/config"
	"github.com/kaspaclash/arena-server/internal/duel"
	"github.com/kaspaclash/arena-server/internal/matchmaking"
	"github.com/kaspaclash/arena-server/internal/notify"
)

// RatingSource resolves a player's current ladder rating.
type RatingSource interface {
	RatingOf(ctx context.Context, address string) (int, error)
}

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Queue   *matchmaking.Engine
	Matches *duel.Manager
	Ratings RatingSource
	Hub     *notify.Hub
}

// Server is the HTTP front of the arena.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// New assembles the router and wraps it in an http.Server.
func New(cfg config.ServerConfig, deps Deps, logger *zap.Logger) *Server {
	h := &handler{
		queue:   deps.Queue,
		matches: deps.Matches,
		ratings: deps.Ratings,
		hub:     deps.Hub,
		logger:  logger,
	}

	router := mux.NewRouter()
	router.Use(requestLogging(logger), recovery(logger))
	h.routes(router)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      c.Handler(router),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Handler exposes the assembled router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type handler struct {
	queue   *matchmaking.Engine
	matches *duel.Manager
	ratings RatingSource
	hub     *notify.Hub
	logger  *zap.Logger
}

func (h *handler) routes(r *mux.Router) {
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/characters", h.listCharacters).Methods(http.MethodGet)

	api.HandleFunc("/queue/join", h.queueJoin).Methods(http.MethodPost)
	api.HandleFunc("/queue/leave", h.queueLeave).Methods(http.MethodPost)
	api.HandleFunc("/queue/attempt", h.queueAttempt).Methods(http.MethodPost)

	api.HandleFunc("/rooms/create", h.createRoom).Methods(http.MethodPost)
	api.HandleFunc("/rooms/join", h.joinRoom).Methods(http.MethodPost)

	match := api.PathPrefix("/matches/{id}").Subrouter()
	match.HandleFunc("", h.matchState).Methods(http.MethodGet)
	match.HandleFunc("/stake", h.confirmStake).Methods(http.MethodPost)
	match.HandleFunc("/select", h.selectCharacter).Methods(http.MethodPost)
	match.HandleFunc("/move", h.submitMove).Methods(http.MethodPost)
	match.HandleFunc("/reject", h.rejectMove).Methods(http.MethodPost)
	match.HandleFunc("/forfeit", h.forfeit).Methods(http.MethodPost)
	match.HandleFunc("/disconnect", h.disconnect).Methods(http.MethodPost)
	match.HandleFunc("/reconnect", h.reconnect).Methods(http.MethodPost)
	match.HandleFunc("/timeout", h.claimTimeout).Methods(http.MethodPost)
	match.HandleFunc("/move-timeout", h.moveTimeout).Methods(http.MethodPost)
	match.HandleFunc("/events", h.subscribeEvents).Methods(http.MethodGet)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
