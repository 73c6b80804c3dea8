package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"fill-the-blank/internal/config"
	"fill-the-blank/internal/game"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	cfg      config.Config
	catalog  Catalog
	limiter  *rateLimiter
	roomOpts []game.Option
}

// New builds a server. A nil conn runs everything in memory with the card
// catalog read from CardsPath or the built-in starter deck.
func New(conn *gorm.DB, cfg config.Config) *Server {
	registerValidators()
	s := &Server{
		store:   NewStore(),
		db:      conn,
		ws:      newWSHub(),
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	}
	if conn != nil {
		s.catalog = dbCatalog{conn: conn}
		return s
	}
	catalog, err := newStaticCatalog(cfg.CardsPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.CardsPath).Msg("card file unreadable, using starter deck")
		catalog, _ = newStaticCatalog("")
	}
	s.catalog = catalog
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHome)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("GET /ws/rooms/", s.handleWebsocket)
	return s.logRequests(s.limitRequests(mux))
}

// Close stops every room actor. Committed state is already durable.
func (s *Server) Close() {
	s.store.closeAll()
}

func (s *Server) room(id string) (*roomActor, bool) {
	return s.store.get(normalizeRoomCode(id))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(started)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
