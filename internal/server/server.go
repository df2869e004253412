package server

import (
	"net/http"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"pixel-plagiarist/internal/config"
	"pixel-plagiarist/internal/timer"
)

type Server struct {
	registry *Registry
	db       *gorm.DB
	cfg      config.Config
	timers   *timer.Scheduler
	events   Broadcaster
	blank    BlankDetector
	prompts  []string
	hub      *wsHub
	log      zerolog.Logger
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "server").Logger()
	s := newServer(conn, cfg, clockwork.NewRealClock(), logger)
	s.hub = newWSHub(s)
	s.events = s.hub
	return s
}

// newServer wires everything except the websocket hub, which tests
// replace with a recording broadcaster.
func newServer(conn *gorm.DB, cfg config.Config, clock clockwork.Clock, logger zerolog.Logger) *Server {
	s := &Server{
		registry: NewRegistry(cfg),
		db:       conn,
		cfg:      cfg,
		timers:   timer.NewScheduler(clock),
		blank:    NewBlankDetector(),
		prompts:  loadPrompts(conn),
		log:      logger,
	}
	s.registry.EnsureOpenRooms()
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/players/{id}", s.handlePlayerStats)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	return mux
}

// Shutdown stops all pending timers. In-memory game state is not
// persisted across restarts.
func (s *Server) Shutdown() {
	s.timers.StopAll()
}

func (s *Server) now() time.Time {
	return s.timers.Clock().Now().UTC()
}
