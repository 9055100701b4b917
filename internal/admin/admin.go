// Package admin exposes the operator controls over HTTP: start and stop
// the lecture listener, read the event log, and inspect the current week.
package admin

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/timetable/internal/logging"
	"github.com/me/timetable/internal/schedule"
	"github.com/me/timetable/pkg/model"
)

// Listener is the part of the lecture server the operator controls.
type Listener interface {
	Start() error
	Stop()
	Running() bool
	Addr() net.Addr
	Uptime() time.Duration
}

// Server is the operator HTTP API.
type Server struct {
	router   chi.Router
	listener Listener
	store    *schedule.Store
	events   *logging.Recorder
	sink     logging.Sink
	clock    clock.Clock
	logger   *slog.Logger
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithEvents sends operator control calls to sink.
func WithEvents(sink logging.Sink) Option {
	return func(s *Server) {
		s.sink = sink
	}
}

// New creates the admin API. events may be nil when no recorder is kept.
func New(listener Listener, store *schedule.Store, events *logging.Recorder, clk clock.Clock, logger *slog.Logger, opts ...Option) *Server {
	if clk == nil {
		clk = clock.New()
	}
	s := &Server{
		router:   chi.NewRouter(),
		listener: listener,
		store:    store,
		events:   events,
		sink:     logging.Discard,
		clock:    clk,
		logger:   logger.With("component", "admin"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(withRequestID)
	r.Use(operatorLog(s.logger, s.sink))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/events", s.handleEvents)
		r.Route("/server", func(r chi.Router) {
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
		})
	})
}

type healthResponse struct {
	Running  bool   `json:"running"`
	Addr     string `json:"addr,omitempty"`
	Uptime   string `json:"uptime,omitempty"`
	Since    string `json:"since,omitempty"`
	Lectures int    `json:"lectures"`
}

func (s *Server) health() healthResponse {
	resp := healthResponse{
		Running:  s.listener.Running(),
		Lectures: s.store.Len(),
	}
	if addr := s.listener.Addr(); addr != nil {
		resp.Addr = addr.String()
	}
	if resp.Running {
		up := s.listener.Uptime()
		resp.Uptime = up.Round(time.Second).String()
		now := s.clock.Now()
		resp.Since = humanize.RelTime(now.Add(-up), now, "ago", "from now")
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), s.health())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if err := s.listener.Start(); err != nil {
		respondError(w, reqID, http.StatusConflict, "START_FAILED", err.Error())
		return
	}
	respondOK(w, reqID, s.health())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.listener.Stop()
	respondOK(w, RequestIDFromContext(r.Context()), s.health())
}

type eventsResponse struct {
	Events []string `json:"events"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, reqID, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	resp := eventsResponse{Events: []string{}}
	if s.events != nil {
		resp.Events = append(resp.Events, s.events.Tail(limit)...)
	}
	respondOK(w, reqID, resp)
}

type scheduleResponse struct {
	Monday   string          `json:"monday"`
	Friday   string          `json:"friday"`
	Lectures []model.Lecture `json:"lectures"`
	Summary  string          `json:"summary"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	monday, friday := schedule.WeekBounds(s.clock.Now())
	lectures, _ := s.store.Week(monday, friday)
	if lectures == nil {
		lectures = []model.Lecture{}
	}
	respondOK(w, RequestIDFromContext(r.Context()), scheduleResponse{
		Monday:   monday.Format(model.DateLayout),
		Friday:   friday.Format(model.DateLayout),
		Lectures: lectures,
		Summary:  humanize.Comma(int64(len(lectures))) + " " + plural(len(lectures), "lecture", "lectures") + " this week",
	})
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
