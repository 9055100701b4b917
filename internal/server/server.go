// Package server accepts lecture protocol connections and runs one
// request per connection against the shared schedule.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/me/timetable/internal/logging"
)

// MaxRequestBytes caps a request line, newline included.
const MaxRequestBytes = 4096

// RequestTooLong is the reply to a request line over MaxRequestBytes.
const RequestTooLong = "Error: Request too long."

// Responder turns one request line into reply text.
type Responder interface {
	Respond(ctx context.Context, line string) string
}

// Server is the lecture protocol acceptor.
type Server struct {
	addr      string
	responder Responder
	events    logging.Sink
	logger    *slog.Logger

	mu        sync.Mutex
	listener  net.Listener
	startTime time.Time

	clients  atomic.Int64   // numbers connections Client-1, Client-2, ...
	inflight sync.WaitGroup // accept loop plus open connections
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithEvents sets the operator event sink.
func WithEvents(sink logging.Sink) Option {
	return func(s *Server) {
		s.events = sink
	}
}

// New creates a Server that will listen on addr once started.
func New(addr string, responder Responder, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		responder: responder,
		events:    logging.Discard,
		logger:    logger.With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listening socket and begins accepting in the background.
// Starting a running server is a no-op. A bind failure is reported to the
// event sink, returned, and leaves the server stopped.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.events.Event(fmt.Sprintf("Error: Could not start server on %s - %v", s.addr, err))
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.startTime = time.Now()
	s.events.Event(fmt.Sprintf("Server started on %s. Waiting for clients...", ln.Addr()))

	s.inflight.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Stop closes the listening socket. Connections already accepted finish on
// their own. Stopping a stopped server is a no-op.
func (s *Server) Stop() {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln == nil {
		return
	}
	if err := ln.Close(); err != nil {
		s.events.Event("Error: Could not close server socket - " + err.Error())
	}
	s.events.Event("Server stopped.")
}

// Wait blocks until the accept loop has exited and every accepted
// connection has been handled. Call it after Stop.
func (s *Server) Wait() {
	s.inflight.Wait()
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// Addr returns the bound address, or nil when stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Uptime returns how long the server has been accepting, 0 when stopped.
func (s *Server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	return time.Since(s.startTime)
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.inflight.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			current := s.listener == ln
			if current {
				s.listener = nil
			}
			s.mu.Unlock()

			// Stop closed the listener: normal exit.
			if !current {
				return
			}
			s.events.Event("Error: Server accept loop interrupted - " + err.Error())
			ln.Close()
			return
		}

		name := fmt.Sprintf("Client-%d (%s)", s.clients.Add(1), remoteHost(conn))
		s.events.Event("Connection accepted from " + name)

		s.inflight.Add(1)
		go s.handleConn(conn, name)
	}
}

// handleConn reads a single request line, replies, and closes.
func (s *Server) handleConn(conn net.Conn, name string) {
	logger := s.logger.With("conn_id", "conn_"+uuid.New().String()[:8], "client", name)
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("close", "error", err)
		}
		s.events.Event(name + " disconnected.")
		s.inflight.Done()
	}()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 512), MaxRequestBytes)
	if !sc.Scan() {
		switch err := sc.Err(); {
		case errors.Is(err, bufio.ErrTooLong):
			s.events.Event(fmt.Sprintf("Error handling %s: request exceeds %d bytes", name, MaxRequestBytes))
			io.WriteString(conn, RequestTooLong+"\n")
		case err != nil:
			s.events.Event(fmt.Sprintf("Error handling %s: %v", name, err))
		}
		return
	}
	request := sc.Text()
	s.events.Event(name + " >> " + request)

	start := time.Now()
	response := s.responder.Respond(context.Background(), request)
	logger.Debug("handled", "duration", time.Since(start).String())

	if _, err := io.WriteString(conn, response+"\n"); err != nil {
		s.events.Event(fmt.Sprintf("Error handling %s: %v", name, err))
		return
	}
	s.events.Event(name + " << " + strings.ReplaceAll(response, "\n", " | "))
}

func remoteHost(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
