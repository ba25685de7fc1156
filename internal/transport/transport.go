// Package transport implements the request/response primitive every
// component in the system speaks: one JSON-encoded request per TCP
// connection, answered by one JSON-encoded response. A connection
// failure or timeout surfaces as an error and is treated by callers the
// same as an absent response.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// connDeadline bounds how long a server keeps a single connection open.
const connDeadline = 30 * time.Second

// Send delivers req to addr and waits for the response. The timeout
// covers dialing, writing and reading. Callers never block past it.
func Send(addr string, req Request, timeout time.Duration) (Response, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return Response{}, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline on %s: %w", addr, err)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send %s to %s: %w", req.Cmd, addr, err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read %s response from %s: %w", req.Cmd, addr, err)
	}
	return resp, nil
}

// Handler processes one request and produces its response. Handlers are
// invoked concurrently, one goroutine per connection, and must be safe
// under concurrent use.
type Handler interface {
	Handle(Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Request) Response

// Handle calls f(req).
func (f HandlerFunc) Handle(req Request) Response {
	return f(req)
}

// Server accepts connections and serves one request per connection.
type Server struct {
	addr    string
	handler Handler

	ln     net.Listener
	closed chan struct{}
	wg     sync.WaitGroup
}

// NewServer creates a server that will listen on addr. Use ":0" to let
// the kernel pick a port; Addr reports the bound address after Listen.
func NewServer(addr string, handler Handler) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		closed:  make(chan struct{}),
	}
}

// Listen binds the listening socket without accepting connections yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	return nil
}

// Serve starts the accept loop in a background goroutine. Listen must
// have succeeded first.
func (s *Server) Serve() {
	s.wg.Add(1)
	go s.acceptLoop()
}

// Start is Listen followed by Serve.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.Serve()
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Close stops accepting connections and waits for in-flight handlers.
func (s *Server) Close() {
	select {
	case <-s.closed:
		return
	default:
	}
	close(s.closed)
	if s.ln != nil {
		s.ln.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("accept failed", "addr", s.Addr(), "error", err)
			continue
		}

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(connDeadline))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		slog.Debug("malformed request", "remote", conn.RemoteAddr(), "error", err)
		json.NewEncoder(conn).Encode(InvalidCommand())
		return
	}

	resp := s.handler.Handle(req)

	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		slog.Debug("failed to write response", "remote", conn.RemoteAddr(), "cmd", req.Cmd, "error", err)
	}
}
