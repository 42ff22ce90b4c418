// internal/stream/server.go
package stream

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// Server accepts inbound HTTP connections and turns them into
// registry subscribers. GET on any path opens an event stream held
// open indefinitely; GET /ws upgrades to a WebSocket mirror of the
// same frames. The server never closes a stream itself: peer death is
// detected lazily on the next failed write.
type Server struct {
	registry *Registry
	mux      *http.ServeMux
	srv      *http.Server
	ln       net.Listener
}

func NewServer(registry *Registry) *Server {
	s := &Server{
		registry: registry,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/", s.handleStream)
}

// Handler exposes the mux, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start binds the port and serves in the background.
// Bind errors are returned synchronously.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("stream: listen on %d: %w", port, err)
	}

	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: streams stay open for the connection lifetime.
	}

	go func() {
		_ = s.srv.Serve(ln)
	}()

	return nil
}

// Close stops accepting connections and closes every open one.
// Idempotent; safe before Start.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	err := s.srv.Close()
	s.srv = nil
	s.ln = nil
	return err
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// handleStream serves the event stream on every GET, any path.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Content-Type", "text/event-stream")
	h.Set("Connection", "keep-alive")
	h.Set("Cache-Control", "no-cache")
	h.Set("Transfer-Encoding", "chunked")
	w.WriteHeader(http.StatusOK)

	sub, err := newSSESubscriber(w, r)
	if err != nil {
		return
	}
	sub.flusher.Flush()

	s.registry.Add(sub)

	// Hold the handler open so the ResponseWriter stays valid until
	// the registry drops the subscriber.
	sub.wait()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}

	sub := newWSSubscriber(r.Context(), conn)
	s.registry.Add(sub)
	sub.wait()
}
