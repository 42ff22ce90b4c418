// internal/stream/subscriber.go
package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Subscriber is one open outbound streaming connection.
// The registry owns the live set; a subscriber is dropped the moment
// a Send fails. No subscriber state outlives its connection.
type Subscriber interface {
	ID() string
	Send(frame []byte) error
	Close() error
}

var errSubscriberClosed = errors.New("stream: subscriber closed")

// ---- SSE ----

// sseSubscriber streams frames over a chunked HTTP response.
// Writes are serialized; the HTTP handler blocks on done so the
// ResponseWriter stays valid until the registry lets go.
type sseSubscriber struct {
	id      string
	ctx     context.Context
	w       http.ResponseWriter
	flusher http.Flusher

	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newSSESubscriber(w http.ResponseWriter, r *http.Request) (*sseSubscriber, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("stream: response writer does not support flushing")
	}
	return &sseSubscriber{
		id:      uuid.NewString(),
		ctx:     r.Context(),
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}, nil
}

func (s *sseSubscriber) ID() string { return s.id }

func (s *sseSubscriber) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return errSubscriberClosed
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close releases the handler goroutine. Safe to call more than once.
func (s *sseSubscriber) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// wait blocks until the subscriber is closed by the registry.
func (s *sseSubscriber) wait() {
	<-s.done
}

// ---- WEBSOCKET ----

// wsSubscriber mirrors frames over a WebSocket connection.
type wsSubscriber struct {
	id   string
	ctx  context.Context
	conn *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
}

func newWSSubscriber(ctx context.Context, conn *websocket.Conn) *wsSubscriber {
	return &wsSubscriber{
		id:   uuid.NewString(),
		ctx:  ctx,
		conn: conn,
		done: make(chan struct{}),
	}
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(frame []byte) error {
	select {
	case <-s.done:
		return errSubscriberClosed
	default:
	}
	return s.conn.Write(s.ctx, websocket.MessageText, frame)
}

func (s *wsSubscriber) Close() error {
	s.closeOnce.Do(func() {
		_ = s.conn.Close(websocket.StatusNormalClosure, "closing")
		close(s.done)
	})
	return nil
}

func (s *wsSubscriber) wait() {
	<-s.done
}
