package httpx

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"dqx0.com/go/oneshot/internal/obs"
)

// Handler produces the response for a request. It is called at most once
// per connection and only with a completely received request.
type Handler interface {
	Handle(ctx context.Context, r Request) Response
}

type HandlerFunc func(ctx context.Context, r Request) Response

func (f HandlerFunc) Handle(ctx context.Context, r Request) Response {
	return f(ctx, r)
}

// Server serves exactly one request per accepted connection and then
// closes it.
type Server struct {
	Addr    string
	Handler Handler

	// ReadTimeout bounds each read while a request is still incomplete.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	MaxHeaderBytes int
	MaxBodyBytes   int64

	// RejectMalformed makes the server answer unparseable or oversized
	// requests with a 4xx/5xx status before closing. By default the
	// connection is closed without a response.
	RejectMalformed bool

	Logger obs.Logger
	Meter  obs.Meter

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	conns     map[net.Conn]struct{}
	closed    bool
	wg        sync.WaitGroup
}

func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = ":4000"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on l and serves each on its own goroutine.
// It returns ErrServerClosed after Shutdown.
func (s *Server) Serve(l net.Listener) error {
	if !s.trackListener(l, true) {
		l.Close()
		return ErrServerClosed
	}
	defer s.trackListener(l, false)
	defer l.Close()
	for {
		c, err := l.Accept()
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			s.logf(obs.Warn, "accept on %s: %v", l.Addr(), err)
			return err
		}
		if !s.trackConn(c) {
			c.Close()
			return ErrServerClosed
		}
		go s.serveConn(c)
	}
}

func (s *Server) serveConn(c net.Conn) {
	defer s.wg.Done()
	defer s.untrackConn(c)
	defer c.Close()
	_ = s.ServeConn(context.Background(), c)
}

// ServeConn runs one session on c and reports how it ended. It does not
// close c.
func (s *Server) ServeConn(ctx context.Context, c Conn) error {
	start := time.Now()
	sess := newSession(s, c)
	m := s.meter()
	m.Counter("httpx_sessions_total", 1)

	err := sess.run(ctx)

	m.Histogram("httpx_session_seconds", time.Since(start).Seconds())
	if sess.gotReq {
		m.Counter("httpx_requests_total", 1, obs.Label{Key: "method", Value: sess.req.Method.String()})
	}
	var op *OpError
	switch {
	case err == nil:
		s.logf(obs.Debug, "[%s] %s %s served in %s", sess.id, sess.req.RawMethod, sess.req.Target, time.Since(start))
	case errors.As(err, &op):
		m.Counter("httpx_io_errors_total", 1, obs.Label{Key: "op", Value: op.Op})
		s.logf(obs.Warn, "%v", err)
	case errors.Is(err, ErrHandlerPanic):
		s.logf(obs.Error, "[%s] %s %s: %v", sess.id, sess.req.RawMethod, sess.req.Target, err)
	default:
		m.Counter("httpx_malformed_total", 1, obs.Label{Key: "reason", Value: malformedReason(err)})
		s.logf(obs.Info, "[%s] rejected request: %v", sess.id, err)
	}
	return err
}

// Shutdown stops accepting, then waits for in-flight sessions to finish.
// If ctx ends first the remaining connections are closed and ctx's error
// is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for l := range s.listeners {
		l.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

func (s *Server) trackListener(l net.Listener, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !add {
		delete(s.listeners, l)
		return true
	}
	if s.closed {
		return false
	}
	if s.listeners == nil {
		s.listeners = make(map[net.Listener]struct{})
	}
	s.listeners[l] = struct{}{}
	return true
}

func (s *Server) trackConn(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrackConn(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) shuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) logf(level obs.Level, format string, args ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Logf(level, format, args...)
}

func (s *Server) meter() obs.Meter {
	if s.Meter == nil {
		return obs.NopMeter{}
	}
	return s.Meter
}

func malformedReason(err error) string {
	switch {
	case errors.Is(err, ErrHeaderTooLarge):
		return "header_too_large"
	case errors.Is(err, ErrBodyTooLarge):
		return "body_too_large"
	case errors.Is(err, ErrUnsupportedFraming):
		return "unsupported_framing"
	default:
		return "bad_request"
	}
}
