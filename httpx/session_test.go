package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dqx0.com/go/oneshot/internal/obs"
)

// scriptConn replays chunks, one per Read, then returns readErr (io.EOF
// when nil). Everything written lands in out.
type scriptConn struct {
	chunks   [][]byte
	readErr  error
	writeErr error
	reads    int
	out      bytes.Buffer
	deadline time.Time
}

func newScriptConn(chunks ...string) *scriptConn {
	c := &scriptConn{}
	for _, s := range chunks {
		c.chunks = append(c.chunks, []byte(s))
	}
	return c
}

func (c *scriptConn) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		if c.readErr != nil {
			return 0, c.readErr
		}
		return 0, io.EOF
	}
	c.reads++
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if len(c.chunks[0]) == 0 {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func (c *scriptConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	return c.out.Write(p)
}

func (c *scriptConn) SetReadDeadline(t time.Time) error {
	c.deadline = t
	return nil
}

type countingHandler struct {
	calls atomic.Int32
	last  Request
	h     HandlerFunc
}

func (c *countingHandler) Handle(ctx context.Context, r Request) Response {
	c.calls.Add(1)
	c.last = r
	if c.h != nil {
		return c.h(ctx, r)
	}
	return Response{Body: append([]byte("got:"), r.Body...)}
}

func TestSession_ChunkedArrival(t *testing.T) {
	raw := "POST /x HTTP/1.1\r\nHost: x\r\nContent-Length:5\r\n\r\nhello"
	var chunks []string
	for i := 0; i < len(raw); i += 3 {
		end := min(i+3, len(raw))
		chunks = append(chunks, raw[i:end])
	}
	c := newScriptConn(chunks...)
	h := &countingHandler{}
	s := &Server{Handler: h}

	require.NoError(t, s.ServeConn(context.Background(), c))
	require.EqualValues(t, 1, h.calls.Load())
	require.Equal(t, len(chunks), c.reads)
	require.Equal(t, MethodPost, h.last.Method)
	require.Equal(t, "/x", h.last.Target)
	require.Equal(t, "x", h.last.Header.Get("host"))
	require.Equal(t, "HTTP/1.0 200 OK\r\nContent-Length:9\r\n\r\ngot:hello", c.out.String())
}

func TestSession_StopsReadingAfterCompletion(t *testing.T) {
	c := newScriptConn("GET / HTTP/1.1\r\n\r\n", "GET /second HTTP/1.1\r\n\r\n")
	h := &countingHandler{}
	s := &Server{Handler: h}

	require.NoError(t, s.ServeConn(context.Background(), c))
	require.EqualValues(t, 1, h.calls.Load())
	require.Equal(t, 1, c.reads, "no read may happen after the response")
	require.Len(t, c.chunks, 1)
}

func TestSession_MalformedNotDispatched(t *testing.T) {
	c := newScriptConn("GIBBERISH / HTTP/1.1\r\n\r\n")
	h := &countingHandler{}
	m := obs.NewMemMeter()
	s := &Server{Handler: h, Meter: m}

	err := s.ServeConn(context.Background(), c)
	require.ErrorIs(t, err, ErrBadRequest)
	require.Zero(t, h.calls.Load())
	require.Zero(t, c.out.Len(), "no response by default")
	require.Equal(t, 1.0, m.CounterValue("httpx_malformed_total", obs.Label{Key: "reason", Value: "bad_request"}))
}

func TestSession_RejectMalformed(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		cfg    func(*Server)
		status string
	}{
		{"bad request", "GIBBERISH / HTTP/1.1\r\n\r\n", func(*Server) {}, "HTTP/1.0 400 Bad Request\r\n"},
		{"header too large", "GET / HTTP/1.1\r\nX: " + strings.Repeat("a", 64) + "\r\n\r\n", func(s *Server) { s.MaxHeaderBytes = 32 }, "HTTP/1.0 431 "},
		{"body too large", "POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\n", func(s *Server) { s.MaxBodyBytes = 10 }, "HTTP/1.0 413 "},
		{"chunked", "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n", func(*Server) {}, "HTTP/1.0 501 "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newScriptConn(tc.raw)
			h := &countingHandler{}
			s := &Server{Handler: h, RejectMalformed: true}
			tc.cfg(s)

			require.Error(t, s.ServeConn(context.Background(), c))
			require.Zero(t, h.calls.Load())
			require.True(t, strings.HasPrefix(c.out.String(), tc.status), "got %q", c.out.String())
			require.Contains(t, c.out.String(), "Content-Length:0\r\n\r\n")
		})
	}
}

func TestSession_EOFBeforeComplete(t *testing.T) {
	c := newScriptConn("GET / HTTP/1.1\r\nHost:")
	h := &countingHandler{}
	s := &Server{Handler: h, RejectMalformed: true}

	err := s.ServeConn(context.Background(), c)
	var op *OpError
	require.ErrorAs(t, err, &op)
	require.Equal(t, "read", op.Op)
	require.NotEmpty(t, op.RequestID)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Zero(t, h.calls.Load())
	require.Zero(t, c.out.Len())
}

func TestSession_ReadTimeout(t *testing.T) {
	c := newScriptConn("GET / HTTP/1.1\r\n")
	c.readErr = os.ErrDeadlineExceeded
	s := &Server{Handler: &countingHandler{}, ReadTimeout: time.Second, RejectMalformed: true}

	before := time.Now()
	err := s.ServeConn(context.Background(), c)
	require.ErrorIs(t, err, ErrTimeout)
	require.True(t, c.deadline.After(before), "read deadline was not armed")
	require.True(t, strings.HasPrefix(c.out.String(), "HTTP/1.0 408 Request Timeout\r\n"), "got %q", c.out.String())
}

func TestSession_WriteError(t *testing.T) {
	c := newScriptConn("GET / HTTP/1.1\r\n\r\n")
	c.writeErr = errors.New("broken pipe")
	h := &countingHandler{}
	m := obs.NewMemMeter()
	s := &Server{Handler: h, Meter: m}

	err := s.ServeConn(context.Background(), c)
	var op *OpError
	require.ErrorAs(t, err, &op)
	require.Equal(t, "write", op.Op)
	require.EqualValues(t, 1, h.calls.Load())
	require.Equal(t, 1.0, m.CounterValue("httpx_io_errors_total", obs.Label{Key: "op", Value: "write"}))
}

func TestSession_HandlerPanicRecovered(t *testing.T) {
	c := newScriptConn("GET / HTTP/1.1\r\n\r\n")
	h := &countingHandler{h: func(context.Context, Request) Response { panic("boom") }}
	s := &Server{Handler: h}

	err := s.ServeConn(context.Background(), c)
	require.ErrorIs(t, err, ErrHandlerPanic)
	require.Zero(t, c.out.Len())
}

func TestSession_ContextCarriesIDs(t *testing.T) {
	c := newScriptConn("GET / HTTP/1.1\r\nX-Request-Id: abc-123\r\n\r\n")
	var rid, cid string
	h := &countingHandler{h: func(ctx context.Context, _ Request) Response {
		rid, _ = RequestIDFrom(ctx)
		cid, _ = CorrelationIDFrom(ctx)
		return Response{}
	}}
	s := &Server{Handler: h}

	require.NoError(t, s.ServeConn(context.Background(), c))
	require.Len(t, rid, 36, "request id should be a uuid")
	require.Equal(t, "abc-123", cid)
}

func TestSession_NilHandlerRepliesEmpty(t *testing.T) {
	c := newScriptConn("GET / HTTP/1.1\r\n\r\n")
	s := &Server{}
	require.NoError(t, s.ServeConn(context.Background(), c))
	require.Equal(t, "HTTP/1.0 200 OK\r\nContent-Length:0\r\n\r\n", c.out.String())
}

func TestSession_Metrics(t *testing.T) {
	m := obs.NewMemMeter()
	s := &Server{Handler: &countingHandler{}, Meter: m}
	for _, raw := range []string{"GET / HTTP/1.1\r\n\r\n", "GET /a HTTP/1.1\r\n\r\n", "PATCH / HTTP/1.1\r\n\r\n"} {
		require.NoError(t, s.ServeConn(context.Background(), newScriptConn(raw)))
	}
	require.Equal(t, 3.0, m.CounterValue("httpx_sessions_total"))
	require.Equal(t, 2.0, m.CounterValue("httpx_requests_total", obs.Label{Key: "method", Value: "GET"}))
	require.Equal(t, 1.0, m.CounterValue("httpx_requests_total", obs.Label{Key: "method", Value: "OTHER"}))
	require.Len(t, m.Observations("httpx_session_seconds"), 3)
}
