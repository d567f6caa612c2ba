package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"dqx0.com/go/oneshot/httpx/internal/http1"
)

const readBufferSize = 8 << 10

// Conn is the transport of a single session. A net.Conn satisfies it; when
// the value also has SetReadDeadline/SetWriteDeadline the server's
// timeouts are applied.
type Conn interface {
	io.Reader
	io.Writer
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// session drives one connection: read until the parser has a complete
// request, run the handler once, write the response.
type session struct {
	srv    *Server
	conn   Conn
	id     string
	parser *http1.Parser
	buf    [readBufferSize]byte

	req    Request
	gotReq bool
}

func newSession(srv *Server, c Conn) *session {
	return &session{
		srv:  srv,
		conn: c,
		id:   genID(),
		parser: http1.NewParser(http1.Limits{
			MaxHeaderBytes: srv.MaxHeaderBytes,
			MaxBodyBytes:   srv.MaxBodyBytes,
		}),
	}
}

func (s *session) run(ctx context.Context) error {
	req, err := s.readRequest()
	if err != nil {
		s.refuse(err)
		return err
	}
	s.req, s.gotReq = req, true

	ctx = WithRequestID(ctx, s.id)
	if cid := req.Header.Get("X-Request-Id"); cid != "" {
		ctx = WithCorrelationID(ctx, cid)
	}
	resp, err := s.dispatch(ctx, req)
	if err != nil {
		return err
	}
	return s.write(resp.Bytes())
}

// readRequest reads and feeds until the parser reports a complete message.
func (s *session) readRequest() (Request, error) {
	for {
		s.armRead()
		n, rerr := s.conn.Read(s.buf[:])
		if n > 0 {
			if !s.parser.Feed(s.buf[:n]) {
				return Request{}, s.parser.Err()
			}
			if s.parser.IsComplete() {
				pr, err := s.parser.ExtractRequest()
				if err != nil {
					return Request{}, err
				}
				return newRequest(pr), nil
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				rerr = io.ErrUnexpectedEOF
			}
			return Request{}, s.opError("read", rerr)
		}
	}
}

func (s *session) dispatch(ctx context.Context, req Request) (resp Response, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, v)
		}
	}()
	h := s.srv.Handler
	if h == nil {
		return Response{}, nil
	}
	return h.Handle(ctx, req), nil
}

func (s *session) write(b []byte) error {
	if wd, ok := s.conn.(writeDeadliner); ok && s.srv.WriteTimeout > 0 {
		_ = wd.SetWriteDeadline(time.Now().Add(s.srv.WriteTimeout))
	}
	if _, err := s.conn.Write(b); err != nil {
		return s.opError("write", err)
	}
	return nil
}

// refuse answers a request the parser rejected, when the server is
// configured to. Transport failures other than a read timeout get no reply.
func (s *session) refuse(err error) {
	if !s.srv.RejectMalformed {
		return
	}
	status := http1.StatusFor(err)
	var op *OpError
	if errors.As(err, &op) {
		if !errors.Is(err, ErrTimeout) || op.Op != "read" {
			return
		}
		status = 408
	}
	_ = s.write(http1.AppendStatus(nil, status))
}

func (s *session) armRead() {
	if rd, ok := s.conn.(readDeadliner); ok && s.srv.ReadTimeout > 0 {
		_ = rd.SetReadDeadline(time.Now().Add(s.srv.ReadTimeout))
	}
}

func (s *session) opError(op string, err error) *OpError {
	if isTimeout(err) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &OpError{Op: op, RequestID: s.id, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
