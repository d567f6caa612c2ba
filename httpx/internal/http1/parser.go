package http1

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest         = errors.New("http1: malformed request")
	ErrHeaderTooLarge     = errors.New("http1: header too large")
	ErrBodyTooLarge       = errors.New("http1: body too large")
	ErrUnsupportedFraming = errors.New("http1: unsupported body framing")
	ErrIncomplete         = errors.New("http1: request not complete")
	ErrConsumed           = errors.New("http1: request already extracted")
)

const (
	DefaultMaxHeaderBytes = 8 << 10
	DefaultMaxBodyBytes   = 1 << 20
)

// Request is a fully received request as it appeared on the wire.
// Header keys are canonical MIME keys; a repeated field keeps its last value.
type Request struct {
	Method string
	Target string
	Proto  string
	Header map[string]string
	Body   []byte
}

// Limits bounds how much a single request may buffer. Zero values select
// the defaults.
type Limits struct {
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

func (l Limits) header() int {
	if l.MaxHeaderBytes <= 0 {
		return DefaultMaxHeaderBytes
	}
	return l.MaxHeaderBytes
}

func (l Limits) body() int64 {
	if l.MaxBodyBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return l.MaxBodyBytes
}

type state uint8

const (
	stateMethod state = iota
	stateTarget
	stateProto
	stateRequestLineLF
	stateHeaderLineStart
	stateHeaderField
	stateHeaderValueStart
	stateHeaderValue
	stateHeaderValueLF
	stateHeadersLF
	stateBody
	stateComplete
	stateDead
)

// Parser is an incremental HTTP/1.x request parser. Bytes may be fed in
// chunks of any size; a token split across chunks is buffered until the
// rest of it arrives. Bodies are framed by Content-Length only.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	limits Limits

	state     state
	tok       []byte // partial token carried between Feed calls
	headBytes int

	method string
	target string
	proto  string

	field    string // header name waiting for its value
	hasField bool
	header   map[string]string

	contentLength int64 // -1 when not declared
	remain        int64
	body          []byte

	taken bool
	err   error
}

// NewParser returns a parser ready for the first byte of a request.
func NewParser(l Limits) *Parser {
	p := &Parser{limits: l}
	p.Reset()
	return p
}

// Reset discards everything parsed so far and prepares p for a new message.
func (p *Parser) Reset() {
	p.state = stateMethod
	p.tok = p.tok[:0]
	p.headBytes = 0
	p.method, p.target, p.proto = "", "", ""
	p.field, p.hasField = "", false
	p.header = make(map[string]string)
	p.contentLength = -1
	p.remain = 0
	p.body = nil
	p.taken = false
	p.err = nil
}

// Feed consumes b. It returns false once the input has violated the
// request grammar or exceeded a limit; the failure is permanent until
// Reset and its cause is available from Err. Bytes arriving after the
// message is complete are ignored.
func (p *Parser) Feed(b []byte) bool {
	if p.err != nil {
		return false
	}
	for i := 0; i < len(b); {
		switch p.state {
		case stateComplete:
			return true
		case stateBody:
			n := int64(len(b) - i)
			if n > p.remain {
				n = p.remain
			}
			p.body = append(p.body, b[i:i+int(n)]...)
			p.remain -= n
			i += int(n)
			if p.remain == 0 {
				p.state = stateComplete
			}
			continue
		}
		p.headBytes++
		if p.headBytes > p.limits.header() {
			return p.fail(ErrHeaderTooLarge)
		}
		if !p.step(b[i]) {
			return false
		}
		i++
	}
	return true
}

// IsComplete reports whether a whole request has been received.
func (p *Parser) IsComplete() bool { return p.state == stateComplete }

// Err returns the reason Feed last failed, or nil.
func (p *Parser) Err() error { return p.err }

// ExtractRequest hands over the completed request. The parser gives up its
// references to the header map and body, so a second call before Reset
// returns ErrConsumed.
func (p *Parser) ExtractRequest() (Request, error) {
	if p.state != stateComplete {
		return Request{}, ErrIncomplete
	}
	if p.taken {
		return Request{}, ErrConsumed
	}
	p.taken = true
	r := Request{
		Method: p.method,
		Target: p.target,
		Proto:  p.proto,
		Header: p.header,
		Body:   p.body,
	}
	p.header = nil
	p.body = nil
	return r, nil
}

func (p *Parser) step(c byte) bool {
	switch p.state {
	case stateMethod:
		switch {
		case c == ' ':
			if len(p.tok) == 0 {
				return p.bad("empty method")
			}
			if !isMethod(p.tok) {
				return p.bad("unknown method")
			}
			p.method = string(p.tok)
			p.tok = p.tok[:0]
			p.state = stateTarget
		case (c == '\r' || c == '\n') && len(p.tok) == 0:
			// empty lines ahead of the request line are skipped
		default:
			p.tok = append(p.tok, c)
			if !hasMethodPrefix(p.tok) {
				return p.bad("invalid method")
			}
		}
	case stateTarget:
		switch {
		case c == ' ':
			if len(p.tok) == 0 {
				return p.bad("empty request target")
			}
			p.target = string(p.tok)
			p.tok = p.tok[:0]
			p.state = stateProto
		case c > ' ' && c < 0x7f:
			p.tok = append(p.tok, c)
		default:
			return p.bad("invalid character in request target")
		}
	case stateProto:
		switch c {
		case '\r':
			if !p.endProto() {
				return false
			}
			p.state = stateRequestLineLF
		case '\n':
			if !p.endProto() {
				return false
			}
			p.state = stateHeaderLineStart
		default:
			if len(p.tok) >= len("HTTP/1.1") {
				return p.bad("invalid protocol version")
			}
			p.tok = append(p.tok, c)
		}
	case stateRequestLineLF:
		if c != '\n' {
			return p.bad("expected LF after request line")
		}
		p.state = stateHeaderLineStart
	case stateHeaderLineStart:
		switch {
		case c == '\r':
			p.state = stateHeadersLF
		case c == '\n':
			return p.endHeaders()
		case c == ' ' || c == '\t':
			return p.bad("obsolete line folding")
		case isTchar(c):
			p.tok = append(p.tok, c)
			p.state = stateHeaderField
		default:
			return p.bad("invalid character in header name")
		}
	case stateHeaderField:
		switch {
		case c == ':':
			p.field = canonicalHeaderKey(p.tok)
			p.hasField = true
			p.tok = p.tok[:0]
			p.state = stateHeaderValueStart
		case isTchar(c):
			p.tok = append(p.tok, c)
		default:
			return p.bad("invalid character in header name")
		}
	case stateHeaderValueStart:
		switch {
		case c == ' ' || c == '\t':
		case c == '\r':
			p.state = stateHeaderValueLF
			return p.commitField()
		case c == '\n':
			p.state = stateHeaderLineStart
			return p.commitField()
		case isValueByte(c):
			p.tok = append(p.tok, c)
			p.state = stateHeaderValue
		default:
			return p.bad("invalid character in header value")
		}
	case stateHeaderValue:
		switch {
		case c == '\r':
			p.state = stateHeaderValueLF
			return p.commitField()
		case c == '\n':
			p.state = stateHeaderLineStart
			return p.commitField()
		case isValueByte(c):
			p.tok = append(p.tok, c)
		default:
			return p.bad("invalid character in header value")
		}
	case stateHeaderValueLF:
		if c != '\n' {
			return p.bad("expected LF after header value")
		}
		p.state = stateHeaderLineStart
	case stateHeadersLF:
		if c != '\n' {
			return p.bad("expected LF after header block")
		}
		return p.endHeaders()
	default:
		return p.bad("unexpected input")
	}
	return true
}

func (p *Parser) endProto() bool {
	v := p.tok
	if len(v) != len("HTTP/1.1") || string(v[:7]) != "HTTP/1." || v[7] < '0' || v[7] > '9' {
		return p.bad("invalid protocol version")
	}
	p.proto = string(v)
	p.tok = p.tok[:0]
	return true
}

// commitField stores the pending header field with the value in p.tok.
func (p *Parser) commitField() bool {
	if !p.hasField {
		return p.bad("header value without field name")
	}
	value := string(trimTrailingOWS(p.tok))
	p.tok = p.tok[:0]
	name := p.field
	p.field, p.hasField = "", false

	switch name {
	case "Transfer-Encoding":
		return p.fail(ErrUnsupportedFraming)
	case "Content-Length":
		n, ok := parseContentLength(value)
		if !ok {
			return p.bad("invalid Content-Length")
		}
		if p.contentLength >= 0 && p.contentLength != n {
			return p.bad("conflicting Content-Length")
		}
		p.contentLength = n
	}
	p.header[name] = value
	return true
}

func (p *Parser) endHeaders() bool {
	if p.contentLength > p.limits.body() {
		return p.fail(ErrBodyTooLarge)
	}
	if p.contentLength <= 0 {
		p.body = []byte{}
		p.state = stateComplete
		return true
	}
	p.body = make([]byte, 0, p.contentLength)
	p.remain = p.contentLength
	p.state = stateBody
	return true
}

func (p *Parser) bad(reason string) bool {
	return p.fail(fmt.Errorf("%w: %s", ErrBadRequest, reason))
}

func (p *Parser) fail(err error) bool {
	p.err = err
	p.state = stateDead
	return false
}

func parseContentLength(s string) (int64, bool) {
	if s == "" || len(s) > 18 {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

func trimTrailingOWS(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
