package httpx

import (
	"io"

	"dqx0.com/go/oneshot/httpx/internal/http1"
)

// Response is what a Handler returns. The status is always 200 OK.
//
// Content-Length is computed from Body when the response is serialized;
// a Content-Length entry in Header is not written.
type Response struct {
	Header Fields
	Body   []byte
}

// AppendTo appends the wire form of r to dst.
func (r Response) AppendTo(dst []byte) []byte {
	return http1.AppendResponse(dst, r.Header.All(), r.Body)
}

// Bytes returns the wire form of r.
func (r Response) Bytes() []byte {
	return r.AppendTo(make([]byte, 0, 64+len(r.Body)))
}

// WriteTo writes the wire form of r to w in a single Write.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}
