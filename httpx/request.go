package httpx

import "dqx0.com/go/oneshot/httpx/internal/http1"

// Method identifies the request method. Methods the parser recognises but
// this package has no constant for are reported as MethodOther; the token
// itself is kept in Request.RawMethod.
type Method uint8

const (
	MethodDelete Method = iota
	MethodGet
	MethodHead
	MethodPost
	MethodPut
	MethodConnect
	MethodOptions
	MethodTrace
	MethodOther
)

var methodNames = [...]string{
	MethodDelete:  "DELETE",
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodConnect: "CONNECT",
	MethodOptions: "OPTIONS",
	MethodTrace:   "TRACE",
}

func (m Method) String() string {
	if m < MethodOther {
		return methodNames[m]
	}
	return "OTHER"
}

// ParseMethod maps a method token to its Method. Matching is exact, as
// method names are case-sensitive.
func ParseMethod(s string) Method {
	for i, name := range methodNames {
		if name == s {
			return Method(i)
		}
	}
	return MethodOther
}

// Request is a complete request received on a connection. It is handed to
// the Handler by value and owns its Header and Body.
type Request struct {
	Method    Method
	RawMethod string
	Target    string
	Proto     string
	Header    Header
	Body      []byte
}

func newRequest(pr http1.Request) Request {
	return Request{
		Method:    ParseMethod(pr.Method),
		RawMethod: pr.Method,
		Target:    pr.Target,
		Proto:     pr.Proto,
		Header:    Header(pr.Header),
		Body:      pr.Body,
	}
}
