// Package greeter holds the demo handler served by cmd/oneshot-server.
package greeter

import (
	"context"

	"dqx0.com/go/oneshot/httpx"
)

const (
	Welcome    = "Welcome to my HTTP server!"
	EchoPrefix = "Your message body: "
)

// Handler answers GET with a fixed welcome and echoes POST bodies. Any
// other method gets an empty 200 reply.
func Handler() httpx.Handler {
	return httpx.HandlerFunc(handle)
}

func handle(_ context.Context, r httpx.Request) httpx.Response {
	var res httpx.Response
	switch r.Method {
	case httpx.MethodGet:
		res.Body = []byte(Welcome)
	case httpx.MethodPost:
		res.Body = make([]byte, 0, len(EchoPrefix)+len(r.Body))
		res.Body = append(res.Body, EchoPrefix...)
		res.Body = append(res.Body, r.Body...)
	}
	return res
}
