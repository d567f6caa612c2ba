package httpx_test

import (
	"context"
	"fmt"

	"dqx0.com/go/oneshot/httpx"
)

// ExampleResponse shows the wire form of a handler reply.
func ExampleResponse() {
	var res httpx.Response
	res.Header.Set("Content-Type", "text/plain")
	res.Body = []byte("hi")
	fmt.Printf("%q\n", res.Bytes())
	// Output:
	// "HTTP/1.0 200 OK\r\nContent-Type:text/plain\r\nContent-Length:2\r\n\r\nhi"
}

// ExampleHandlerFunc answers by method.
func ExampleHandlerFunc() {
	h := httpx.HandlerFunc(func(ctx context.Context, r httpx.Request) httpx.Response {
		if r.Method != httpx.MethodGet {
			return httpx.Response{}
		}
		return httpx.Response{Body: []byte("welcome")}
	})
	res := h.Handle(context.Background(), httpx.Request{Method: httpx.MethodGet})
	fmt.Println(string(res.Body))
	// Output:
	// welcome
}
