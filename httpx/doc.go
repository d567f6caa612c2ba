// Package httpx is a small one-shot HTTP/1.x server: every accepted
// connection carries exactly one request and is closed after the reply.
//
// Highlights
//   - Incremental parsing: bytes are fed to the request parser as they
//     arrive, in chunks of any size, and the handler runs only once the
//     whole message (head plus Content-Length body) is in.
//   - Fixed replies: responses are always "HTTP/1.0 200 OK" with a
//     Content-Length computed from the body.
//   - Limits: per-read timeout, header and body size caps, optional 4xx
//     answers for rejected requests (RejectMalformed).
//   - Observability: plug-in Logger and Meter interfaces.
//
// Not supported: keep-alive, pipelining, chunked transfer-encoding, TLS.
//
// Quick start:
//
//	s := &httpx.Server{Addr: ":4000"}
//	s.Handler = httpx.HandlerFunc(func(ctx context.Context, r httpx.Request) httpx.Response {
//	    var res httpx.Response
//	    res.Header.Set("Content-Type", "text/plain; charset=utf-8")
//	    res.Body = []byte("hello")
//	    return res
//	})
//	if err := s.ListenAndServe(); err != nil { log.Fatal(err) }
package httpx
