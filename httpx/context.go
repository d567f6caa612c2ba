package httpx

import "context"

type (
	requestIDKey     struct{}
	correlationIDKey struct{}
)

// WithRequestID returns a copy of ctx carrying the ID the server assigned
// to a session. Handlers receive it on every call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom reports the session's request ID.
func RequestIDFrom(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey{})
}

// WithCorrelationID returns a copy of ctx carrying the peer-supplied
// X-Request-Id value.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFrom reports the X-Request-Id the peer sent, if any.
func CorrelationIDFrom(ctx context.Context) (string, bool) {
	return stringValue(ctx, correlationIDKey{})
}

// stringValue treats an empty string the same as an absent key.
func stringValue(ctx context.Context, key any) (string, bool) {
	s, _ := ctx.Value(key).(string)
	return s, s != ""
}
