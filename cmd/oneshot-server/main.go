package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dqx0.com/go/oneshot/httpx"
	"dqx0.com/go/oneshot/internal/greeter"
	"dqx0.com/go/oneshot/internal/obs"
)

const shutdownGrace = 10 * time.Second

func main() {
	port := flag.Int("port", 4000, "TCP port to listen on")
	flag.Parse()

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "oneshot").Logger()

	addr, err := listenAddr(*port)
	if err != nil {
		zl.Fatal().Err(err).Msg("config")
	}
	meter := obs.NewMemMeter()
	s := newServer(zl, meter)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		zl.Fatal().Err(err).Msg("listen")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl.Info().Str("addr", ln.Addr().String()).Msg("listening")
	err = serve(ctx, s, ln, shutdownGrace, zl)
	logMetrics(zl, meter)
	if err != nil {
		zl.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func listenAddr(port int) (string, error) {
	if port <= 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d: must be in 1..65535", port)
	}
	return fmt.Sprintf(":%d", port), nil
}

func newServer(zl zerolog.Logger, m obs.Meter) *httpx.Server {
	return &httpx.Server{
		Handler:      greeter.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		Logger:       obs.Zerolog{L: zl},
		Meter:        m,
	}
}

// serve runs s on ln until ctx is done, then shuts down and waits up to
// grace for in-flight sessions. It returns only once draining is over.
func serve(ctx context.Context, s *httpx.Server, ln net.Listener, grace time.Duration, zl zerolog.Logger) error {
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}

	zl.Info().Dur("grace", grace).Msg("shutting down, draining sessions")
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	err := s.Shutdown(sctx)
	if serr := <-served; serr != nil && !errors.Is(serr, httpx.ErrServerClosed) {
		return serr
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	zl.Info().Msg("all sessions drained")
	return nil
}

func logMetrics(zl zerolog.Logger, m *obs.MemMeter) {
	counters := m.Counters()
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zl.Info().Str("series", k).Float64("total", counters[k]).Msg("metric")
	}
}
