package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/settlement-archiver/api/controllers"
	"github.com/angelmondragon/settlement-archiver/internal/stream"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
)

type fakeConsumer struct {
	run     func(ctx context.Context) error
	started chan struct{}
}

func (f *fakeConsumer) Run(ctx context.Context) error {
	close(f.started)
	return f.run(ctx)
}

type fakeServer struct {
	once     sync.Once
	stopped  chan struct{}
	shutdown int
	mu       sync.Mutex
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopped: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.mu.Lock()
	f.shutdown++
	f.mu.Unlock()
	f.once.Do(func() { close(f.stopped) })
	return nil
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestService(t *testing.T, consumer *fakeConsumer, server *fakeServer, deps ...controllers.Dependency) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	svc, err := NewService(ServiceParams{Logger: logg, Consumer: consumer, Server: server, Dependencies: deps})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRunReturnsHaltAndStopsServer(t *testing.T) {
	consumer := &fakeConsumer{
		started: make(chan struct{}),
		run: func(context.Context) error {
			return fmt.Errorf("%w: %w", stream.ErrHalted, errors.New("contract violation"))
		},
	}
	server := newFakeServer()
	svc := newTestService(t, consumer, server)

	err := svc.Run(context.Background())
	if !errors.Is(err, stream.ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
	if server.shutdown != 1 {
		t.Fatalf("expected server shutdown once, got %d", server.shutdown)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	consumer := &fakeConsumer{
		started: make(chan struct{}),
		run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	server := newFakeServer()
	svc := newTestService(t, consumer, server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case <-consumer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never started")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestRunFailsReadinessBeforeStarting(t *testing.T) {
	consumer := &fakeConsumer{
		started: make(chan struct{}),
		run:     func(context.Context) error { return nil },
	}
	server := newFakeServer()
	down := pingerFunc(func(context.Context) error { return errors.New("no brokers") })
	svc := newTestService(t, consumer, server, controllers.Dependency{Name: "kafka", Pinger: down})

	err := svc.Run(context.Background())
	if err == nil || err.Error() != "kafka ping failed: no brokers" {
		t.Fatalf("unexpected error %v", err)
	}
	select {
	case <-consumer.started:
		t.Fatal("consumer must not start when a dependency is down")
	default:
	}
}

func TestNewServiceValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	if _, err := NewService(ServiceParams{Consumer: &fakeConsumer{}, Server: newFakeServer()}); err == nil {
		t.Fatal("expected logger error")
	}
	if _, err := NewService(ServiceParams{Logger: logg, Server: newFakeServer()}); err == nil {
		t.Fatal("expected consumer error")
	}
	if _, err := NewService(ServiceParams{Logger: logg, Consumer: &fakeConsumer{}}); err == nil {
		t.Fatal("expected server error")
	}
}
