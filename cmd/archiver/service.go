package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/settlement-archiver/api/controllers"
	"github.com/angelmondragon/settlement-archiver/internal/stream"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type streamConsumer interface {
	Run(ctx context.Context) error
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	Consumer     streamConsumer
	Server       httpServer
	Dependencies []controllers.Dependency
}

// Service runs the stream consumer and the admin server side by side. The
// first of them to stop ends the process.
type Service struct {
	logg     *logger.Logger
	consumer streamConsumer
	server   httpServer
	deps     []controllers.Dependency
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("stream consumer is required")
	}
	if params.Server == nil {
		return nil, errors.New("http server is required")
	}
	return &Service{
		logg:     params.Logger,
		consumer: params.Consumer,
		server:   params.Server,
		deps:     params.Dependencies,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range s.deps {
		if dep.Pinger == nil {
			continue
		}
		if err := pingDependency(ctx, s.logg, dep.Name, dep.Pinger.Ping); err != nil {
			return err
		}
	}
	s.logg.Info(ctx, "all archiver dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("admin server: %w", err)
			return
		}
		errCh <- nil
	}()
	go func() {
		errCh <- s.consumer.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		s.logg.Info(ctx, "archiver context canceled")
		s.shutdown(ctx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, stream.ErrHalted) {
			s.logg.Error(ctx, "stream consumer halted on a fatal event", err)
		} else if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "archiver component stopped unexpectedly", err)
		}
		s.shutdown(ctx)
		if err == nil {
			return errors.New("archiver component exited")
		}
		return err
	}
}

func (s *Service) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logg.Error(ctx, "admin server shutdown failed", err)
	}
}
