package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/settlement-archiver/api"
	"github.com/angelmondragon/settlement-archiver/api/controllers"
	"github.com/angelmondragon/settlement-archiver/api/routes"
	"github.com/angelmondragon/settlement-archiver/internal/archival"
	"github.com/angelmondragon/settlement-archiver/internal/followup"
	"github.com/angelmondragon/settlement-archiver/internal/pipeline"
	"github.com/angelmondragon/settlement-archiver/internal/reasons"
	"github.com/angelmondragon/settlement-archiver/internal/replay"
	"github.com/angelmondragon/settlement-archiver/internal/settlement"
	"github.com/angelmondragon/settlement-archiver/internal/stream"
	"github.com/angelmondragon/settlement-archiver/pkg/archive"
	"github.com/angelmondragon/settlement-archiver/pkg/config"
	"github.com/angelmondragon/settlement-archiver/pkg/instance"
	"github.com/angelmondragon/settlement-archiver/pkg/kafka"
	"github.com/angelmondragon/settlement-archiver/pkg/logger"
	"github.com/angelmondragon/settlement-archiver/pkg/metrics"
	"github.com/angelmondragon/settlement-archiver/pkg/pubsub"
	"github.com/angelmondragon/settlement-archiver/pkg/render"
	"github.com/angelmondragon/settlement-archiver/pkg/security"
)

const serviceName = "settlement-archiver"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	kafkaClient, err := kafka.NewClient(cfg.Kafka, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap kafka", err)
		os.Exit(1)
	}
	defer func() {
		if err := kafkaClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing kafka client", err)
		}
	}()

	tokens, err := archive.NewTokenSource(ctx, cfg.Token)
	if err != nil {
		logg.Error(ctx, "failed to build archive token source", err)
		os.Exit(1)
	}
	archiveClient, err := archive.NewClient(cfg.Archive.BaseURL, tokens, archive.WithTimeout(cfg.Archive.Timeout))
	if err != nil {
		logg.Error(ctx, "failed to create archive client", err)
		os.Exit(1)
	}
	renderClient, err := render.NewClient(cfg.Render.BaseURL, render.WithTimeout(cfg.Render.Timeout))
	if err != nil {
		logg.Error(ctx, "failed to create render client", err)
		os.Exit(1)
	}

	mediator, err := archival.NewMediator(archival.MediatorParams{
		Renderer: renderClient,
		Archiver: archiveClient,
		Logger:   logg,
		Metrics:  pipelineMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create mediator", err)
		os.Exit(1)
	}
	mapper, err := settlement.NewMapper(reasons.NewTable(logg))
	if err != nil {
		logg.Error(ctx, "failed to create mapper", err)
		os.Exit(1)
	}

	deps := []controllers.Dependency{{Name: "kafka", Pinger: kafkaClient}}
	pipelineParams := pipeline.Params{Mapper: mapper, Mediator: mediator}

	if cfg.FeatureFlags.IncomeReports {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		employer := pubsubClient.EmployerPublisher()
		defer employer.Stop()

		incomeReports, err := followup.NewPublisher(followup.PublisherParams{
			Employer: pubsub.NewPublisher(employer),
			Bus:      kafkaClient,
			Logger:   logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create income report publisher", err)
			os.Exit(1)
		}
		pipelineParams.IncomeReports = incomeReports
		deps = append(deps, controllers.Dependency{Name: "pubsub", Pinger: pubsubClient})
	}

	eventPipeline, err := pipeline.New(pipelineParams)
	if err != nil {
		logg.Error(ctx, "failed to create pipeline", err)
		os.Exit(1)
	}

	consumer, err := stream.NewConsumer(stream.ConsumerParams{
		Source:   kafkaClient.Reader(),
		Pipeline: eventPipeline,
		Logger:   logg,
		Metrics:  pipelineMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stream consumer", err)
		os.Exit(1)
	}

	replayer, err := replay.New(replay.Params{Pipeline: eventPipeline, Logger: logg, Metrics: pipelineMetrics})
	if err != nil {
		logg.Error(ctx, "failed to create replayer", err)
		os.Exit(1)
	}

	server := api.NewServer(cfg.App.Port, routes.NewRouter(routes.RouterParams{
		Config:       cfg,
		Logger:       logg,
		Replayer:     replayer,
		Dependencies: deps,
		Gatherer:     registry,
		Compare:      security.CompareSecret,
	}))

	service, err := NewService(ServiceParams{
		Logger:       logg,
		Consumer:     consumer,
		Server:       server,
		Dependencies: deps,
	})
	if err != nil {
		logg.Error(ctx, "failed to create service", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"port":           cfg.App.Port,
		"topic":          cfg.Kafka.Topic,
		"income_reports": cfg.FeatureFlags.IncomeReports,
		"instance":       instance.GetID(),
	})
	logg.Info(ctx, "starting settlement archiver")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "settlement archiver stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "settlement archiver shutting down gracefully")
}
