package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if got := cfg.Render.Timeout; got != 30*time.Second {
		t.Fatalf("expected render timeout 30s, got %v", got)
	}
	if got := cfg.Kafka.BrokerList(); len(got) != 2 || got[1] != "broker-2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
	if cfg.Admin.Secret == "" {
		t.Fatal("expected admin secret to be loaded")
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("expected metrics enabled by default")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAdminSecret); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAdminSecret, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_IncomeReportsRequirePubSub(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvIncomeReports, "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when income reports are enabled without pubsub settings")
	}

	t.Setenv(EnvGCPProjectID, "project-123")
	t.Setenv(EnvPubSubEmployerTopic, "employer-topic")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.FeatureFlags.IncomeReports {
		t.Fatal("expected income reports flag")
	}
}

func TestLoad_BlankBrokers(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvKafkaBrokers, " , ")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty broker list")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvAdminSecret, "hunter2")
	t.Setenv(EnvKafkaBrokers, "broker-1:9092, broker-2:9092")
	t.Setenv(EnvKafkaTopic, "sickpay-events")
	t.Setenv(EnvKafkaGroupID, "settlement-archiver-v1")
	t.Setenv(EnvRenderBaseURL, "http://render")
	t.Setenv(EnvArchiveBaseURL, "https://archive")
	t.Setenv(EnvTokenURL, "https://sts/token")
	t.Setenv(EnvTokenClientID, "client")
	t.Setenv(EnvTokenClientSecret, "secret")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
