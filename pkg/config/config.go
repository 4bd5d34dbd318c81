package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ARCHIVER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv              = "ARCHIVER_APP_ENV"
	EnvPort                = "ARCHIVER_APP_PORT"
	EnvAdminSecret         = "ARCHIVER_ADMIN_SECRET"
	EnvKafkaBrokers        = "ARCHIVER_KAFKA_BROKERS"
	EnvKafkaTopic          = "ARCHIVER_KAFKA_TOPIC"
	EnvKafkaGroupID        = "ARCHIVER_KAFKA_GROUP_ID"
	EnvRenderBaseURL       = "ARCHIVER_RENDER_BASE_URL"
	EnvArchiveBaseURL      = "ARCHIVER_ARCHIVE_BASE_URL"
	EnvTokenURL            = "ARCHIVER_TOKEN_URL"
	EnvTokenClientID       = "ARCHIVER_TOKEN_CLIENT_ID"
	EnvTokenClientSecret   = "ARCHIVER_TOKEN_CLIENT_SECRET"
	EnvIncomeReports       = "ARCHIVER_FEATURE_INCOME_REPORTS"
	EnvGCPProjectID        = "ARCHIVER_GCP_PROJECT_ID"
	EnvPubSubEmployerTopic = "ARCHIVER_PUBSUB_EMPLOYER_TOPIC"
)

type Config struct {
	App          AppConfig
	Admin        AdminConfig
	Kafka        KafkaConfig
	Render       RenderConfig
	Archive      ArchiveConfig
	Token        TokenConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Kafka.BrokerList()) == 0 {
		return fmt.Errorf("%s must list at least one broker", EnvKafkaBrokers)
	}
	if c.FeatureFlags.IncomeReports {
		missing := []string{}
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			missing = append(missing, EnvGCPProjectID)
		}
		if strings.TrimSpace(c.PubSub.EmployerTopic) == "" {
			missing = append(missing, EnvPubSubEmployerTopic)
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s requires %s", EnvIncomeReports, strings.Join(missing, ", "))
		}
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"ARCHIVER_APP_ENV" required:"true"`
	Port         string `envconfig:"ARCHIVER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ARCHIVER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARCHIVER_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"ARCHIVER_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AdminConfig holds the pre-shared credential for the replay endpoint. Secret
// may be given in plain text or as an encoded Argon2id hash.
type AdminConfig struct {
	Secret string `envconfig:"ARCHIVER_ADMIN_SECRET" required:"true"`
}

type KafkaConfig struct {
	Brokers  string `envconfig:"ARCHIVER_KAFKA_BROKERS" required:"true"`
	Topic    string `envconfig:"ARCHIVER_KAFKA_TOPIC" required:"true"`
	GroupID  string `envconfig:"ARCHIVER_KAFKA_GROUP_ID" required:"true"`
	ClientID string `envconfig:"ARCHIVER_KAFKA_CLIENT_ID" default:"settlement-archiver"`
}

// BrokerList splits the comma separated broker list.
func (k KafkaConfig) BrokerList() []string {
	out := []string{}
	for _, broker := range strings.Split(k.Brokers, ",") {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type RenderConfig struct {
	BaseURL string        `envconfig:"ARCHIVER_RENDER_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"ARCHIVER_RENDER_TIMEOUT" default:"30s"`
}

type ArchiveConfig struct {
	BaseURL string        `envconfig:"ARCHIVER_ARCHIVE_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"ARCHIVER_ARCHIVE_TIMEOUT" default:"30s"`
}

type TokenConfig struct {
	URL          string `envconfig:"ARCHIVER_TOKEN_URL" required:"true"`
	ClientID     string `envconfig:"ARCHIVER_TOKEN_CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"ARCHIVER_TOKEN_CLIENT_SECRET" required:"true"`
	Scope        string `envconfig:"ARCHIVER_TOKEN_SCOPE"`
}

type FeatureFlagsConfig struct {
	IncomeReports bool `envconfig:"ARCHIVER_FEATURE_INCOME_REPORTS" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ARCHIVER_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EmployerTopic string `envconfig:"ARCHIVER_PUBSUB_EMPLOYER_TOPIC"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"ARCHIVER_METRICS_ENABLED" default:"true"`
}
