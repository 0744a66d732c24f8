package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"5080"`
	Environment        string `envconfig:"ENV" default:"development"`
	AppName            string `envconfig:"APP_NAME" default:"LMS"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	AutoMigrate        bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// Auth. JWT_SECRET wins; otherwise JWT_SECRET_NAME is read from Secret Manager.
	JWTSecret     string        `envconfig:"JWT_SECRET"`
	JWTSecretName string        `envconfig:"JWT_SECRET_NAME"`
	JWTTTL        time.Duration `envconfig:"JWT_TTL" default:"2h"`

	// Receipt storage (S3 compatible)
	S3URL           string        `envconfig:"S3_URL" required:"true"`
	S3Bucket        string        `envconfig:"S3_BUCKET" required:"true"`
	S3Region        string        `envconfig:"S3_REGION" required:"true"`
	S3AccessKey     string        `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey     string        `envconfig:"S3_SECRET_KEY" required:"true"`
	S3PublicBaseURL string        `envconfig:"S3_PUBLIC_BASE_URL"`
	ReceiptURLTTL   time.Duration `envconfig:"RECEIPT_URL_TTL" default:"15m"`

	// GCP (Pub/Sub events, Secret Manager)
	GCPProjectID          string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile    string `envconfig:"GCP_CREDENTIALS_FILE"`
	PubSubEmulatorHost    string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubEnrollmentTopic string `envconfig:"PUBSUB_ENROLLMENT_TOPIC" default:"enrollments"`

	// Mail
	SendGridAPIKey string `envconfig:"SENDGRID_API_KEY"`
	MailFrom       string `envconfig:"MAIL_FROM" default:"no-reply@example.com"`

	// Login throttling. Disabled when REDIS_ADDR is empty.
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB          int           `envconfig:"REDIS_DB" default:"0"`
	LoginMaxAttempts int           `envconfig:"LOGIN_MAX_ATTEMPTS" default:"5"`
	LoginLockout     time.Duration `envconfig:"LOGIN_LOCKOUT" default:"15m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DatabaseConfig is the subset of Config used by operator tooling.
type DatabaseConfig struct {
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
}

func LoadDatabase() (*DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PubSubConfig is the subset of Config used to provision local topics.
type PubSubConfig struct {
	GCPProjectID          string `envconfig:"GCP_PROJECT_ID" required:"true"`
	PubSubEmulatorHost    string `envconfig:"PUBSUB_EMULATOR_HOST" required:"true"`
	PubSubEnrollmentTopic string `envconfig:"PUBSUB_ENROLLMENT_TOPIC" default:"enrollments"`
}

func LoadPubSub() (*PubSubConfig, error) {
	var cfg PubSubConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PubSubEnabled reports whether enrollment events should go to Pub/Sub
// instead of the log.
func (c *Config) PubSubEnabled() bool {
	return c.GCPProjectID != ""
}

// IsDevelopment reports whether the app runs locally.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
