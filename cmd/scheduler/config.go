package main

import (
	"time"

	"github.com/dmitrymomot/cronpipe/pkg/db"
	"github.com/dmitrymomot/cronpipe/pkg/logger"
	"github.com/dmitrymomot/cronpipe/pkg/mailer/resend"
)

// Config is the process-wide configuration, assembled from environment
// variables via caarlos0/env struct tags. It embeds the sub-package
// Config types so each package's own env keys stay defined next to the
// package that consumes them.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	RedisURL string `env:"REDIS_URL,required"`

	CatalogYAMLPath string `env:"CATALOG_YAML_PATH"`

	MaxConcurrency int `env:"SCHEDULER_MAX_CONCURRENCY" envDefault:"0"`
	ChannelCap     int `env:"SCHEDULER_CHANNEL_CAPACITY" envDefault:"128"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`

	AlertRecipient string `env:"ALERT_RECIPIENT"`
	CatalogURL     string `env:"ALERT_CATALOG_URL"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	DB     db.Config          `envPrefix:""`
	Sentry logger.SentryConfig `envPrefix:""`
	Resend resend.Config      `envPrefix:""`
}

// archivingEnabled reports whether enough S3 configuration is present to
// wrap the queue sink with an archiving decorator.
func (c Config) archivingEnabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// alertingEnabled reports whether enough mail configuration is present to
// register a job-exhaustion notifier.
func (c Config) alertingEnabled() bool {
	return c.AlertRecipient != "" && c.Resend.APIKey != ""
}
