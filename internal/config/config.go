package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMigrate   bool   `env:"DB_MIGRATE" envDefault:"true"`

	AWSRegion       string `env:"AWS_REGION" envDefault:"us-east-1"`
	BucketName      string `env:"BUCKET_NAME,required,notEmpty"`
	S3BaseEndpoint  string `env:"S3_BASE_ENDPOINT"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	MaxUploadBytes  int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	NotifyChannel string `env:"NOTIFY_CHANNEL" envDefault:"user.verification"`

	VerifyTokenTTL   time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"2m"`
	VerifyTokenGrace time.Duration `env:"VERIFY_TOKEN_GRACE" envDefault:"1m"`
	VerifyBaseURL    string        `env:"VERIFY_BASE_URL" envDefault:"http://localhost:8080/user/v1/user/self/verify"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"13"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	OTelEndpoint    string `env:"OTEL_ENDPOINT"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"account-service"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
