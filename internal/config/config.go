package config

import (
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	PostgresqlHosts        string        `env:"POSTGRESQL_HOSTS" envSeparator:":" envDefault:"localhost"`
	PostgresqlDbName       string        `env:"POSTGRESQL_DB_NAME" envDefault:"postgres"`
	PostgresqlUsername     string        `env:"POSTGRESQL_USERNAME"`
	PostgresqlPassword     string        `env:"POSTGRESQL_PASSWORD"`
	PostgresqlSslEnabled   bool          `env:"POSTGRESQL_SSL_ENABLED" envDefault:"false"`
	PostgresqlPort         string        `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgresqlReadTimeout  time.Duration `env:"POSTGRESQL_READ_TIME_OUT" envDefault:"2s"`
	PostgresqlWriteTimeout time.Duration `env:"POSTGRESQL_WRITE_TIME_OUT" envDefault:"5s"`

	RedisHosts        string        `env:"REDIS_HOSTS" envSeparator:":" envDefault:"localhost"`
	RedisPort         string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisReadTimeout  time.Duration `env:"REDIS_READ_TIME_OUT" envDefault:"1s"`
	RedisWriteTimeout time.Duration `env:"REDIS_WRITE_TIME_OUT" envDefault:"500ms"`

	GeminiApiKey        string        `env:"GEMINI_API_KEY"`
	GeminiBaseUrl       string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	GeminiModel         string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiStreamTimeout time.Duration `env:"GEMINI_STREAM_TIMEOUT" envDefault:"5m"`

	UsageIncrementThreshold int `env:"USAGE_INCREMENT_THRESHOLD" envDefault:"50"`
	UsageTokensPerIncrement int `env:"USAGE_TOKENS_PER_INCREMENT" envDefault:"1"`

	DefaultStorageLimitMb   int64 `env:"DEFAULT_STORAGE_LIMIT_MB" envDefault:"100"`
	DefaultAiTokensPerMonth int64 `env:"DEFAULT_AI_TOKENS_PER_MONTH" envDefault:"100000"`

	StorageBucket          string        `env:"STORAGE_BUCKET"`
	StorageEndpoint        string        `env:"STORAGE_ENDPOINT"`
	StorageAccessKeyId     string        `env:"STORAGE_ACCESS_KEY_ID"`
	StorageSecretAccessKey string        `env:"STORAGE_SECRET_ACCESS_KEY"`
	StorageUploadUrlTtl    time.Duration `env:"STORAGE_UPLOAD_URL_TTL" envDefault:"60s"`
	CdnBaseUrl             string        `env:"CDN_BASE_URL" envDefault:"https://cdn.edufly.localhook.online"`

	ServerPort string `env:"SERVER_PORT" envDefault:"8001"`

	StatsEnabled bool   `env:"STATS_ENABLED" envDefault:"false"`
	StatsAddress string `env:"STATS_ADDRESS" envDefault:"127.0.0.1:8125"`
}

func ParseEnvVariables() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
