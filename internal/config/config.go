// Package config loads and validates the service's runtime configuration
// from environment variables (and an optional .env file) via viper.
package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig is the complete set of tunables the server needs at startup.
type AppConfig struct {
	ServiceName string `mapstructure:"service_name" validate:"required"`
	Host        string `mapstructure:"host" validate:"required"`
	Port        int    `mapstructure:"port" validate:"required"`
	LogLevel    string `mapstructure:"log_level" validate:"required"`

	PostgresDSN string `mapstructure:"postgres_dsn" validate:"required"`

	S3Bucket string `mapstructure:"s3_bucket" validate:"required"`
	S3Region string `mapstructure:"s3_region" validate:"required"`

	JWTSigningSecret string `mapstructure:"jwt_signing_secret" validate:"required"`
	JWTTTLMinutes    int    `mapstructure:"jwt_ttl_minutes" validate:"required"`

	TenantKeyMasterKey string `mapstructure:"tenant_key_master_key" validate:"required"`

	DefaultSTTProvider string `mapstructure:"default_stt_provider" validate:"required"`
	DefaultSTTAPIKey   string `mapstructure:"default_stt_api_key"`
	DefaultLLMProvider string `mapstructure:"default_llm_provider" validate:"required"`
	DefaultLLMAPIKey   string `mapstructure:"default_llm_api_key"`

	WatchdogTickSeconds         int `mapstructure:"watchdog_tick_seconds" validate:"required"`
	SilenceTimeoutSeconds       int `mapstructure:"silence_timeout_seconds" validate:"required"`
	RecordingStatusEverySeconds int `mapstructure:"recording_status_every_seconds" validate:"required"`

	MetricsPort int `mapstructure:"metrics_port" validate:"required"`
}

// Load reads environment variables (optionally seeded from a .env file),
// applies defaults, and returns a validated AppConfig.
func Load() (*AppConfig, error) {
	if path := os.Getenv("ENV_PATH"); path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			log.Printf("config: error loading env file %s: %v", path, err)
		}
	}

	v := viper.NewWithOptions(viper.KeyDelimiter("__"))
	v.AutomaticEnv()
	setDefaults(v)

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "session-orchestrator")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("POSTGRES_DSN", "postgres://localhost:5432/session_orchestrator?sslmode=disable")

	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")

	v.SetDefault("JWT_SIGNING_SECRET", "")
	v.SetDefault("JWT_TTL_MINUTES", 1440)

	v.SetDefault("TENANT_KEY_MASTER_KEY", "")

	v.SetDefault("DEFAULT_STT_PROVIDER", "deepgram")
	v.SetDefault("DEFAULT_STT_API_KEY", "")
	v.SetDefault("DEFAULT_LLM_PROVIDER", "openai")
	v.SetDefault("DEFAULT_LLM_API_KEY", "")

	v.SetDefault("WATCHDOG_TICK_SECONDS", 30)
	v.SetDefault("SILENCE_TIMEOUT_SECONDS", 240)
	v.SetDefault("RECORDING_STATUS_EVERY_SECONDS", 5)

	v.SetDefault("METRICS_PORT", 9090)
}
