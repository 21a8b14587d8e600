package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Log      LogConfig      `mapstructure:"log" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	API      APIConfig      `mapstructure:"api" validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// LLMConfig contains the remote generation service settings. The core
// treats endpoint, credential and model as opaque values. Credential and
// model are only checked by ValidateLLM, since commands that never call the
// service run without them.
type LLMConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=gemini openai"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// PipelineConfig contains worker pool and call policy settings.
type PipelineConfig struct {
	// Concurrency is the ceiling on simultaneously in-flight remote calls.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=256"`

	// QueueSize is the buffer size of the pending-item queue.
	QueueSize int `mapstructure:"queue_size" validate:"gte=1"`

	// CallTimeout bounds every single remote call.
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"gt=0"`

	// RateLimit is the maximum number of remote calls per second; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`

	// RateBurst is the limiter burst size; values below 1 are treated as 1.
	RateBurst int `mapstructure:"rate_burst" validate:"gte=0"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend     string `mapstructure:"backend" validate:"required,oneof=file postgres redis"`
	Dir         string `mapstructure:"dir" validate:"required_if=Backend file"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Backend postgres,omitempty,url"`
	RedisURL    string `mapstructure:"redis_url" validate:"required_if=Backend redis,omitempty,url"`
}

// APIConfig contains settings of the read-only cache inspection API.
type APIConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`

	// JWTSecret enables bearer authentication when set.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
}
