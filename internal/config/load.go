package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "SYNTHGEN"

// envFallbacks lists additional environment variables consulted for a key
// when its SYNTHGEN_ variable is unset. They match the variable names used
// by existing OpenAI-compatible tooling.
var envFallbacks = map[string][]string{
	"llm.api_key":  {"OPENAI_API_KEY"},
	"llm.endpoint": {"OPENAI_BASE_URL"},
	"llm.model":    {"OPENAI_USE_MODEL"},
}

// defaults holds the default value of every known key. Every key is also
// bound to its environment variable, so this map doubles as the key list.
var defaults = map[string]any{
	"log.level": "info",

	"llm.provider": "openai",
	"llm.endpoint": "",
	"llm.api_key":  "",
	"llm.model":    "",

	"pipeline.concurrency":  5,
	"pipeline.queue_size":   1000,
	"pipeline.call_timeout": 120 * time.Second,
	"pipeline.rate_limit":   0.0,
	"pipeline.rate_burst":   1,

	"cache.backend":      "file",
	"cache.dir":          "cache",
	"cache.database_url": "",
	"cache.redis_url":    "",

	"api.addr":       "127.0.0.1:8090",
	"api.jwt_secret": "",
}

// Load configuration from environment variables and an optional config.yaml
// in the working directory. Environment variables take precedence over
// values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load("")
}

// LoadFile behaves like Load but reads the given config file, which must exist.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file path cannot be empty")
	}
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindEnv binds every known key to its SYNTHGEN_ variable followed by any
// fallback variables; viper uses the first one that is set.
func bindEnv(v *viper.Viper) error {
	for key := range defaults {
		names := []string{EnvVar(key)}
		names = append(names, envFallbacks[key]...)

		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}
	return nil
}

// EnvVar returns the environment variable name for a config key,
// e.g. "pipeline.concurrency" -> "SYNTHGEN_PIPELINE_CONCURRENCY".
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate checks a Config against its struct tags.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config validation failed: config is nil")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// ValidateLLM checks the settings needed to call the remote generation
// service.
func ValidateLLM(cfg *Config) error {
	if cfg == nil {
		return errors.New("config validation failed: config is nil")
	}

	v := validator.New()
	fields := []struct {
		key   string
		value string
	}{
		{"llm.api_key", cfg.LLM.APIKey},
		{"llm.model", cfg.LLM.Model},
	}
	for _, f := range fields {
		if err := v.Var(f.value, "required"); err != nil {
			return fmt.Errorf("config validation failed: %s (%s) is required", f.key, EnvVar(f.key))
		}
	}
	return nil
}
