package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Batch      BatchConfig      `mapstructure:"batch"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
	MaxTTL     int  `mapstructure:"max_ttl_seconds"`
}

type RateLimitConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Limit   int    `mapstructure:"limit"`
	Window  string `mapstructure:"window"`
}

// ModerationConfig selects the toxicity scoring backend. Provider is one of
// "openai", "external" or "mock".
type ModerationConfig struct {
	Provider       string `mapstructure:"provider"`
	OpenAIKey      string `mapstructure:"openai_key"`
	ExternalURL    string `mapstructure:"external_url"`
	ExternalAPIKey string `mapstructure:"external_api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type BatchConfig struct {
	MaxItems int `mapstructure:"max_items"`
	Workers  int `mapstructure:"workers"`
}

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return err
	}
	setDefaultValues()
	return nil
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	v := viper.New()
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
		}
		// No file is fine, environment variables still apply.
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues() {
	if globalConfig.Server.Port == 0 {
		globalConfig.Server.Port = 8000
	}
	if globalConfig.Redis.Host == "" {
		globalConfig.Redis.Host = "localhost"
	}
	if globalConfig.Redis.Port == 0 {
		globalConfig.Redis.Port = 6379
	}
	if globalConfig.Cache.TTLSeconds == 0 {
		globalConfig.Cache.TTLSeconds = 300
	}
	if globalConfig.Cache.MaxTTL == 0 {
		globalConfig.Cache.MaxTTL = 3600
	}
	if globalConfig.RateLimit.Limit == 0 {
		globalConfig.RateLimit.Limit = 100
	}
	if globalConfig.RateLimit.Window == "" {
		globalConfig.RateLimit.Window = "1m"
	}
	if globalConfig.Moderation.Provider == "" {
		globalConfig.Moderation.Provider = "mock"
	}
	if globalConfig.Moderation.TimeoutSeconds == 0 {
		globalConfig.Moderation.TimeoutSeconds = 10
	}
	if globalConfig.Batch.MaxItems == 0 {
		globalConfig.Batch.MaxItems = 100
	}
	if globalConfig.Batch.Workers == 0 {
		globalConfig.Batch.Workers = 4
	}
}

func GetConfig() *Config {
	return &globalConfig
}
