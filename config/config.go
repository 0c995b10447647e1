package config

import (
	"log"
	"os"
	"strconv"
	"time"

	pkgconfig "lifeboard/pkg/config"
)

// AppConfig holds settings that shape domain behaviour.
type AppConfig struct {
	// Timezone decides which calendar day counts as "today" for streaks and rates.
	Timezone string `yaml:"timezone"`
}

// OutboxConfig 控制 outbox dispatcher 的扫描节奏
type OutboxConfig struct {
	Interval   time.Duration `yaml:"interval"`
	BatchSize  int           `yaml:"batch_size"`
	MaxRetries int           `yaml:"max_retries"`
}

// OtelConfig toggles OTLP trace export.
type OtelConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type Config struct {
	DB     pkgconfig.DBConfig     `yaml:"db"`
	MQ     pkgconfig.MQConfig     `yaml:"mq"`
	Redis  pkgconfig.RedisConfig  `yaml:"redis"`
	Auth   pkgconfig.AuthConfig   `yaml:"auth"`
	Server pkgconfig.ServerConfig `yaml:"server"`
	App    AppConfig              `yaml:"app"`
	Outbox OutboxConfig           `yaml:"outbox"`
	Otel   OtelConfig             `yaml:"otel"`
}

// Load reads config/base.yaml, the CONFIG_ENV overlay and secrets, then applies
// environment overrides. It exits the process when the files are unusable.
func Load() *Config {
	raw, err := pkgconfig.LoadConfig(pkgconfig.GetConfigEnv(), pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg := Defaults()
	if err := pkgconfig.Decode(raw, cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	// 环境变量覆盖（生产环境使用）
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideAuthFromEnv(&cfg.Auth)
	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		cfg.App.Timezone = tz
	}
	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			cfg.Otel.Enabled = b
		}
	}

	return cfg
}

// Defaults returns the values used when a key is absent from every file.
func Defaults() *Config {
	return &Config{
		DB: pkgconfig.DBConfig{
			Host:      "localhost",
			Port:      5432,
			MaxConns:  10,
			SlowQuery: 100 * time.Millisecond,
		},
		Server: pkgconfig.ServerConfig{
			Port:           ":8080",
			RateLimitRPS:   5,
			RateLimitBurst: 30,
			RequestTimeout: 10 * time.Second,
		},
		App: AppConfig{Timezone: "UTC"},
		Outbox: OutboxConfig{
			Interval:   time.Second,
			BatchSize:  100,
			MaxRetries: 5,
		},
	}
}

// Location resolves the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
