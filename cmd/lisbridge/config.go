package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pathdss/lisbridge/logger"
	"github.com/pathdss/lisbridge/worklist"
)

// bridgeConfig holds everything the binary needs to assemble the service.
type bridgeConfig struct {
	ListenHost string
	ListenPort int
	RemoteHost string
	RemotePort int

	MaxAttempts int
	RetryDelay  time.Duration

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ConnectTimeout time.Duration

	WorkDir       string
	SweepMaxAge   time.Duration
	SweepInterval time.Duration

	InferenceCommand string
	InferenceArgs    []string

	LogLevel logger.Level
}

func defaultBridgeConfig() bridgeConfig {
	return bridgeConfig{
		ListenHost:     "0.0.0.0",
		ListenPort:     2575,
		MaxAttempts:    3,
		RetryDelay:     2 * time.Minute,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   30 * time.Second,
		ConnectTimeout: 10 * time.Second,
		SweepMaxAge:    3 * time.Hour,
		SweepInterval:  time.Hour,
		LogLevel:       logger.InfoLevel,
	}
}

func (c bridgeConfig) retryPolicy() worklist.RetryPolicy {
	return worklist.RetryPolicy{MaxAttempts: c.MaxAttempts, Delay: c.RetryDelay}
}

type fileConfig struct {
	ListenHost string `toml:"listen_host"`
	ListenPort int    `toml:"listen_port"`
	RemoteHost string `toml:"remote_host"`
	RemotePort int    `toml:"remote_port"`

	MaxAttempts int    `toml:"max_attempts"`
	RetryDelay  string `toml:"retry_delay"`

	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	ConnectTimeout string `toml:"connect_timeout"`

	WorkDir       string `toml:"work_dir"`
	SweepMaxAge   string `toml:"sweep_max_age"`
	SweepInterval string `toml:"sweep_interval"`

	InferenceCommand string   `toml:"inference_command"`
	InferenceArgs    []string `toml:"inference_args"`

	LogLevel string `toml:"log_level"`
}

func loadBridgeConfig(path string) (bridgeConfig, error) {
	cfg := defaultBridgeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return bridgeConfig{}, fmt.Errorf("load bridge config: %w", err)
	}

	if meta.IsDefined("listen_host") {
		cfg.ListenHost = strings.TrimSpace(raw.ListenHost)
	}

	if meta.IsDefined("listen_port") {
		cfg.ListenPort = raw.ListenPort
	}

	if meta.IsDefined("remote_host") {
		cfg.RemoteHost = strings.TrimSpace(raw.RemoteHost)
	}

	if meta.IsDefined("remote_port") {
		cfg.RemotePort = raw.RemotePort
	}

	if cfg.RemoteHost == "" {
		return bridgeConfig{}, fmt.Errorf("remote_host is required in %s", path)
	}

	if meta.IsDefined("max_attempts") {
		cfg.MaxAttempts = raw.MaxAttempts
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"retry_delay", raw.RetryDelay, &cfg.RetryDelay},
		{"read_timeout", raw.ReadTimeout, &cfg.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.WriteTimeout},
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"sweep_max_age", raw.SweepMaxAge, &cfg.SweepMaxAge},
		{"sweep_interval", raw.SweepInterval, &cfg.SweepInterval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return bridgeConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("work_dir") {
		cfg.WorkDir = strings.TrimSpace(raw.WorkDir)
	}

	if meta.IsDefined("inference_command") {
		cfg.InferenceCommand = strings.TrimSpace(raw.InferenceCommand)
	}
	if cfg.InferenceCommand == "" {
		return bridgeConfig{}, fmt.Errorf("inference_command is required in %s", path)
	}

	if meta.IsDefined("inference_args") {
		cfg.InferenceArgs = raw.InferenceArgs
	}

	if meta.IsDefined("log_level") {
		level, err := parseLogLevel(raw.LogLevel)
		if err != nil {
			return bridgeConfig{}, err
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func parseLogLevel(s string) (logger.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logger.DebugLevel, nil
	case "info", "":
		return logger.InfoLevel, nil
	case "warn", "warning":
		return logger.WarnLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q", s)
	}
}
