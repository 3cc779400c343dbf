package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tdcarpool/carpool/backend/internal/logging"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server    ServerConfig
	Assistant AssistantConfig
	Log       LogConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// AssistantConfig tunes the chat widget backend.
type AssistantConfig struct {
	ReplyDelay  time.Duration
	ReplyJitter time.Duration
	// RulesFile overrides the embedded rule table when set.
	RulesFile      string
	SessionIdleTTL time.Duration
	SweepInterval  time.Duration
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// env binds each key to the variable operators set.
var env = map[string]string{
	"server.addr":                "PORT",
	"server.read_header_timeout": "SERVER_READ_HEADER_TIMEOUT",
	"server.idle_timeout":        "SERVER_IDLE_TIMEOUT",
	"server.shutdown_timeout":    "SERVER_SHUTDOWN_TIMEOUT",
	"assistant.reply_delay":      "ASSISTANT_REPLY_DELAY",
	"assistant.reply_jitter":     "ASSISTANT_REPLY_JITTER",
	"assistant.rules_file":       "ASSISTANT_RULES_FILE",
	"assistant.session_idle_ttl": "ASSISTANT_SESSION_IDLE_TTL",
	"assistant.sweep_interval":   "ASSISTANT_SWEEP_INTERVAL",
	"log.level":                  "LOG_LEVEL",
	"log.format":                 "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "8080")
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("assistant.reply_delay", "1s")
	v.SetDefault("assistant.reply_jitter", "0s")
	v.SetDefault("assistant.rules_file", "")
	v.SetDefault("assistant.session_idle_ttl", "30m")
	v.SetDefault("assistant.sweep_interval", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads defaults, then the optional YAML file at path (or CONFIG_FILE),
// then environment variables. Later sources win.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	addr, err := normalizeAddr(v.GetString("server.addr"))
	if err != nil {
		return nil, err
	}

	var errs []error
	duration := func(key string) time.Duration {
		raw := strings.TrimSpace(v.GetString(key))
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s value %q: %w", env[key], raw, err))
			return 0
		}
		if d < 0 {
			errs = append(errs, fmt.Errorf("invalid %s value %q: must not be negative", env[key], raw))
		}
		return d
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:              addr,
			ReadHeaderTimeout: duration("server.read_header_timeout"),
			IdleTimeout:       duration("server.idle_timeout"),
			ShutdownTimeout:   duration("server.shutdown_timeout"),
		},
		Assistant: AssistantConfig{
			ReplyDelay:     duration("assistant.reply_delay"),
			ReplyJitter:    duration("assistant.reply_jitter"),
			RulesFile:      strings.TrimSpace(v.GetString("assistant.rules_file")),
			SessionIdleTTL: duration("assistant.session_idle_ttl"),
			SweepInterval:  duration("assistant.sweep_interval"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
			Format: strings.ToLower(strings.TrimSpace(v.GetString("log.format"))),
		},
	}

	if cfg.Assistant.SweepInterval == 0 {
		errs = append(errs, fmt.Errorf("invalid ASSISTANT_SWEEP_INTERVAL: must be positive"))
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch cfg.Log.Format {
	case "console", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid LOG_FORMAT value %q", cfg.Log.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeAddr accepts "8080", ":8080" or "host:8080".
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	if strings.Contains(port, ":") {
		return port, nil
	}
	return ":" + port, nil
}
