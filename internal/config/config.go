package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override configuration keys.
// SPENDLOG_HTTP_PORT sets http.port.
const EnvPrefix = "SPENDLOG_"

type Config struct {
	HTTP      HTTP      `koanf:"http"`
	Data      Data      `koanf:"data"`
	Analytics Analytics `koanf:"analytics"`
	AMQP      AMQP      `koanf:"amqp"`
	Worker    Worker    `koanf:"worker"`
	Log       Log       `koanf:"log"`
	RateLimit RateLimit `koanf:"ratelimit"`
}

type HTTP struct {
	Port int `koanf:"port"`
}

type Data struct {
	File   string `koanf:"file"`
	CSVDir string `koanf:"csvdir"`
}

type Analytics struct {
	DBPath string `koanf:"dbpath"`
}

// AMQP change notifications are disabled when URL is empty.
type AMQP struct {
	URL      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
	Queue    string `koanf:"queue"`
}

type Worker struct {
	SyncInterval time.Duration `koanf:"syncinterval"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type RateLimit struct {
	PerMinute int `koanf:"perminute"`
}

func Defaults() Config {
	return Config{
		HTTP: HTTP{Port: 8081},
		Data: Data{
			File:   "./data/data.json",
			CSVDir: "./data",
		},
		Analytics: Analytics{DBPath: "./data/analytics.db"},
		AMQP: AMQP{
			Exchange: "spendlog",
			Queue:    "tracker_changes",
		},
		Worker:    Worker{SyncInterval: 30 * time.Second},
		Log:       Log{Level: "info", Format: "text"},
		RateLimit: RateLimit{PerMinute: 60},
	}
}

// Load layers the defaults, the optional YAML file at path and the
// SPENDLOG_* environment, in that order.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
			slog.Info("Config file not found, using defaults and environment", "path", path)
		} else {
			slog.Info("Loaded configuration from file", "path", path)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

// SlogLevel maps Log.Level onto slog; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate validates the configuration and returns an error if invalid
func (c Config) Validate() error {
	var errs []string

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.HTTP.Port))
	}

	if c.Data.File == "" {
		errs = append(errs, "data file path cannot be empty")
	}
	if c.Data.CSVDir == "" {
		errs = append(errs, "CSV directory cannot be empty")
	}

	if c.Analytics.DBPath == "" {
		errs = append(errs, "analytics database path cannot be empty")
	} else if dir := filepath.Dir(c.Analytics.DBPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			errs = append(errs, fmt.Sprintf("cannot create analytics database directory '%s': %v", dir, err))
		}
	}

	if c.AMQP.URL != "" {
		if parsedURL, err := url.Parse(c.AMQP.URL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQP.Exchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQP.Queue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.Worker.SyncInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.Worker.SyncInterval))
	} else if c.Worker.SyncInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.Worker.SyncInterval))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.Log.Format))
	}

	if c.RateLimit.PerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit.PerMinute))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
