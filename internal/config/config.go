package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var Config Configuration

type Configuration struct {
	LogLevel int    `json:"logLevel"`
	LogFile  string `json:"logFile"`

	Host      string `json:"host"`
	Port      int    `json:"port"`
	Transport string `json:"transport"`
	WSPath    string `json:"wsPath"`
	Framing   string `json:"framing"`

	ReadBufferSize  int `json:"readBufferSize"`
	SendIntervalMs  int `json:"sendIntervalMs"`
	FrameIntervalMs int `json:"frameIntervalMs"`
	DialTimeoutMs   int `json:"dialTimeoutMs"`
	KeyReleaseMs    int `json:"keyReleaseMs"`

	RecordPath string `json:"recordPath"`
	StatusAddr string `json:"statusAddr"`
	Bell       bool   `json:"bell"`
}

// FieldError names the setting that was rejected.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Err: fmt.Errorf(format, args...)}
}

func Default() Configuration {
	return Configuration{
		LogLevel:        int(slog.LevelInfo),
		LogFile:         "pongclient.log",
		Host:            "localhost",
		Port:            55555,
		Transport:       "tcp",
		WSPath:          "/",
		Framing:         "read",
		ReadBufferSize:  1024,
		SendIntervalMs:  1,
		FrameIntervalMs: 17,
		DialTimeoutMs:   3000,
		KeyReleaseMs:    300,
		Bell:            true,
	}
}

// LoadConfig reads the JSON config at path (config.json when empty) into
// Config. A missing or unreadable file leaves the defaults in place.
func LoadConfig(path string) {
	c, err := Load(path)
	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		slog.Warn("rejected configuration value, using default config instead", slog.String("field", fe.Field), slog.Any("error", fe.Err))
	case err != nil:
		slog.Warn("failed to read configuration, using default config instead", slog.Any("error", err))
	}
	Config = c
}

// Load reads the JSON config file, then applies PONG_* environment overrides,
// optionally from a .env file.
func Load(path string) (Configuration, error) {
	c := Default()

	if path == "" {
		path = "config.json"
	}
	cf, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("failed to open config at path provided, using default config instead", slog.String("path", path))
	case err != nil:
		return Default(), err
	default:
		if err := json.Unmarshal(cf, &c); err != nil {
			return Default(), fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("could not load .env", slog.Any("error", err))
	}
	if err := c.applyEnv(); err != nil {
		return Default(), err
	}

	if err := c.Validate(); err != nil {
		return Default(), err
	}
	return c, nil
}

func (c *Configuration) applyEnv() error {
	if v, ok := os.LookupEnv("PONG_HOST"); ok {
		c.Host = v
	}
	if v, ok := os.LookupEnv("PONG_TRANSPORT"); ok {
		c.Transport = v
	}
	if v, ok := os.LookupEnv("PONG_FRAMING"); ok {
		c.Framing = v
	}
	if v, ok := os.LookupEnv("PONG_RECORD"); ok {
		c.RecordPath = v
	}
	if v, ok := os.LookupEnv("PONG_STATUS_ADDR"); ok {
		c.StatusAddr = v
	}
	if v, ok := os.LookupEnv("PONG_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &FieldError{Field: "PONG_PORT", Err: err}
		}
		c.Port = port
	}
	if v, ok := os.LookupEnv("PONG_LOG_LEVEL"); ok {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err != nil {
			return &FieldError{Field: "PONG_LOG_LEVEL", Err: err}
		}
		c.LogLevel = int(lvl)
	}
	return nil
}

func (c Configuration) Validate() error {
	switch {
	case c.Host == "":
		return fieldErr("host", "is required")
	case c.Port <= 0 || c.Port > 65535:
		return fieldErr("port", "%d out of range", c.Port)
	case c.Transport != "tcp" && c.Transport != "ws":
		return fieldErr("transport", "unknown transport %q", c.Transport)
	case c.Framing != "read" && c.Framing != "line":
		return fieldErr("framing", "unknown framing %q", c.Framing)
	case c.ReadBufferSize < 64:
		return fieldErr("readBufferSize", "%d is too small", c.ReadBufferSize)
	case c.SendIntervalMs <= 0:
		return fieldErr("sendIntervalMs", "must be positive")
	case c.FrameIntervalMs <= 0:
		return fieldErr("frameIntervalMs", "must be positive")
	}
	return nil
}

func (c Configuration) SendInterval() time.Duration {
	return time.Duration(c.SendIntervalMs) * time.Millisecond
}

func (c Configuration) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

func (c Configuration) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMs) * time.Millisecond
}

func (c Configuration) KeyRelease() time.Duration {
	return time.Duration(c.KeyReleaseMs) * time.Millisecond
}
