// Package config loads the configuration of the umqtt command line tool.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Connect ConnectConfig `yaml:"connect"`
}

// LogConfig controls the logrus output of the tool.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is either text or json.
	Format string `yaml:"format"`
	// Output is stdout, stderr or a file path.
	Output string `yaml:"output"`
}

// ConnectConfig holds the defaults for building CONNECT packets.
type ConnectConfig struct {
	// ClientID defaults to a random identifier when empty.
	ClientID     string `yaml:"client_id"`
	KeepAlive    int    `yaml:"keep_alive"`
	CleanSession bool   `yaml:"clean_session"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides. An empty path skips the file and yields the defaults.
//
// Environment variables follow the pattern UMQTT_SECTION_KEY, for example
// UMQTT_LOG_LEVEL or UMQTT_CONNECT_CLIENT_ID.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Connect: ConnectConfig{
			KeepAlive:    60,
			CleanSession: true,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("UMQTT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("UMQTT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("UMQTT_LOG_OUTPUT"); v != "" {
		cfg.Log.Output = v
	}

	if v := os.Getenv("UMQTT_CONNECT_CLIENT_ID"); v != "" {
		cfg.Connect.ClientID = v
	}
	if v := os.Getenv("UMQTT_CONNECT_KEEP_ALIVE"); v != "" {
		keepAlive, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("UMQTT_CONNECT_KEEP_ALIVE: %w", err)
		}
		cfg.Connect.KeepAlive = keepAlive
	}
	if v := os.Getenv("UMQTT_CONNECT_CLEAN_SESSION"); v != "" {
		clean, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("UMQTT_CONNECT_CLEAN_SESSION: %w", err)
		}
		cfg.Connect.CleanSession = clean
	}
	if v := os.Getenv("UMQTT_CONNECT_USERNAME"); v != "" {
		cfg.Connect.Username = v
	}
	if v := os.Getenv("UMQTT_CONNECT_PASSWORD"); v != "" {
		cfg.Connect.Password = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log.level must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, "log.format must be text or json")
	}
	if c.Log.Output == "" {
		errs = append(errs, "log.output is required")
	}

	if c.Connect.KeepAlive < 0 || c.Connect.KeepAlive > 0xFFFF {
		errs = append(errs, "connect.keep_alive must be between 0 and 65535")
	}
	if len(c.Connect.ClientID) > 0xFFFF {
		errs = append(errs, "connect.client_id is too long")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Apply configures logger accordingly. The returned closer releases the
// log file, if any.
func (l LogConfig) Apply(logger *log.Logger) (io.Closer, error) {
	switch strings.ToLower(l.Level) {
	case "error":
		logger.SetLevel(log.ErrorLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "debug":
		logger.SetLevel(log.DebugLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q", l.Level)
	}

	switch strings.ToLower(l.Format) {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		logger.SetFormatter(&log.TextFormatter{})
	}

	switch l.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr", "":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(l.Output,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		logger.SetOutput(f)
		return f, nil
	}
	return io.NopCloser(nil), nil
}
