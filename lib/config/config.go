// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable the collector
// reads. HEIMDALL_STORAGE_PATH sets storage_path, and so on.
const EnvPrefix = "HEIMDALL_"

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = EnvPrefix + "CONFIG"

// DefaultPort is the UDP port producers send to unless told otherwise.
const DefaultPort = 62000

// Duration is a time.Duration that reads and writes as a Go duration
// string ("250ms", "1m30s") in every config source.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. A bare integer is
// taken as milliseconds.
func (d *Duration) UnmarshalText(text []byte) error {
	value := strings.TrimSpace(string(text))
	if millis, err := strconv.ParseInt(value, 10, 64); err == nil {
		*d = Duration(time.Duration(millis) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q", value)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the collector configuration. It is assembled once at
// startup by Load and not modified afterwards.
type Config struct {
	// BindAddress is the host the listeners bind.
	BindAddress string `yaml:"bind_address" json:"bind_address" koanf:"bind_address" validate:"required"`

	// Port is the main listener's UDP port.
	Port int `yaml:"port" json:"port" koanf:"port" validate:"min=1,max=65535"`

	// AltPort, when non-zero, starts a second listener on the same
	// host. Both listeners append to the same storage.
	AltPort int `yaml:"alt_port" json:"alt_port" koanf:"alt_port" validate:"min=0,max=65535,nefield=Port"`

	// StoragePath is the SQLite database file. Empty keeps records in
	// memory for the life of the process. ${VAR} and ${VAR:-default}
	// are expanded.
	StoragePath string `yaml:"storage_path" json:"storage_path" koanf:"storage_path"`

	// PoolSize is the SQLite connection pool size. Zero picks the pool
	// default.
	PoolSize int `yaml:"pool_size" json:"pool_size" koanf:"pool_size" validate:"min=0"`

	// Dashboard runs the terminal UI when stdin and stdout are
	// terminals. False runs headless.
	Dashboard bool `yaml:"dashboard" json:"dashboard" koanf:"dashboard"`

	// PollInterval bounds how long a listener waits for a datagram
	// before checking for shutdown.
	PollInterval Duration `yaml:"poll_interval" json:"poll_interval" koanf:"poll_interval" validate:"gt=0"`

	// RefreshInterval is the dashboard redraw period.
	RefreshInterval Duration `yaml:"refresh_interval" json:"refresh_interval" koanf:"refresh_interval" validate:"gt=0"`

	// ChunkSize is how many records the dashboard fetches beyond the
	// visible rows.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size" koanf:"chunk_size" validate:"min=1"`

	// ReadBufferBytes sets the listener socket's receive buffer. Zero
	// keeps the kernel default.
	ReadBufferBytes int `yaml:"read_buffer_bytes" json:"read_buffer_bytes" koanf:"read_buffer_bytes" validate:"min=0"`

	// LogLevel is the minimum level of the collector's own log.
	LogLevel string `yaml:"log_level" json:"log_level" koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFile receives the collector's own log as JSON lines. While the
	// dashboard owns the terminal this is the only place the full log
	// goes.
	LogFile string `yaml:"log_file" json:"log_file" koanf:"log_file"`

	// ExportPath, when set, receives an archive of every stored record
	// at shutdown.
	ExportPath string `yaml:"export_path" json:"export_path" koanf:"export_path"`

	// ExportCompression is the archive compression: none, lz4 or zstd.
	ExportCompression string `yaml:"export_compression" json:"export_compression" koanf:"export_compression" validate:"oneof=none lz4 zstd"`

	// ImportPath, when set, names an archive whose records are appended
	// to storage before the listeners start.
	ImportPath string `yaml:"import_path" json:"import_path" koanf:"import_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BindAddress:       "0.0.0.0",
		Port:              DefaultPort,
		Dashboard:         true,
		PollInterval:      Duration(100 * time.Millisecond),
		RefreshInterval:   Duration(250 * time.Millisecond),
		ChunkSize:         64,
		LogLevel:          "info",
		ExportCompression: "zstd",
	}
}

// ListenAddress is the main listener's host:port.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

// AltListenAddress is the second listener's host:port, if one is
// configured.
func (c *Config) AltListenAddress() (string, bool) {
	if c.AltPort == 0 {
		return "", false
	}
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.AltPort)), true
}

// SlogLevel converts LogLevel for slog handlers.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LoadOptions selects the sources Load reads on top of the defaults.
type LoadOptions struct {
	// Path is a .yaml, .yml, .json or .jsonc config file. Empty skips
	// the file.
	Path string

	// EnvFile is a dotenv file. Variables already set in the process
	// environment win over the file. A missing file is not an error.
	EnvFile string

	// Flags, if set, overrides every field whose flag was set
	// explicitly on the command line. The set must have been built by
	// RegisterFlags.
	Flags *pflag.FlagSet
}

// Load assembles the configuration. Sources, lowest precedence first:
// Default, the config file, the dotenv file, HEIMDALL_* environment
// variables, explicitly set flags. The result is validated.
func Load(options LoadOptions) (*Config, error) {
	cfg := Default()

	if options.Path != "" {
		if err := cfg.loadFile(options.Path); err != nil {
			return nil, err
		}
	}

	if options.EnvFile != "" {
		if err := godotenv.Load(options.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading env file %s: %w", options.EnvFile, err)
		}
	}

	if err := cfg.loadEnvironment(); err != nil {
		return nil, err
	}

	if options.Flags != nil {
		if err := cfg.applyFlags(options.Flags); err != nil {
			return nil, err
		}
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays a config file. Keys the file does not name keep
// their current values; unknown keys are an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config: %s: unsupported file type (want .yaml, .yml, .json or .jsonc)", path)
	}
	return nil
}

// loadEnvironment overlays HEIMDALL_* variables: HEIMDALL_ALT_PORT
// sets alt_port.
func (c *Config) loadEnvironment() error {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(name string) string {
		return strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	}), nil)
	if err != nil {
		return fmt.Errorf("config: reading environment: %w", err)
	}
	if err := k.Unmarshal("", c); err != nil {
		return fmt.Errorf("config: decoding environment: %w", err)
	}
	return nil
}

// RegisterFlags defines the collector's flags on flags. Defaults shown
// in usage come from Default; only flags the user sets override other
// sources.
func RegisterFlags(flags *pflag.FlagSet) {
	defaults := Default()
	flags.String("config", "", "config file (.yaml, .yml, .json, .jsonc); also "+EnvConfigPath)
	flags.String("env-file", ".env", "dotenv file read before the environment")
	flags.String("bind-address", defaults.BindAddress, "host the listeners bind")
	flags.IntP("port", "p", defaults.Port, "UDP port of the main listener")
	flags.Int("alt-port", defaults.AltPort, "UDP port of a second listener (0 disables)")
	flags.StringP("storage", "s", defaults.StoragePath, "SQLite database file (empty keeps records in memory)")
	flags.Int("pool-size", defaults.PoolSize, "SQLite connection pool size (0 uses the default)")
	flags.Bool("dashboard", defaults.Dashboard, "run the terminal dashboard")
	flags.Bool("headless", false, "run without the dashboard (same as --dashboard=false)")
	flags.Duration("poll-interval", defaults.PollInterval.Std(), "listener receive timeout")
	flags.Duration("refresh-interval", defaults.RefreshInterval.Std(), "dashboard redraw period")
	flags.Int("chunk-size", defaults.ChunkSize, "records fetched beyond the visible rows")
	flags.Int("read-buffer", defaults.ReadBufferBytes, "listener socket receive buffer in bytes (0 keeps the kernel default)")
	flags.String("log-level", defaults.LogLevel, "collector log level: debug, info, warn, error")
	flags.String("log-file", defaults.LogFile, "write the collector log to this file as JSON lines")
	flags.String("export", defaults.ExportPath, "write an archive of all records here at shutdown")
	flags.String("export-compression", defaults.ExportCompression, "archive compression: none, lz4, zstd")
	flags.String("import", defaults.ImportPath, "append the records of this archive before listening")
}

// FromFlags loads the configuration named by the --config and
// --env-file flags, falling back to HEIMDALL_CONFIG for the file.
func FromFlags(flags *pflag.FlagSet) (*Config, error) {
	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Load(LoadOptions{Path: path, EnvFile: envFile, Flags: flags})
}

// applyFlags copies every explicitly set flag into c.
func (c *Config) applyFlags(flags *pflag.FlagSet) error {
	var errs []error
	flags.Visit(func(flag *pflag.Flag) {
		var err error
		switch flag.Name {
		case "bind-address":
			c.BindAddress, err = flags.GetString(flag.Name)
		case "port":
			c.Port, err = flags.GetInt(flag.Name)
		case "alt-port":
			c.AltPort, err = flags.GetInt(flag.Name)
		case "storage":
			c.StoragePath, err = flags.GetString(flag.Name)
		case "pool-size":
			c.PoolSize, err = flags.GetInt(flag.Name)
		case "dashboard":
			c.Dashboard, err = flags.GetBool(flag.Name)
		case "headless":
			var headless bool
			headless, err = flags.GetBool(flag.Name)
			if headless {
				c.Dashboard = false
			}
		case "poll-interval":
			var value time.Duration
			value, err = flags.GetDuration(flag.Name)
			c.PollInterval = Duration(value)
		case "refresh-interval":
			var value time.Duration
			value, err = flags.GetDuration(flag.Name)
			c.RefreshInterval = Duration(value)
		case "chunk-size":
			c.ChunkSize, err = flags.GetInt(flag.Name)
		case "read-buffer":
			c.ReadBufferBytes, err = flags.GetInt(flag.Name)
		case "log-level":
			c.LogLevel, err = flags.GetString(flag.Name)
		case "log-file":
			c.LogFile, err = flags.GetString(flag.Name)
		case "export":
			c.ExportPath, err = flags.GetString(flag.Name)
		case "export-compression":
			c.ExportCompression, err = flags.GetString(flag.Name)
		case "import":
			c.ImportPath, err = flags.GetString(flag.Name)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("config: flag --%s: %w", flag.Name, err))
		}
	})
	return errors.Join(errs...)
}

// expandVariables expands ${VAR} and ${VAR:-default} in the path
// fields.
func (c *Config) expandVariables() {
	c.StoragePath = expandVars(c.StoragePath)
	c.LogFile = expandVars(c.LogFile)
	c.ExportPath = expandVars(c.ExportPath)
	c.ImportPath = expandVars(c.ImportPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the names users write in files and variables.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field constraint and reports all violations
// together.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("config: %w", err)
	}
	errs := make([]error, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		errs = append(errs, &FieldError{
			Field: fieldError.Field(),
			Rule:  ruleText(fieldError),
			Value: fieldError.Value(),
		})
	}
	return errors.Join(errs...)
}

// FieldError is one failed constraint.
type FieldError struct {
	Field string
	Rule  string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s: %v does not satisfy %s", e.Field, e.Value, e.Rule)
}

func ruleText(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "required (must not be empty)"
	case "oneof":
		return "one of " + strings.ReplaceAll(fieldError.Param(), " ", ", ")
	case "min":
		return ">= " + fieldError.Param()
	case "max":
		return "<= " + fieldError.Param()
	case "gt":
		return "> " + fieldError.Param()
	case "nefield":
		return "different from port"
	default:
		if fieldError.Param() != "" {
			return fieldError.Tag() + "=" + fieldError.Param()
		}
		return fieldError.Tag()
	}
}
