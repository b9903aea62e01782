package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rpggio/projreg/internal/tracing"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Auth      AuthConfig      `yaml:"auth"`
	Tracing   tracing.Config  `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how the server is exposed: "http" or "stdio".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// DBConfig selects the store. Driver is "sqlite", "postgres" or "memory".
type DBConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AdminConfig names the single principal allowed to mutate the registry.
type AdminConfig struct {
	Principal string `yaml:"principal"`
}

// AuthConfig controls bearer-token authentication on HTTP transports. When
// disabled, or in stdio mode, callers act as DefaultPrincipal.
type AuthConfig struct {
	Enabled          bool   `yaml:"enabled"`
	DefaultPrincipal string `yaml:"default_principal"`
}

// LocalPrincipal is the identity for the CLI and the stdio transport. An
// unset auth.default_principal falls back to admin.principal.
func (c Config) LocalPrincipal() string {
	if c.Auth.DefaultPrincipal != "" {
		return c.Auth.DefaultPrincipal
	}
	return c.Admin.Principal
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ArchiveConfig selects the event archive sink: "fs" or "s3".
type ArchiveConfig struct {
	Driver    string `yaml:"driver"`
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
	Prefix    string `yaml:"prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "projreg.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Admin: AdminConfig{
			Principal: "admin",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Tracing: tracing.DefaultConfig(),
		Archive: ArchiveConfig{
			Driver: "fs",
			Dir:    "archive",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
// path overrides PROJREG_CONFIG_PATH when set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PROJREG_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"PROJREG_SERVER_HOST":            &cfg.Server.Host,
		"PROJREG_TRANSPORT_MODE":         &cfg.Transport.Mode,
		"PROJREG_DB_DRIVER":              &cfg.DB.Driver,
		"PROJREG_DB_PATH":                &cfg.DB.Path,
		"PROJREG_DB_DSN":                 &cfg.DB.DSN,
		"PROJREG_LOG_LEVEL":              &cfg.Log.Level,
		"PROJREG_ADMIN_PRINCIPAL":        &cfg.Admin.Principal,
		"PROJREG_AUTH_DEFAULT_PRINCIPAL": &cfg.Auth.DefaultPrincipal,
		"PROJREG_TRACING_EXPORTER":       &cfg.Tracing.Exporter,
		"PROJREG_TRACING_FILE_PATH":      &cfg.Tracing.FilePath,
		"PROJREG_TRACING_OTLP_ENDPOINT":  &cfg.Tracing.OTLPEndpoint,
		"PROJREG_ARCHIVE_DRIVER":         &cfg.Archive.Driver,
		"PROJREG_ARCHIVE_DIR":            &cfg.Archive.Dir,
		"PROJREG_ARCHIVE_BUCKET":         &cfg.Archive.Bucket,
		"PROJREG_ARCHIVE_REGION":         &cfg.Archive.Region,
		"PROJREG_ARCHIVE_ENDPOINT":       &cfg.Archive.Endpoint,
		"PROJREG_ARCHIVE_PREFIX":         &cfg.Archive.Prefix,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"PROJREG_AUTH_ENABLED":       &cfg.Auth.Enabled,
		"PROJREG_TRACING_ENABLED":    &cfg.Tracing.Enabled,
		"PROJREG_METRICS_ENABLED":    &cfg.Metrics.Enabled,
		"PROJREG_ARCHIVE_PATH_STYLE": &cfg.Archive.PathStyle,
	}
	for name, dst := range bools {
		if v := os.Getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = b
		}
	}

	if portStr := os.Getenv("PROJREG_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid PROJREG_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if rate := os.Getenv("PROJREG_TRACING_SAMPLE_RATE"); rate != "" {
		f, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			return fmt.Errorf("invalid PROJREG_TRACING_SAMPLE_RATE: %w", err)
		}
		cfg.Tracing.SampleRate = f
	}
	return nil
}

// Validate reports configuration that cannot be served.
func (c Config) Validate() error {
	var errs []error
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		errs = append(errs, fmt.Errorf("unknown transport mode %q", c.Transport.Mode))
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			errs = append(errs, errors.New("db.path required for sqlite"))
		}
	case "postgres":
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db.dsn required for postgres"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown db driver %q", c.DB.Driver))
	}
	switch c.Archive.Driver {
	case "fs", "s3":
	default:
		errs = append(errs, fmt.Errorf("unknown archive driver %q", c.Archive.Driver))
	}
	if strings.TrimSpace(c.Admin.Principal) == "" {
		errs = append(errs, errors.New("admin.principal required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
