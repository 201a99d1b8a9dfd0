package config

import (
	"errors"
	"io/fs"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "dataprobe/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Admin   AdminConfig
	Data    DataConfig
	Session SessionConfig
	Log     LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AdminConfig holds the ops server (metrics, health, pprof) settings
type AdminConfig struct {
	Port    string
	Enabled bool
}

// DataConfig holds upload processing settings
type DataConfig struct {
	MaxUploadMB  int64
	CSVDelimiter rune
	MaxRows      int
}

// SessionConfig holds session lifecycle settings
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// MaxUploadBytes is the upload cap in bytes
func (d DataConfig) MaxUploadBytes() int64 {
	return d.MaxUploadMB << 20
}

// LoadDotEnv reads .env files into the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return apperrors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

// Load reads configuration from defaults, an optional CONFIG_FILE and environment
// variables (highest precedence), then validates it
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("ADMIN_PORT", "6060")
	v.SetDefault("ADMIN_ENABLED", true)
	v.SetDefault("MAX_UPLOAD_MB", 50)
	v.SetDefault("MAX_ROWS", 0)
	v.SetDefault("CSV_DELIMITER", ",")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	v.SetDefault("LOG_LEVEL", "INFO")

	if configFile := v.GetString("CONFIG_FILE"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, apperrors.Wrapf(err, "failed to read config file %s", configFile))
		}
	}

	delimiter, _ := utf8.DecodeRuneInString(v.GetString("CSV_DELIMITER"))
	if v.GetString("CSV_DELIMITER") == `\t` {
		delimiter = '\t'
	}

	config := &Config{
		Server: ServerConfig{
			Port:    v.GetString("PORT"),
			GinMode: v.GetString("GIN_MODE"),
		},
		Admin: AdminConfig{
			Port:    v.GetString("ADMIN_PORT"),
			Enabled: v.GetBool("ADMIN_ENABLED"),
		},
		Data: DataConfig{
			MaxUploadMB:  v.GetInt64("MAX_UPLOAD_MB"),
			CSVDelimiter: delimiter,
			MaxRows:      v.GetInt("MAX_ROWS"),
		},
		Session: SessionConfig{
			TTL:           v.GetDuration("SESSION_TTL"),
			SweepInterval: v.GetDuration("SESSION_SWEEP_INTERVAL"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, apperrors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if !validPort(config.Server.Port) {
		return apperrors.ConfigInvalid("PORT must be a port number")
	}
	if config.Admin.Enabled && !validPort(config.Admin.Port) {
		return apperrors.ConfigInvalid("ADMIN_PORT must be a port number")
	}
	if config.Admin.Enabled && config.Admin.Port == config.Server.Port {
		return apperrors.ConfigInvalid("ADMIN_PORT must differ from PORT")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return apperrors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if config.Data.MaxUploadMB <= 0 {
		return apperrors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Data.MaxRows < 0 {
		return apperrors.ConfigInvalid("MAX_ROWS cannot be negative")
	}
	switch config.Data.CSVDelimiter {
	case utf8.RuneError, '"', '\r', '\n':
		return apperrors.ConfigInvalid("CSV_DELIMITER is not a usable delimiter")
	}
	if config.Session.TTL <= 0 {
		return apperrors.ConfigInvalid("SESSION_TTL must be a positive duration")
	}
	if config.Session.SweepInterval <= 0 {
		return apperrors.ConfigInvalid("SESSION_SWEEP_INTERVAL must be a positive duration")
	}
	return nil
}

func validPort(port string) bool {
	n, err := strconv.Atoi(port)
	return err == nil && n > 0 && n < 65536
}
