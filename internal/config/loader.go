// Package config loads the pdfmark configuration from files,
// environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "pdfmark"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "PDFMARK"
)

// Loader handles loading configuration from the supported sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a configuration loader on the global viper instance
// so cobra flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader on a private viper instance.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads configuration from the search paths, the environment, and
// the defaults, then validates the result. A missing config file is
// not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile reads configuration from a specific file path. An empty
// path falls back to Load.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath("/etc/pdfmark")
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log_level", "info")

	l.v.SetDefault("server.host", "0.0.0.0")
	l.v.SetDefault("server.port", 18080)
	l.v.SetDefault("server.max_upload_size", int64(100<<20))

	l.v.SetDefault("storage.upload_dir", "uploads")

	l.v.SetDefault("security.api_keys", []string{})
	l.v.SetDefault("security.cors_origins", []string{"*"})

	l.v.SetDefault("converter.chunk_size", 10)
	l.v.SetDefault("converter.progress_update_interval", 10)
	l.v.SetDefault("converter.table_detection_enabled", true)
	l.v.SetDefault("converter.extract_images", true)
	l.v.SetDefault("converter.preserve_formatting", true)
	l.v.SetDefault("converter.table_min_columns", 2)
	l.v.SetDefault("converter.max_concurrent_jobs", 4)

	l.v.SetDefault("ocr.backend", "off")
	l.v.SetDefault("ocr.local.num_threads", 0)
	l.v.SetDefault("ocr.openai.model", "gpt-4o-mini")

	l.v.SetDefault("jobs.retention", time.Hour)
}

// Default returns the built-in configuration without touching files or
// the environment.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          18080,
			MaxUploadSize: 100 << 20,
		},
		Storage:  StorageConfig{UploadDir: "uploads"},
		Security: SecurityConfig{CORSOrigins: []string{"*"}},
		Converter: ConverterConfig{
			ChunkSize:              10,
			ProgressUpdateInterval: 10,
			TableDetectionEnabled:  true,
			ExtractImages:          true,
			PreserveFormatting:     true,
			TableMinColumns:        2,
			MaxConcurrentJobs:      4,
		},
		OCR: OCRConfig{
			Backend: "off",
			OpenAI:  OpenAIOCRConfig{Model: "gpt-4o-mini"},
		},
		Jobs: JobsConfig{Retention: time.Hour},
	}
}
