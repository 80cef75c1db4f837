package config

import (
	"fmt"
	"time"
)

// Config is the complete configuration for the pdfmark service and CLI.
// Values load from configuration files, environment variables, and
// command-line flags, in ascending precedence.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	Server    ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage" json:"storage"`
	Security  SecurityConfig  `mapstructure:"security" yaml:"security" json:"security"`
	Converter ConverterConfig `mapstructure:"converter" yaml:"converter" json:"converter"`
	OCR       OCRConfig       `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Jobs      JobsConfig      `mapstructure:"jobs" yaml:"jobs" json:"jobs"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string `mapstructure:"host" yaml:"host" json:"host"`
	Port          int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadSize int64  `mapstructure:"max_upload_size" yaml:"max_upload_size" json:"max_upload_size"`
}

// Addr returns the host:port the server listens on.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig contains upload directory settings.
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir" yaml:"upload_dir" json:"upload_dir"`
}

// SecurityConfig contains API authentication and CORS settings. An
// empty key list disables authentication.
type SecurityConfig struct {
	APIKeys     []string `mapstructure:"api_keys" yaml:"api_keys" json:"api_keys"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// ConverterConfig contains conversion pipeline settings.
type ConverterConfig struct {
	ChunkSize              int  `mapstructure:"chunk_size" yaml:"chunk_size" json:"chunk_size"`
	ProgressUpdateInterval int  `mapstructure:"progress_update_interval" yaml:"progress_update_interval" json:"progress_update_interval"`
	TableDetectionEnabled  bool `mapstructure:"table_detection_enabled" yaml:"table_detection_enabled" json:"table_detection_enabled"`
	ExtractImages          bool `mapstructure:"extract_images" yaml:"extract_images" json:"extract_images"`
	PreserveFormatting     bool `mapstructure:"preserve_formatting" yaml:"preserve_formatting" json:"preserve_formatting"`
	TableMinColumns        int  `mapstructure:"table_min_columns" yaml:"table_min_columns" json:"table_min_columns"`
	MaxConcurrentJobs      int  `mapstructure:"max_concurrent_jobs" yaml:"max_concurrent_jobs" json:"max_concurrent_jobs"`
}

// OCRConfig selects and tunes the OCR backend.
type OCRConfig struct {
	// Backend is one of "local", "openai", or "off".
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	Local  LocalOCRConfig  `mapstructure:"local" yaml:"local" json:"local"`
	OpenAI OpenAIOCRConfig `mapstructure:"openai" yaml:"openai" json:"openai"`
}

// LocalOCRConfig contains ONNX model paths for the local backend.
type LocalOCRConfig struct {
	DetModelPath string `mapstructure:"det_model_path" yaml:"det_model_path" json:"det_model_path"`
	RecModelPath string `mapstructure:"rec_model_path" yaml:"rec_model_path" json:"rec_model_path"`
	DictPath     string `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	NumThreads   int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// OpenAIOCRConfig contains hosted vision backend settings.
type OpenAIOCRConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	Model   string `mapstructure:"model" yaml:"model" json:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
}

// JobsConfig contains job registry settings.
type JobsConfig struct {
	Retention time.Duration `mapstructure:"retention" yaml:"retention" json:"retention"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir must not be empty")
	}
	if c.Converter.ChunkSize < 1 {
		return fmt.Errorf("converter.chunk_size must be at least 1, got %d", c.Converter.ChunkSize)
	}
	if c.Converter.ProgressUpdateInterval < 1 {
		return fmt.Errorf("converter.progress_update_interval must be at least 1, got %d", c.Converter.ProgressUpdateInterval)
	}
	if c.Converter.TableMinColumns < 1 {
		return fmt.Errorf("converter.table_min_columns must be at least 1, got %d", c.Converter.TableMinColumns)
	}
	if c.Converter.MaxConcurrentJobs < 1 {
		return fmt.Errorf("converter.max_concurrent_jobs must be at least 1, got %d", c.Converter.MaxConcurrentJobs)
	}
	switch c.OCR.Backend {
	case "local", "openai", "off":
	default:
		return fmt.Errorf("ocr.backend must be one of local, openai, off; got %q", c.OCR.Backend)
	}
	if c.Jobs.Retention < 0 {
		return fmt.Errorf("jobs.retention must not be negative")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}
