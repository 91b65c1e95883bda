package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/imageio"
)

// globalConfig stores the configuration loaded with command-line overrides
// so the websocket handler sees the same limits as the server.
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// Config holds the application configuration
type Config struct {
	Image      ImageConfig      `json:"image"`
	Conversion ConversionConfig `json:"conversion"`
	Output     OutputConfig     `json:"output"`
	Server     ServerConfig     `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
}

// LoadOptions holds command-line override options. Zero values mean
// "not set on the command line".
type LoadOptions struct {
	Rows        int
	Cols        int
	Format      string
	Variant     string
	Workers     int
	OutputDir   string
	Diagnostics bool
	SaveYCC     bool
	NoCompress  bool
	Preview     bool
	Host        string
	Port        string
	LogLevel    string
	LogFormat   string
}

// ImageConfig describes the input raster. Rows and Cols apply to raw input.
type ImageConfig struct {
	Rows      int    `json:"rows" env:"IMAGE_ROWS" default:"480"`
	Cols      int    `json:"cols" env:"IMAGE_COLS" default:"500"`
	Format    string `json:"format" env:"IMAGE_FORMAT" default:"auto"`
	MaxPixels int    `json:"maxPixels" env:"IMAGE_MAX_PIXELS" default:"16777216"`
}

// ConversionConfig selects the transform implementation.
type ConversionConfig struct {
	Variant string `json:"variant" env:"CSC_VARIANT" default:"scalar"`
	Workers int    `json:"workers" env:"CSC_WORKERS" default:"1"`
}

// OutputConfig replaces the compile-time diagnostic switches of the
// original converter.
type OutputConfig struct {
	Dir          string `json:"dir" env:"OUTPUT_DIR" default:"."`
	Diagnostics  bool   `json:"diagnostics" env:"OUTPUT_DIAGNOSTICS" default:"false"`
	PrintRuntime bool   `json:"printRuntime" env:"PRINT_RUNTIME" default:"true"`
	SaveYCC      bool   `json:"saveYCC" env:"OUTPUT_SAVE_YCC" default:"false"`
	Compress     bool   `json:"compress" env:"OUTPUT_COMPRESS" default:"true"`
	Preview      bool   `json:"preview" env:"OUTPUT_PREVIEW" default:"false"`
}

// ServerConfig holds conversion server configuration
type ServerConfig struct {
	Host           string        `json:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port           string        `json:"port" env:"SERVER_PORT" default:"8080"`
	ReadTimeout    time.Duration `json:"readTimeout" env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `json:"writeTimeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout    time.Duration `json:"idleTimeout" env:"SERVER_IDLE_TIMEOUT" default:"120s"`
	AllowedOrigins []string      `json:"allowedOrigins" env:"ALLOWED_ORIGINS" default:""`
	MaxFrameBytes  int64         `json:"maxFrameBytes" env:"SERVER_MAX_FRAME_BYTES" default:"4194304"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"LOG_FORMAT" default:"text"`
	File   string `json:"file" env:"LOG_FILE" default:""`
}

// Dimensions returns the validated raw image size.
func (c ImageConfig) Dimensions() (csc.Dimensions, error) {
	return csc.NewDimensions(c.Rows, c.Cols)
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration with command-line overrides
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	config := &Config{}

	// Image config
	config.Image.Rows = getIntOverride(opts.Rows, "IMAGE_ROWS", 480)
	config.Image.Cols = getIntOverride(opts.Cols, "IMAGE_COLS", 500)
	config.Image.Format = strings.ToLower(getOverrideOrEnv(opts.Format, "IMAGE_FORMAT", imageio.FormatAuto))
	config.Image.MaxPixels = getIntWithDefault("IMAGE_MAX_PIXELS", 1<<24)

	// Conversion config
	config.Conversion.Variant = strings.ToLower(getOverrideOrEnv(opts.Variant, "CSC_VARIANT", "scalar"))
	config.Conversion.Workers = getIntOverride(opts.Workers, "CSC_WORKERS", 1)

	// Output config
	config.Output.Dir = getOverrideOrEnv(opts.OutputDir, "OUTPUT_DIR", ".")
	config.Output.Diagnostics = getBoolWithDefault("OUTPUT_DIAGNOSTICS", false) || opts.Diagnostics
	config.Output.PrintRuntime = getBoolWithDefault("PRINT_RUNTIME", true)
	config.Output.SaveYCC = getBoolWithDefault("OUTPUT_SAVE_YCC", false) || opts.SaveYCC
	config.Output.Compress = getBoolWithDefault("OUTPUT_COMPRESS", true) && !opts.NoCompress
	config.Output.Preview = getBoolWithDefault("OUTPUT_PREVIEW", false) || opts.Preview

	// Server config
	config.Server.Host = getOverrideOrEnv(opts.Host, "SERVER_HOST", "0.0.0.0")
	config.Server.Port = getOverrideOrEnv(opts.Port, "SERVER_PORT", "8080")
	config.Server.ReadTimeout = getDurationWithDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	config.Server.WriteTimeout = getDurationWithDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	config.Server.IdleTimeout = getDurationWithDefault("SERVER_IDLE_TIMEOUT", 120*time.Second)
	config.Server.AllowedOrigins = getStringSliceWithDefault("ALLOWED_ORIGINS", []string{})
	config.Server.MaxFrameBytes = int64(getIntWithDefault("SERVER_MAX_FRAME_BYTES", 4<<20))

	// Logging config
	config.Logging.Level = getOverrideOrEnv(opts.LogLevel, "LOG_LEVEL", "info")
	config.Logging.Format = getOverrideOrEnv(opts.LogFormat, "LOG_FORMAT", "text")
	config.Logging.File = getEnvWithDefault("LOG_FILE", "")

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store the configuration globally so other packages can access it
	configMutex.Lock()
	globalConfig = config
	configMutex.Unlock()

	return config, nil
}

// GetGlobalConfig returns the globally stored configuration
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate image config
	if _, err := c.Image.Dimensions(); err != nil {
		return err
	}

	if c.Image.MaxPixels <= 0 {
		return fmt.Errorf("max pixels must be positive")
	}

	if c.Image.Rows*c.Image.Cols > c.Image.MaxPixels {
		return fmt.Errorf("image %dx%d exceeds max pixels %d", c.Image.Cols, c.Image.Rows, c.Image.MaxPixels)
	}

	if !imageio.ValidFormat(c.Image.Format) {
		return fmt.Errorf("invalid image format: %s", c.Image.Format)
	}

	// Validate conversion config
	if _, err := csc.ParseVariant(c.Conversion.Variant); err != nil {
		return err
	}

	if c.Conversion.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}

	// Validate output config
	if c.Output.Dir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if c.Server.MaxFrameBytes <= 0 {
		return fmt.Errorf("max frame bytes must be positive")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}

	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceWithDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return splitString(value, ",")
	}
	return defaultValue
}

// getOverrideOrEnv returns command-line override value, env value, or default
func getOverrideOrEnv(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(envKey, defaultValue)
}

// getIntOverride is getOverrideOrEnv for integers; zero means no override.
func getIntOverride(override int, envKey string, defaultValue int) int {
	if override != 0 {
		return override
	}
	return getIntWithDefault(envKey, defaultValue)
}

func splitString(s, sep string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
