package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tutortoise/stackblur-service/raster"
	"github.com/Tutortoise/stackblur-service/stackblur"
	"github.com/joho/godotenv"
)

// Config holds all configuration values
type Config struct {
	// Server
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxUploadMB  int64

	// Blur defaults, overridable per request
	Threads       int // 0 = available CPUs
	DefaultRadius int
	ResizeRatio   float64
	ResizeFilter  string
	RestoreSize   bool
	OutputFormat  string
	JPEGQuality   int

	// Logging
	Debug   bool
	LogFile string
}

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to parse integer environment variable with default value
func parseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloat64Env(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func parseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Addr:          getEnvOrDefault("BLUR_ADDR", "127.0.0.1:8080"),
		ReadTimeout:   parseDurationEnv("BLUR_READ_TIMEOUT", 60*time.Second),
		WriteTimeout:  parseDurationEnv("BLUR_WRITE_TIMEOUT", 60*time.Second),
		MaxUploadMB:   parseInt64Env("BLUR_MAX_UPLOAD_MB", 10),
		Threads:       parseIntEnv("BLUR_THREADS", 0),
		DefaultRadius: parseIntEnv("BLUR_DEFAULT_RADIUS", 10),
		ResizeRatio:   parseFloat64Env("BLUR_RESIZE_RATIO", raster.DefaultResizeRatio),
		ResizeFilter:  getEnvOrDefault("BLUR_RESIZE_FILTER", "linear"),
		RestoreSize:   parseBoolEnv("BLUR_RESTORE_SIZE", false),
		OutputFormat:  getEnvOrDefault("BLUR_OUTPUT_FORMAT", "png"),
		JPEGQuality:   parseIntEnv("BLUR_JPEG_QUALITY", 90),
		Debug:         parseBoolEnv("DEBUG", false),
		LogFile:       os.Getenv("LOG_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a request would otherwise trip over.
func (c *Config) Validate() error {
	if c.DefaultRadius < 0 || c.DefaultRadius > stackblur.MaxRadius {
		return fmt.Errorf("BLUR_DEFAULT_RADIUS %d outside [0, %d]", c.DefaultRadius, stackblur.MaxRadius)
	}
	if err := raster.ValidateRatio(c.ResizeRatio); err != nil {
		return fmt.Errorf("BLUR_RESIZE_RATIO: %w", err)
	}
	if _, err := raster.ParseFilter(c.ResizeFilter); err != nil {
		return fmt.Errorf("BLUR_RESIZE_FILTER: %w", err)
	}
	if _, err := raster.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("BLUR_OUTPUT_FORMAT: %w", err)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("BLUR_JPEG_QUALITY %d outside [1, 100]", c.JPEGQuality)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("BLUR_MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.Threads < 0 {
		return fmt.Errorf("BLUR_THREADS must not be negative, got %d", c.Threads)
	}
	return nil
}
